package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Aashish23092/pdf-reconciliation/config"
	"github.com/Aashish23092/pdf-reconciliation/dto"
	"github.com/Aashish23092/pdf-reconciliation/handler"
	"github.com/Aashish23092/pdf-reconciliation/logger"
	"github.com/Aashish23092/pdf-reconciliation/metrics"
	"github.com/Aashish23092/pdf-reconciliation/report"
	"github.com/Aashish23092/pdf-reconciliation/service"
	"github.com/Aashish23092/pdf-reconciliation/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

func runReconcile(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	revenueDir := fs.String("revenue", "", "folder with revenue PDFs")
	expenseDir := fs.String("expense", "", "folder with expense PDFs")
	outDir := fs.String("out", cfg.ReportDir, "folder for the report")
	withPDF := fs.Bool("pdf", false, "also write a PDF summary")
	asJSON := fs.Bool("json", false, "print records and totals as JSON")
	_ = fs.Parse(args)

	if *revenueDir == "" && *expenseDir == "" {
		return errors.New("reconcile: at least one of -revenue or -expense is required")
	}

	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	a := newApp(cfg, nil, log)

	var records []dto.DocumentRecord
	for _, batch := range []struct {
		dir      string
		category dto.Category
	}{
		{*revenueDir, dto.CategoryRevenue},
		{*expenseDir, dto.CategoryExpense},
	} {
		if batch.dir == "" {
			continue
		}
		files, err := service.DiscoverPDFs(batch.dir)
		if err != nil {
			return err
		}
		log.Info().Str("category", string(batch.category)).Int("files", len(files)).Msg("reading documents")
		records = append(records, a.reconcile.Process(ctx, files, batch.category)...)
	}

	totals := service.TotalsResponse(service.Summarize(records))
	now := time.Now()
	paths, err := report.Write(*outDir, records, totals, now, *withPDF)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.ReconcileResponse{
			RunID:       runID,
			Records:     records,
			Totals:      totals,
			ProcessedAt: now.Format(time.RFC3339),
		})
	}

	fmt.Println("Concluído!")
	fmt.Println()
	fmt.Printf("Receitas OK: %s\n", totals.Formatted["revenue"])
	fmt.Printf("Despesas OK: %s\n", totals.Formatted["expense"])
	fmt.Printf("SALDO: %s\n", totals.Formatted["balance"])
	fmt.Println()
	fmt.Printf("Itens para Revisar: %d\n", totals.Pending)
	for _, p := range paths {
		fmt.Printf("Relatório: %s\n", p)
	}
	return nil
}

func runInspect(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	full := fs.Bool("full", false, "print the whole text instead of the first 2000 characters")
	categoryName := fs.String("category", string(dto.CategoryRevenue), "document category (receita|despesa)")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("inspect: exactly one PDF is required")
	}
	path := fs.Arg(0)
	category, err := dto.ParseCategory(*categoryName)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	a := newApp(cfg, nil, logger.FromContext(ctx))
	rec, read := a.reconcile.Inspect(ctx, path, category)
	normalized := utils.NormalizeOCRText(read.Text)

	fmt.Printf("Arquivo:    %s\n", path)
	fmt.Printf("Categoria:  %s\n", category.Label())
	fmt.Printf("Leitura:    %s\n", rec.Method)
	fmt.Printf("Páginas:    %d\n", read.Pages)
	if len(read.Codes) > 0 {
		fmt.Printf("Códigos:    %s\n", strings.Join(read.Codes, ", "))
	}
	fmt.Printf("Sensível:   %t\n", a.extractor.IsSensitive(read.Text))

	candidates := a.extractor.Candidates(normalized)
	formatted := make([]string, len(candidates))
	for i, c := range candidates {
		formatted[i] = utils.FormatAmount(c)
	}
	fmt.Printf("Candidatos: %s\n", strings.Join(formatted, " | "))
	fmt.Printf("Valor:      R$ %s (%s)\n", utils.FormatAmount(rec.Amount), rec.Rationale.Label())
	fmt.Printf("Status:     %s\n", rec.Status.Label())

	text := read.Text
	if r := []rune(text); !*full && len(r) > 2000 {
		text = string(r[:2000]) + "\n[...]"
	}
	fmt.Println("\n--- TEXTO ---")
	fmt.Println(text)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", cfg.ServerPort, "listen port")
	_ = fs.Parse(args)

	log := logger.FromContext(ctx)
	m := metrics.New(prometheus.DefaultRegisterer)
	a := newApp(cfg, m, log)

	gin.SetMode(gin.ReleaseMode)
	reconcileHandler := handler.NewReconcileHandler(a.reconcile, m, cfg.MaxFileSize, log)
	router := handler.NewRouter(reconcileHandler, prometheus.DefaultGatherer)

	srv := &http.Server{Addr: ":" + *port, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", *port).Msg("starting PDF reconciliation service")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func runWatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	revenueDir := fs.String("revenue", "", "folder with revenue PDFs")
	expenseDir := fs.String("expense", "", "folder with expense PDFs")
	outDir := fs.String("out", cfg.ReportDir, "folder for the report")
	withPDF := fs.Bool("pdf", false, "also write a PDF summary")
	_ = fs.Parse(args)

	if *revenueDir == "" && *expenseDir == "" {
		return errors.New("watch: at least one of -revenue or -expense is required")
	}

	log := logger.FromContext(ctx)
	a := newApp(cfg, nil, log)
	started := time.Now()

	watcher, err := service.NewFolderWatcher(a.reconcile, *revenueDir, *expenseDir, func(records []dto.DocumentRecord) {
		totals := service.TotalsResponse(service.Summarize(records))
		paths, err := report.Write(*outDir, records, totals, started, *withPDF)
		if err != nil {
			log.Error().Err(err).Msg("failed to write report")
			return
		}
		log.Info().Int("documents", len(records)).Str("balance", totals.Formatted["balance"]).
			Int("pending", totals.Pending).Strs("reports", paths).Msg("report updated")
	}, log)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return watcher.Run(ctx)
}
