package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aashish23092/pdf-reconciliation/client"
	"github.com/Aashish23092/pdf-reconciliation/config"
	"github.com/Aashish23092/pdf-reconciliation/logger"
	"github.com/Aashish23092/pdf-reconciliation/metrics"
	"github.com/Aashish23092/pdf-reconciliation/service"
	"github.com/Aashish23092/pdf-reconciliation/utils"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const usage = `Usage: reconciler <command> [flags]

Commands:
  reconcile  -revenue DIR -expense DIR [-out DIR] [-pdf] [-json]
  inspect    [-full] FILE.pdf
  serve      [-port PORT]
  watch      -revenue DIR -expense DIR [-out DIR] [-pdf]
  help
`

func main() {
	// .env is optional
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "reconcile":
		err = runReconcile(ctx, cfg, args)
	case "inspect":
		err = runInspect(ctx, cfg, args)
	case "serve":
		err = runServe(ctx, cfg, args)
	case "watch":
		err = runWatch(ctx, cfg, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("command failed")
		os.Exit(1)
	}
}

// app holds the components shared by every command.
type app struct {
	cfg       *config.Config
	extractor *utils.AmountExtractor
	reconcile *service.ReconcileService
}

func newApp(cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *app {
	reader := service.NewDocumentReader(
		service.NewPDFProcessor(),
		newRasterizer(cfg, log),
		newRecognizer(cfg, log),
		client.NewBarcodeScanner(),
		service.ReaderOptionsFromConfig(cfg),
		log,
	)
	if !reader.CanRecognize() {
		log.Warn().Msg("recognition unavailable, reading digital text only")
	}

	extractor := utils.NewAmountExtractor(cfg.Extraction)
	reconcile := service.NewReconcileService(reader, extractor, service.ReconcileOptions{
		Workers:      cfg.Workers,
		PaymentCodes: cfg.PaymentCodes,
	}, m, log)

	return &app{cfg: cfg, extractor: extractor, reconcile: reconcile}
}

// newRecognizer resolves the OCR engine once. A nil result leaves the
// reader in digital-text-only mode.
func newRecognizer(cfg *config.Config, log zerolog.Logger) service.Recognizer {
	switch cfg.OCREngine {
	case config.EngineTesseract:
		tessdata := cfg.ResolveTessdata()
		if tessdata == "" {
			log.Warn().Str("lang", cfg.TesseractLanguage).Msg("tessdata not found")
			return nil
		}
		log.Info().Str("tessdata", tessdata).Str("lang", cfg.TesseractLanguage).Msg("tesseract enabled")
		return client.NewTesseractClient(tessdata, cfg.TesseractLanguage, log)
	case config.EnginePaddle:
		log.Info().Str("url", cfg.PaddleAPIURL).Msg("paddleocr enabled")
		return client.NewPaddleClient(cfg.PaddleAPIURL, log)
	}
	return nil
}

// newRasterizer prefers pdftoppm and falls back to the images embedded in
// the PDF.
func newRasterizer(cfg *config.Config, log zerolog.Logger) service.Rasterizer {
	var steps []client.PageRasterizer
	if poppler, err := client.NewPopplerRasterizer(cfg.PdftoppmPath); err == nil {
		steps = append(steps, poppler)
	} else {
		log.Debug().Err(err).Msg("using embedded page images only")
	}
	steps = append(steps, client.EmbeddedImageRasterizer{})
	return client.NewChainRasterizer(log, steps...)
}
