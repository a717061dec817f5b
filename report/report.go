package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Aashish23092/pdf-reconciliation/dto"
	"github.com/Aashish23092/pdf-reconciliation/utils"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Relatorio"
	headerColor = "003366"
	XLSXType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []interface{}{"Arquivo", "Categoria", "Valor", "Status", "Método", "Caminho"}

// FileName returns the report name for a run finished at t.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("Relatorio_Final_%s.%s", t.Format("150405"), ext)
}

// Money renders an amount the way the report shows it.
func Money(v float64) string {
	return "R$ " + utils.FormatAmount(v)
}

// BuildXLSX renders one row per record followed by the totals block.
func BuildXLSX(records []dto.DocumentRecord, totals dto.TotalsResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	_ = f.SetCellStyle(SheetName, "A1", "F1", headerStyle)
	_ = f.SetColWidth(SheetName, "A", "A", 50)
	_ = f.SetColWidth(SheetName, "C", "C", 18)
	_ = f.SetColWidth(SheetName, "E", "E", 40)

	for i, r := range records {
		row := []interface{}{
			r.FileName,
			r.Category.Label(),
			Money(r.Amount),
			r.Status.Label(),
			r.Method,
			r.FilePath,
		}
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create summary style: %w", err)
	}
	summary := [][2]interface{}{
		{"Receitas OK", Money(totals.Revenue)},
		{"Despesas OK", Money(totals.Expense)},
		{"SALDO", Money(totals.Balance)},
		{"Itens para Revisar", totals.Pending},
	}
	start := len(records) + 3
	for i, line := range summary {
		row := start + i
		_ = f.SetCellValue(SheetName, fmt.Sprintf("A%d", row), line[0])
		_ = f.SetCellValue(SheetName, fmt.Sprintf("C%d", row), line[1])
		_ = f.SetCellStyle(SheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), boldStyle)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSummaryPDF renders the totals and the records that need review.
func BuildSummaryPDF(records []dto.DocumentRecord, totals dto.TotalsResponse, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, tr("Conciliação de Documentos"))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Gerado em: %s", generatedAt.Format("02/01/2006 15:04:05")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Documentos: %d", len(records)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	for _, line := range [][2]string{
		{"Receitas OK", Money(totals.Revenue)},
		{"Despesas OK", Money(totals.Expense)},
		{"SALDO", Money(totals.Balance)},
		{"Itens para Revisar", fmt.Sprint(totals.Pending)},
	} {
		pdf.CellFormat(60, 6, tr(line[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, tr(line[1]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var pending []dto.DocumentRecord
	for _, r := range records {
		if r.Status != dto.StatusOK {
			pending = append(pending, r)
		}
	}
	if len(pending) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(80, 6, "Arquivo", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Categoria", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Status", "1", 0, "C", false, 0, "")
		pdf.CellFormat(65, 6, tr("Método"), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		for _, r := range pending {
			pdf.CellFormat(80, 6, tr(truncate(r.FileName, 48)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, tr(r.Category.Label()), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, r.Status.Label(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(65, 6, tr(truncate(r.Method, 40)), "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the XLSX report, and the PDF summary when withPDF is set,
// into dir. It returns the paths written.
func Write(dir string, records []dto.DocumentRecord, totals dto.TotalsResponse, now time.Time, withPDF bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}

	data, err := BuildXLSX(records, totals)
	if err != nil {
		return nil, err
	}
	xlsxPath := filepath.Join(dir, FileName(now, "xlsx"))
	if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	paths := []string{xlsxPath}

	if withPDF {
		data, err := BuildSummaryPDF(records, totals, now)
		if err != nil {
			return paths, err
		}
		pdfPath := filepath.Join(dir, FileName(now, "pdf"))
		if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write summary: %w", err)
		}
		paths = append(paths, pdfPath)
	}
	return paths, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
