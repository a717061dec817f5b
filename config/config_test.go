package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/pdf-reconciliation/utils"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONCILIA_CONFIG", "")
	t.Setenv("TESSDATA_PREFIX", "")
	t.Setenv("OCR_ENGINE", "")
	t.Setenv("OCR_PAGE_LIMIT", "")
	t.Setenv("PAYMENT_CODES", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, EngineTesseract, cfg.OCREngine)
	assert.Equal(t, "por", cfg.TesseractLanguage)
	assert.Equal(t, 300, cfg.OCRDPI)
	assert.Equal(t, 1, cfg.OCRPageLimit)
	assert.Equal(t, 50, cfg.MinTextChars)
	assert.Equal(t, 50.0, cfg.Extraction.MinAmount)
	assert.Equal(t, utils.PolicyLargest, cfg.Extraction.Policy)
	assert.True(t, cfg.Extraction.AnchorRules)
	assert.False(t, cfg.PaymentCodes, "payment-code fallback is opt-in")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONCILIA_CONFIG", "")
	t.Setenv("OCR_PAGE_LIMIT", "0")
	t.Setenv("EXTRACT_POLICY", "last")
	t.Setenv("EXTRACT_ANCHORS", "false")
	t.Setenv("WORKERS", "4")
	t.Setenv("PAYMENT_CODES", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.OCRPageLimit)
	assert.Equal(t, utils.PolicyLast, cfg.Extraction.Policy)
	assert.False(t, cfg.Extraction.AnchorRules)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.PaymentCodes)
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "concilia.yaml")
	yml := `
ocr_engine: none
ocr_page_limit: 3
extraction:
  min_amount: 10
  ignored_values: [2030]
  sensitive_keywords: ["FATURA"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("CONCILIA_CONFIG", path)
	t.Setenv("TESSDATA_PREFIX", "/opt/tess")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EngineNone, cfg.OCREngine)
	assert.Equal(t, 3, cfg.OCRPageLimit)
	assert.Equal(t, 10.0, cfg.Extraction.MinAmount)
	assert.Equal(t, []float64{2030}, cfg.Extraction.IgnoredValues)
	assert.Equal(t, []string{"FATURA"}, cfg.Extraction.SensitiveKeywords)
	assert.Equal(t, "/opt/tess", cfg.TesseractDataPath)
}

func TestLoadConfigRejectsUnknownEngine(t *testing.T) {
	t.Setenv("CONCILIA_CONFIG", "")
	t.Setenv("OCR_ENGINE", "abbyy")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestResolveTessdata(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xyz.traineddata"), []byte("model"), 0o644))

	cfg := &Config{TesseractDataPath: dir, TesseractLanguage: "xyz"}
	assert.Equal(t, dir, cfg.ResolveTessdata())

	cfg = &Config{TesseractDataPath: t.TempDir(), TesseractLanguage: "xyz"}
	assert.Equal(t, "", cfg.ResolveTessdata())
}
