package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aashish23092/pdf-reconciliation/utils"
)

const (
	EngineTesseract = "tesseract"
	EnginePaddle    = "paddle"
	EngineNone      = "none"
)

type Config struct {
	ServerPort string `yaml:"server_port"`
	LogLevel   string `yaml:"log_level"`
	ReportDir  string `yaml:"report_dir"`
	Workers    int    `yaml:"workers"`

	OCREngine         string `yaml:"ocr_engine"`
	TesseractDataPath string `yaml:"tessdata_prefix"`
	TesseractLanguage string `yaml:"tesseract_lang"`
	PaddleAPIURL      string `yaml:"paddle_api_url"`
	PdftoppmPath      string `yaml:"pdftoppm_path"`
	OCRDPI            int    `yaml:"ocr_dpi"`
	// OCRPageLimit caps how many scanned pages are recognized; 0 means all.
	OCRPageLimit  int `yaml:"ocr_page_limit"`
	TextPageLimit int `yaml:"text_page_limit"`
	MinTextChars  int `yaml:"min_text_chars"`

	PaymentCodes bool                   `yaml:"payment_codes"`
	Extraction   utils.ExtractorOptions `yaml:"extraction"`

	MaxFileSize int64 `yaml:"max_file_size"`
}

// TessdataCandidates is the fallback search order used when TESSDATA_PREFIX
// does not point at a usable language model.
var TessdataCandidates = []string{
	"/usr/share/tesseract-ocr/5/tessdata",
	"/usr/share/tesseract-ocr/4.00/tessdata",
	"/usr/share/tessdata",
	"/usr/local/share/tessdata",
	"/opt/homebrew/share/tessdata",
	`C:\Program Files\Tesseract-OCR\tessdata`,
	`C:\Program Files (x86)\Tesseract-OCR\tessdata`,
}

// LoadConfig reads the environment, then overlays CONCILIA_CONFIG when set.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort:        getenvDefault("SERVER_PORT", "8080"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		ReportDir:         getenvDefault("REPORT_DIR", "."),
		Workers:           getenvIntDefault("WORKERS", 1),
		OCREngine:         getenvDefault("OCR_ENGINE", EngineTesseract),
		TesseractLanguage: getenvDefault("TESSERACT_LANG", "por"),
		PaddleAPIURL:      getenvDefault("PADDLEOCR_API_URL", "http://paddleocr:8866/predict/ocr_system"),
		PdftoppmPath:      os.Getenv("PDFTOPPM_PATH"),
		OCRDPI:            getenvIntDefault("OCR_DPI", 300),
		OCRPageLimit:      getenvIntDefault("OCR_PAGE_LIMIT", 1),
		TextPageLimit:     getenvIntDefault("TEXT_PAGE_LIMIT", 0),
		MinTextChars:      getenvIntDefault("MIN_TEXT_CHARS", 50),
		PaymentCodes:      getenvBoolDefault("PAYMENT_CODES", false),
		Extraction:        utils.DefaultExtractorOptions(),
		MaxFileSize:       32 << 20,
	}
	cfg.Extraction.MinAmount = getenvFloatDefault("EXTRACT_MIN_AMOUNT", cfg.Extraction.MinAmount)
	cfg.Extraction.AnchorRules = getenvBoolDefault("EXTRACT_ANCHORS", cfg.Extraction.AnchorRules)
	if v := os.Getenv("EXTRACT_POLICY"); v != "" {
		cfg.Extraction.Policy = utils.SelectionPolicy(v)
	}

	if path := os.Getenv("CONCILIA_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// The environment wins over the file for the engine location.
	if prefix := os.Getenv("TESSDATA_PREFIX"); prefix != "" {
		cfg.TesseractDataPath = prefix
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.OCREngine {
	case EngineTesseract, EnginePaddle, EngineNone:
	default:
		return fmt.Errorf("config: unknown ocr_engine %q", c.OCREngine)
	}
	switch c.Extraction.Policy {
	case utils.PolicyLargest, utils.PolicyLast:
	default:
		return fmt.Errorf("config: unknown extraction policy %q", c.Extraction.Policy)
	}
	if c.OCRDPI <= 0 {
		return fmt.Errorf("config: ocr_dpi must be positive")
	}
	if c.OCRPageLimit < 0 || c.TextPageLimit < 0 {
		return fmt.Errorf("config: page limits cannot be negative")
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}

// ResolveTessdata returns the first directory holding <lang>.traineddata,
// trying the configured prefix before TessdataCandidates. An empty result
// means OCR is unavailable and reading degrades to embedded text only.
func (c *Config) ResolveTessdata() string {
	candidates := make([]string, 0, len(TessdataCandidates)+1)
	if c.TesseractDataPath != "" {
		candidates = append(candidates, c.TesseractDataPath)
	}
	candidates = append(candidates, TessdataCandidates...)

	model := c.TesseractLanguage + ".traineddata"
	for _, dir := range candidates {
		if info, err := os.Stat(filepath.Join(dir, model)); err == nil && !info.IsDir() {
			return dir
		}
	}
	return ""
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func getenvFloatDefault(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return def
}

func getenvBoolDefault(key string, def bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}
