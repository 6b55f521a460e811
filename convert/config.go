package convert

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/legaldoc/chunk"
	"github.com/hazyhaar/legaldoc/docpipe"
	"github.com/hazyhaar/legaldoc/ocr"
)

// Config holds the full legaldoc configuration.
type Config struct {
	Listen      string         `yaml:"listen"`
	LogLevel    string         `yaml:"log_level"` // debug | info | warn | error
	MaxBatch    int            `yaml:"max_batch"`
	Concurrency int            `yaml:"concurrency"`
	Numbered    bool           `yaml:"numbered"`
	Pipeline    PipelineConfig `yaml:"pipeline"`
	OCR         OCRConfig      `yaml:"ocr"`
	Chunk       chunk.Options  `yaml:"chunk"`
}

// PipelineConfig configures text extraction.
type PipelineConfig struct {
	MaxFileMB       int    `yaml:"max_file_mb"`
	PDFReader       string `yaml:"pdf_reader"` // pdfcpu | ledongthuc
	PageMarkers     bool   `yaml:"page_markers"`
	HTMLMode        string `yaml:"html_mode"` // text | markdown
	MinChars        int    `yaml:"min_chars"`
	MinCharsPerPage int    `yaml:"min_chars_per_page"`
}

// OCRConfig configures the OCR fallback.
type OCRConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Languages     []string      `yaml:"languages"`
	DPI           int           `yaml:"dpi"`
	PSM           int           `yaml:"psm"`
	Timeout       time.Duration `yaml:"timeout"`
	PdftoppmPath  string        `yaml:"pdftoppm_path"`
	TesseractPath string        `yaml:"tesseract_path"`
	ScratchDir    string        `yaml:"scratch_dir"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:      ":8090",
		LogLevel:    "info",
		MaxBatch:    5,
		Concurrency: 2,
		Numbered:    true,
		Pipeline: PipelineConfig{
			MaxFileMB:       100,
			PDFReader:       docpipe.ReaderPdfcpu,
			HTMLMode:        docpipe.HTMLModeText,
			MinChars:        docpipe.DefaultMinChars,
			MinCharsPerPage: docpipe.DefaultMinCharsPerPage,
		},
		OCR: OCRConfig{
			Enabled:       true,
			Languages:     []string{"spa", "eng"},
			DPI:           300,
			PSM:           6,
			Timeout:       2 * time.Minute,
			PdftoppmPath:  "pdftoppm",
			TesseractPath: "tesseract",
		},
		Chunk: chunk.Options{
			Mode:         chunk.ModeChars,
			MaxChars:     chunk.DefaultMaxChars,
			OverlapChars: chunk.DefaultOverlapChars,
			MaxWords:     chunk.DefaultMaxWords,
		},
	}
}

// LoadConfig reads and parses a YAML config file, then applies environment
// overrides. An empty path means defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// ApplyEnv overrides fields from LEGALDOC_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LEGALDOC_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("LEGALDOC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LEGALDOC_CHUNK_MODE"); v != "" {
		c.Chunk.Mode = chunk.Mode(strings.ToLower(v))
	}
	if v := os.Getenv("LEGALDOC_OCR_LANGUAGES"); v != "" {
		var langs []string
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
		c.OCR.Languages = langs
	}
	if v := os.Getenv("LEGALDOC_OCR_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LEGALDOC_OCR_ENABLED: %w", err)
		}
		c.OCR.Enabled = b
	}
	return nil
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.MaxBatch <= 0 {
		return fmt.Errorf("max_batch must be > 0")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be > 0")
	}
	if c.Pipeline.MaxFileMB <= 0 {
		return fmt.Errorf("pipeline.max_file_mb must be > 0")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.ExtractConfig().Validate(); err != nil {
		return err
	}
	if c.OCR.Enabled && len(c.OCR.Languages) == 0 {
		return fmt.Errorf("ocr.languages is required when ocr is enabled")
	}
	return c.Chunk.Validate()
}

// MaxFileBytes returns max file size in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.Pipeline.MaxFileMB) * 1024 * 1024 }

// ExtractConfig builds the extraction configuration. The OCR runner and
// logger are left for the caller.
func (c *Config) ExtractConfig() docpipe.Config {
	return docpipe.Config{
		MaxFileSize:     c.MaxFileBytes(),
		PDFReader:       c.Pipeline.PDFReader,
		PageMarkers:     c.Pipeline.PageMarkers,
		HTMLMode:        c.Pipeline.HTMLMode,
		MinChars:        c.Pipeline.MinChars,
		MinCharsPerPage: c.Pipeline.MinCharsPerPage,
		DisableOCR:      !c.OCR.Enabled,
	}
}

// NewPipeline builds the extraction pipeline, with the subprocess OCR
// runner when OCR is enabled.
func (c *Config) NewPipeline(logger *slog.Logger) *docpipe.Pipeline {
	pcfg := c.ExtractConfig()
	pcfg.Logger = logger
	if c.OCR.Enabled {
		pcfg.OCR = c.OCRRunner(logger)
	}
	return docpipe.New(pcfg)
}

// OCRRunner builds the subprocess-backed OCR runner.
func (c *Config) OCRRunner(logger *slog.Logger) *ocr.Runner {
	engine := ocr.NewExec(ocr.ExecConfig{
		PdftoppmPath:  c.OCR.PdftoppmPath,
		TesseractPath: c.OCR.TesseractPath,
		Timeout:       c.OCR.Timeout,
	})
	return ocr.NewRunner(engine, ocr.Options{
		Languages:  c.OCR.Languages,
		DPI:        c.OCR.DPI,
		PSM:        c.OCR.PSM,
		ScratchDir: c.OCR.ScratchDir,
		Logger:     logger,
	})
}

// ParseLevel maps a log_level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q (use debug, info, warn or error)", s)
	}
}
