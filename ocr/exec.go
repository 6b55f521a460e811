package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ExecConfig configures the subprocess-backed Engine.
type ExecConfig struct {
	// PdftoppmPath is the rasterizer binary (default: "pdftoppm").
	PdftoppmPath string `json:"pdftoppm_path" yaml:"pdftoppm_path"`

	// TesseractPath is the OCR engine binary (default: "tesseract").
	TesseractPath string `json:"tesseract_path" yaml:"tesseract_path"`

	// Timeout bounds every single subprocess invocation (default: 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

func (c *ExecConfig) defaults() {
	if c.PdftoppmPath == "" {
		c.PdftoppmPath = "pdftoppm"
	}
	if c.TesseractPath == "" {
		c.TesseractPath = "tesseract"
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
}

// Exec is an Engine that shells out to pdftoppm and tesseract.
type Exec struct {
	cfg ExecConfig
}

// NewExec creates an Exec engine with the given configuration.
func NewExec(cfg ExecConfig) *Exec {
	cfg.defaults()
	return &Exec{cfg: cfg}
}

// Available checks that both binaries are on PATH and that tesseract answers
// --version.
func (e *Exec) Available(ctx context.Context) error {
	for _, bin := range []string{e.cfg.PdftoppmPath, e.cfg.TesseractPath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %s not found", ErrUnavailable, bin)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	if err := exec.CommandContext(ctx, e.cfg.TesseractPath, "--version").Run(); err != nil {
		return fmt.Errorf("%w: %s --version: %v", ErrUnavailable, e.cfg.TesseractPath, err)
	}
	return nil
}

// Rasterize runs pdftoppm -r <dpi> -gray -png and returns the page images
// sorted by page number.
func (e *Exec) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, e.cfg.PdftoppmPath,
		"-r", strconv.Itoa(dpi),
		"-gray",
		"-png",
		pdfPath,
		prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("list page images: %w", err)
	}
	sortPageImages(images)
	return images, nil
}

// Recognize runs tesseract <image> stdout -l <lang> --psm <psm>.
func (e *Exec) Recognize(ctx context.Context, imagePath, lang string, psm int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.cfg.TesseractPath,
		imagePath, "stdout",
		"-l", lang,
		"--psm", strconv.Itoa(psm))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract (%s): %w: %s", lang, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// pdftoppm zero-pads page numbers depending on the page count (page-1.png,
// page-01.png, page-001.png), so lexical order is not page order.
var pageNumRe = regexp.MustCompile(`-(\d+)\.png$`)

func sortPageImages(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return pageNumber(paths[i]) < pageNumber(paths[j])
	})
}

func pageNumber(path string) int {
	m := pageNumRe.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
