package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// PDF export via an external headless renderer
// ════════════════════════════════════════════════════════════════════

// PDFEngine names the external HTML to PDF converter.
type PDFEngine string

const (
	EngineAuto     PDFEngine = ""
	EngineWKHTML   PDFEngine = "wkhtmltopdf"
	EngineChromium PDFEngine = "chromium"
	EngineNone     PDFEngine = "none" // write HTML instead
)

var chromiumBinaries = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// ErrNoOutputPath is returned when PDFConfig.OutputPath is empty.
var ErrNoOutputPath = errors.New("output path is required")

// PDFConfig holds PDF export settings.
type PDFConfig struct {
	Engine     PDFEngine
	PageSize   string // default: "A4"
	Landscape  bool
	Margin     string // default: "12mm"
	OutputPath string
}

// DefaultPDFConfig returns A4 portrait with 12mm margins and an auto-detected engine.
func DefaultPDFConfig(out string) PDFConfig {
	return PDFConfig{PageSize: "A4", Margin: "12mm", OutputPath: out}
}

// DetectPDFEngine reports the first converter found in PATH.
func DetectPDFEngine() PDFEngine {
	if _, err := exec.LookPath("wkhtmltopdf"); err == nil {
		return EngineWKHTML
	}
	if chromiumPath() != "" {
		return EngineChromium
	}
	return EngineNone
}

func chromiumPath() string {
	for _, name := range chromiumBinaries {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// GeneratePDF converts html into a PDF at cfg.OutputPath. Without a converter
// the HTML is written next to it with an .html extension. The path actually
// written is returned.
func GeneratePDF(ctx context.Context, html string, cfg PDFConfig) (string, error) {
	if cfg.OutputPath == "" {
		return "", ErrNoOutputPath
	}
	if cfg.PageSize == "" {
		cfg.PageSize = "A4"
	}
	if cfg.Margin == "" {
		cfg.Margin = "12mm"
	}

	engine := cfg.Engine
	if engine == EngineAuto {
		engine = DetectPDFEngine()
	}

	switch engine {
	case EngineWKHTML, EngineChromium:
		tmp, err := writeTempHTML(html)
		if err != nil {
			return "", err
		}
		defer os.Remove(tmp)
		if engine == EngineWKHTML {
			err = runWKHTML(ctx, tmp, cfg)
		} else {
			err = runChromium(ctx, tmp, cfg)
		}
		if err != nil {
			return "", err
		}
		return cfg.OutputPath, nil
	case EngineNone:
		return writeHTMLFallback(html, cfg.OutputPath)
	default:
		return "", fmt.Errorf("unsupported PDF engine: %s", engine)
	}
}

func runWKHTML(ctx context.Context, src string, cfg PDFConfig) error {
	orientation := "Portrait"
	if cfg.Landscape {
		orientation = "Landscape"
	}
	args := []string{
		"--page-size", cfg.PageSize,
		"--orientation", orientation,
		"--margin-top", cfg.Margin,
		"--margin-bottom", cfg.Margin,
		"--margin-left", cfg.Margin,
		"--margin-right", cfg.Margin,
		"--encoding", "UTF-8",
		"--enable-local-file-access",
		"--quiet",
		src, cfg.OutputPath,
	}
	if out, err := exec.CommandContext(ctx, "wkhtmltopdf", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("wkhtmltopdf: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func runChromium(ctx context.Context, src string, cfg PDFConfig) error {
	bin := chromiumPath()
	if bin == "" {
		return errors.New("chromium not found in PATH")
	}
	abs, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}
	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--print-to-pdf=" + abs,
		"--no-pdf-header-footer",
	}
	if cfg.Landscape {
		args = append(args, "--landscape")
	}
	args = append(args, "file://"+src)
	if out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("chromium: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func writeTempHTML(html string) (string, error) {
	f, err := os.CreateTemp("", "commodityavg-*.html")
	if err != nil {
		return "", fmt.Errorf("creating temp HTML: %w", err)
	}
	if _, err := f.WriteString(html); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temp HTML: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing temp HTML: %w", err)
	}
	return f.Name(), nil
}

func writeHTMLFallback(html, out string) (string, error) {
	if strings.EqualFold(filepath.Ext(out), ".pdf") {
		out = strings.TrimSuffix(out, filepath.Ext(out)) + ".html"
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("writing HTML fallback: %w", err)
	}
	return out, nil
}
