// Package pdf renders document templates to PDF files through headless Chrome.
package pdf

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"invoicer/internal/core/apperror"
	"invoicer/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var tracer = otel.Tracer("invoicer/pdf")

// A4 in inches.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
)

// Config configures the renderer.
type Config struct {
	// BrowserWSEndpoint is the DevTools websocket of a remote Chrome.
	// Empty starts a local headless Chrome per render.
	BrowserWSEndpoint string
	// TempDir receives the rendered files. Empty means os.TempDir().
	TempDir string
	Timeout time.Duration
}

// Renderer implements documents.Renderer.
type Renderer struct {
	cfg       Config
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer(cfg Config) (*Renderer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	tmpl, err := template.New("documents").Funcs(template.FuncMap{
		"join": joinNonBlank,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{cfg: cfg, templates: tmpl}, nil
}

func joinNonBlank(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// HTML executes the named template.
func (r *Renderer) HTML(name string, data any) ([]byte, error) {
	if r.templates.Lookup(name) == nil {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Render prints the named template to a temporary PDF file and returns its path.
// The caller removes the file.
func (r *Renderer) Render(ctx context.Context, name string, data any) (string, error) {
	ctx, span := tracer.Start(ctx, "render",
		trace.WithAttributes(attribute.String("pdf.template", name)))
	defer span.End()

	path, err := r.render(ctx, name, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", apperror.NewRenderFailed(name, err)
	}
	return path, nil
}

func (r *Renderer) render(ctx context.Context, name string, data any) (string, error) {
	html, err := r.HTML(name, data)
	if err != nil {
		return "", err
	}

	pdf, err := r.print(ctx, string(html))
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(r.cfg.TempDir, name+"-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(pdf); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close pdf: %w", err)
	}

	logger.Debug(ctx, "pdf rendered", "template", name, "path", f.Name(), "bytes", len(pdf))
	return f.Name(), nil
}

func (r *Renderer) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.BrowserWSEndpoint != "" {
		return chromedp.NewRemoteAllocator(ctx, r.cfg.BrowserWSEndpoint)
	}
	return chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
}

func (r *Renderer) print(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := r.allocator(ctx)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				Do(ctx)
			pdf = buf
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}
