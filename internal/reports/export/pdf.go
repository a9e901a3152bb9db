package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/diarydesk/diarydesk/internal/reports"
	"github.com/diarydesk/diarydesk/report"
	"github.com/diarydesk/diarydesk/web"
)

// Watermark is printed across every page of the register.
const Watermark = "Administration Directorate Diary System"

// Renderer converts HTML into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string, opts report.PageOptions) ([]byte, error)
}

// PDFExporter renders the yearly register through Gotenberg.
type PDFExporter struct {
	renderer  Renderer
	templates *template.Template
	now       func() time.Time
}

// NewPDFExporter creates a PDFExporter with parsed templates.
func NewPDFExporter(renderer Renderer) (*PDFExporter, error) {
	funcMap := template.FuncMap{
		"formatDateTime": func(t time.Time) string {
			return t.Format("02-01-2006 15:04")
		},
	}
	tpl, err := template.New("diary_register_pdf.html").Funcs(funcMap).ParseFS(
		web.Templates, "templates/reports/diary_register_pdf.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parse diary register template: %w", err)
	}
	return &PDFExporter{renderer: renderer, templates: tpl, now: time.Now}, nil
}

// BuildHTML renders the register document for rows (header row first).
func (p *PDFExporter) BuildHTML(year int, rows [][]string) (string, error) {
	doc := reports.RegisterDocument{
		Year:        year,
		Title:       fmt.Sprintf("Diary Register %d", year),
		Watermark:   Watermark,
		GeneratedAt: p.now(),
	}
	if len(rows) > 0 {
		doc.Header = rows[0]
		doc.Rows = rows[1:]
	}
	var buf bytes.Buffer
	if err := p.templates.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// RenderRegister produces the PDF bytes of the register of year.
func (p *PDFExporter) RenderRegister(ctx context.Context, year int, rows [][]string) ([]byte, error) {
	if p == nil || p.renderer == nil {
		return nil, fmt.Errorf("pdf exporter not initialized")
	}
	html, err := p.BuildHTML(year, rows)
	if err != nil {
		return nil, err
	}
	return p.renderer.RenderHTML(ctx, html, report.PageOptions{Landscape: true, Margin: 0.4})
}

// PDFFilename names the download for year.
func PDFFilename(year int) string {
	return fmt.Sprintf("diary_report_%d.pdf", year)
}
