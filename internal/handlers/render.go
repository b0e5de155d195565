package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"braindump/internal/contextutil"
)

// RenderHandler serves documents as rendered HTML pages.
type RenderHandler struct {
	docs     DocumentService
	parser   goldmark.Markdown
	template *template.Template
}

// renderPageData holds template data for rendered document pages.
type renderPageData struct {
	Title    string
	Filename string
	Modified string
	Archived bool
	Content  template.HTML
}

// NewRenderHandler creates a new handler for GET /api/documents/{id}/html.
func NewRenderHandler(docs DocumentService) *RenderHandler {
	tmpl := template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: Georgia, 'Iowan Old Style', serif;
      margin: 0 auto;
      padding: 2rem 1.5rem;
      max-width: 760px;
      line-height: 1.6;
      color: #1f2328;
      background: #fbfaf7;
    }
    header {
      border-bottom: 1px solid #d8d4cc;
      margin-bottom: 1.5rem;
    }
    h1 {
      margin: 0 0 0.25rem;
      font-size: 1.8rem;
    }
    .meta {
      color: #6b6660;
      font-size: 0.9rem;
    }
    pre, code {
      font-family: ui-monospace, Menlo, Consolas, monospace;
      background: #f0ede6;
      border-radius: 4px;
    }
    code {
      padding: 1px 4px;
    }
    pre {
      padding: 0.75rem 1rem;
      overflow-x: auto;
    }
    pre code {
      padding: 0;
    }
    blockquote {
      margin-left: 0;
      padding-left: 1rem;
      border-left: 3px solid #c9c2b5;
      color: #55504a;
    }
    li input[type=checkbox] {
      margin-right: 0.4rem;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.Filename}} &middot; modified {{.Modified}}{{if .Archived}} &middot; archived{{end}}</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &RenderHandler{
		docs: docs,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.TaskList,
				extension.Strikethrough,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				ghhtml.WithHardWraps(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the requested document as HTML. Raw HTML in the
// markdown is not passed through.
func (h *RenderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := h.docs.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read document")
		return
	}

	htmlContent, err := h.renderMarkdown([]byte(doc.Content))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "doc_id", doc.ID, "error", err)
		http.Error(w, "failed to render document", http.StatusInternalServerError)
		return
	}

	pageData := renderPageData{
		Title:    doc.Title,
		Filename: doc.Filename,
		Modified: doc.ModifiedAt.Format("2006-01-02 15:04"),
		Archived: doc.Archived,
		Content:  template.HTML(htmlContent),
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute document template", "doc_id", doc.ID, "error", err)
		http.Error(w, "failed to render document", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *RenderHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
