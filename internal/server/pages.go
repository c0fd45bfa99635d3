package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed web/templates/*
var templatesFS embed.FS

//go:embed web/static/*
var staticFS embed.FS

//go:embed web/about.md
var aboutMarkdown []byte

type pages struct {
	index  *template.Template
	about  template.HTML
	static http.Handler
}

type indexData struct {
	Title    string
	Backend  string
	Examples []exampleLink
	About    template.HTML
}

type exampleLink struct {
	ID       string
	Title    string
	Question string
}

func newPages() (*pages, error) {
	index, err := template.ParseFS(templatesFS, "web/templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	about, err := renderMarkdown(aboutMarkdown)
	if err != nil {
		return nil, fmt.Errorf("render about page: %w", err)
	}

	static, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		return nil, err
	}

	return &pages{
		index:  index,
		about:  about,
		static: http.StripPrefix("/static/", http.FileServer(http.FS(static))),
	}, nil
}

var sanitizer = bluemonday.UGCPolicy()

// renderMarkdown converts markdown to HTML that is safe to inline in a page.
func renderMarkdown(src []byte) (template.HTML, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes())), nil
}
