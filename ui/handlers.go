package ui

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"invoicegen/internal/report"
	"invoicegen/models"
)

// DocumentView is one generated workbook as the index lists it.
type DocumentView struct {
	Name      string
	Size      int64
	Modified  time.Time
	Status    string
	Customer  string
	Sheets    int
	HasReport bool
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	docs := a.listDocuments()
	a.render(w, "index.html", map[string]any{
		"Title":     "Documents",
		"Documents": docs,
		"OutputDir": a.container.Config.Paths.OutputDir,
	})
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	outputPath := filepath.Join(a.container.Config.Paths.OutputDir, name)

	rep, err := report.ReadSidecar(outputPath)
	if err != nil {
		http.Error(w, "no report for "+name, http.StatusNotFound)
		return
	}

	a.render(w, "report.html", map[string]any{
		"Title":  name,
		"Name":   name,
		"Report": rep,
		"Body":   renderMarkdown(report.BuildMarkdown(rep)),
	})
}

func (a *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	if !strings.HasSuffix(name, ".xlsx") {
		http.Error(w, "not a workbook", http.StatusBadRequest)
		return
	}

	path := filepath.Join(a.container.Config.Paths.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func (a *App) handleSessions(w http.ResponseWriter, r *http.Request) {
	var sessions []models.GenerationSession
	if a.container.AuditRepo != nil {
		list, err := a.container.AuditRepo.ListSessions(r.Context(), 100)
		if err != nil {
			a.logger.Warn("Listing sessions failed: %v", err)
		} else {
			sessions = list
		}
	}

	a.render(w, "sessions.html", map[string]any{
		"Title":        "Sessions",
		"Sessions":     sessions,
		"AuditEnabled": a.container.AuditRepo != nil,
	})
}

// listDocuments scans the output directory for workbooks, newest first,
// and folds in each one's sidecar when present.
func (a *App) listDocuments() []DocumentView {
	entries, err := os.ReadDir(a.container.Config.Paths.OutputDir)
	if err != nil {
		a.logger.Warn("Reading output directory failed: %v", err)
		return nil
	}

	var docs []DocumentView
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xlsx") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		doc := DocumentView{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		}
		outputPath := filepath.Join(a.container.Config.Paths.OutputDir, entry.Name())
		if rep, err := report.ReadSidecar(outputPath); err == nil {
			doc.HasReport = true
			doc.Status = rep.Status
			doc.Customer = rep.Customer
			doc.Sheets = len(rep.Sheets)
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Modified.After(docs[j].Modified)
	})
	return docs
}

func (a *App) render(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error("Rendering %s failed: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// renderMarkdown converts a run report's Markdown body to HTML.
func renderMarkdown(src string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags,
	})
	return template.HTML(markdown.ToHTML([]byte(src), p, renderer))
}
