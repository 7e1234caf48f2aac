package ui

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen/internal/config"
	"invoicegen/internal/container"
	"invoicegen/internal/report"
)

func newConsole(t *testing.T) (*App, string) {
	t.Helper()
	outputDir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0"},
		Paths: config.PathConfig{
			BundleDir:   outputDir,
			TemplateDir: outputDir,
			OutputDir:   outputDir,
		},
	}
	c, err := container.New(cfg)
	require.NoError(t, err)
	app, err := NewApp(c)
	require.NoError(t, err)
	return app, outputDir
}

func writeWorkbook(t *testing.T, dir, name string, withSidecar bool) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("stub workbook"), 0o644))
	if withSidecar {
		require.NoError(t, report.WriteSidecar(path, report.Report{
			Identifier: "JF25058",
			Status:     "success",
			Customer:   "Acme Leather",
			OutputFile: path,
			Sheets:     []report.SheetOutcome{{Name: "Packing list", Succeeded: true}},
		}))
	}
	return path
}

func get(app *App, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestConsole_IndexListsDocuments(t *testing.T) {
	app, dir := newConsole(t)
	writeWorkbook(t, dir, "JF25058.xlsx", true)
	writeWorkbook(t, dir, "CT25048E.xlsx", false)

	w := get(app, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "JF25058.xlsx")
	assert.Contains(t, body, "CT25048E.xlsx")
	assert.Contains(t, body, "Acme Leather")
}

func TestConsole_IndexEmptyDirectory(t *testing.T) {
	app, _ := newConsole(t)

	w := get(app, "/")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConsole_ReportPage(t *testing.T) {
	app, dir := newConsole(t)
	writeWorkbook(t, dir, "JF25058.xlsx", true)

	w := get(app, "/documents/JF25058.xlsx")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "JF25058")
}

func TestConsole_ReportMissingSidecar(t *testing.T) {
	app, dir := newConsole(t)
	writeWorkbook(t, dir, "JF25058.xlsx", false)

	w := get(app, "/documents/JF25058.xlsx")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsole_Download(t *testing.T) {
	app, dir := newConsole(t)
	writeWorkbook(t, dir, "JF25058.xlsx", false)

	w := get(app, "/documents/JF25058.xlsx/download")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "JF25058.xlsx")
}

func TestConsole_DownloadRejectsNonWorkbook(t *testing.T) {
	app, dir := newConsole(t)
	writeWorkbook(t, dir, "JF25058.xlsx", false)

	w := get(app, "/documents/notes.txt/download")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsole_DownloadMissingFile(t *testing.T) {
	app, _ := newConsole(t)

	w := get(app, "/documents/ZZ404.xlsx/download")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsole_SessionsWithoutAudit(t *testing.T) {
	app, _ := newConsole(t)

	w := get(app, "/sessions")
	assert.Equal(t, http.StatusOK, w.Code)
}
