package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"invoicegen/internal"
	"invoicegen/internal/errors"
	"invoicegen/models"
)

// Bundle is a loaded config document plus its optional template sidecar.
// Sheet compilation happens on access so a document with one broken sheet
// still renders the others.
type Bundle struct {
	Doc     models.BundleDocument
	Sidecar map[string]any
	Path    string

	logger *internal.Logger
}

// Load reads and parses a bundle config document. The sibling template
// sidecar ({name}_template.json next to {name}_config.json) is loaded when
// present; its absence is normal.
func Load(configPath string) (*Bundle, error) {
	logger := internal.DefaultLogger

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading bundle config %s", configPath)
	}

	var doc models.BundleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing bundle config %s", configPath)
	}

	logger.Info("Loaded bundle config %s (version %s, customer %s)",
		filepath.Base(configPath), doc.Meta.ConfigVersion, doc.Meta.Customer)
	if !doc.Meta.IsBundled() {
		logger.Warn("Config version %q is not the bundled 2.1 format; sheets may not compile", doc.Meta.ConfigVersion)
	}

	b := &Bundle{Doc: doc, Path: configPath, logger: logger}
	b.Sidecar = loadSidecar(configPath, logger)
	return b, nil
}

// loadSidecar deduces the template sidecar path from the config path and
// loads its template_layout section.
func loadSidecar(configPath string, logger *internal.Logger) map[string]any {
	base := filepath.Base(configPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var sidecarName string
	if strings.HasSuffix(stem, "_config") {
		sidecarName = strings.TrimSuffix(stem, "_config") + "_template.json"
	} else {
		sidecarName = stem + "_template.json"
	}

	sidecarPath := filepath.Join(filepath.Dir(configPath), sidecarName)
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		logger.Debug("No template sidecar at %s", sidecarPath)
		return nil
	}

	var doc models.TemplateSidecarDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("Failed to parse template sidecar %s: %v", sidecarPath, err)
		return nil
	}
	logger.Info("Loaded template sidecar %s", sidecarName)
	return doc.TemplateLayout
}

// Customer returns the customer name the document declares.
func (b *Bundle) Customer() string {
	return b.Doc.Meta.Customer
}

// SheetOrder returns the sheets to process, in order.
func (b *Bundle) SheetOrder() []string {
	return b.Doc.Processing.SheetOrder()
}

// Sheet compiles one sheet's configuration into domain types. Unknown
// sheet names and structurally invalid layouts are errors; missing styling
// compiles to an empty registry, which the builders survive with warnings.
func (b *Bundle) Sheet(name string) (*SheetBundle, error) {
	layoutDoc, ok := b.Doc.Layout[name]
	if !ok {
		return nil, errors.NotFound("layout bundle for sheet " + name)
	}

	compiled, err := compileLayout(layoutDoc)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling layout for sheet %s", name)
	}

	sb := &SheetBundle{
		Name:       name,
		DataSource: b.Doc.Processing.DataSource(name),
		Layout:     compiled,
		Styles:     compileStyles(b.Doc.Styling[name]),
		Mappings:   layoutDoc.DataFlow.Mappings,
		Static:     compileStatic(layoutDoc.Content),
	}
	if sb.Styles.IsEmpty() {
		b.logger.Warn("Sheet %s has no styling bundle; cells will render unstyled", name)
	}
	return sb, nil
}

// Data returns the data bundle section for one sheet, nil when absent.
func (b *Bundle) Data(sheet string) map[string]any {
	if section, ok := b.Doc.Data[sheet]; ok {
		return section
	}
	return nil
}
