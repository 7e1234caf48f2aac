// Package bundle locates and loads the per-customer configuration bundles
// that drive workbook generation: the JSON config document, its optional
// template sidecar, and the workbook template the engine renders into.
package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"invoicegen/internal"
	"invoicegen/internal/errors"
	"invoicegen/models"
)

// Assets holds the resolved file paths for one generation run.
type Assets struct {
	DataPath     string
	ConfigPath   string
	TemplatePath string
}

// identifierPrefix extracts the customer code from an invoice identifier:
// the leading letters, so JF25058 resolves through JF and CT25048E
// through CT.
var identifierPrefix = regexp.MustCompile(`^([a-zA-Z]+)`)

// AssetResolver finds the config and template backing an invoice
// identifier. Bundles live one folder per customer code under the config
// dir; flat files beside them cover customers that predate the folder
// convention. There is no default bundle: an identifier that matches
// nothing is an error, never a silent fallback.
type AssetResolver struct {
	configDir   string
	templateDir string
	logger      *internal.Logger
}

// NewAssetResolver creates a resolver over the given directories.
func NewAssetResolver(configDir, templateDir string) *AssetResolver {
	return &AssetResolver{
		configDir:   configDir,
		templateDir: templateDir,
		logger:      internal.DefaultLogger,
	}
}

// Resolve locates the assets for one input data file. The identifier is
// the file stem; its letter prefix selects the customer bundle.
func (r *AssetResolver) Resolve(dataPath string) (Assets, error) {
	stem := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	prefix := identifierPrefix.FindString(stem)
	if prefix == "" {
		return Assets{}, errors.BundleNotFound(stem)
	}

	r.logger.Info("Resolving assets for %q using prefix %q", stem, prefix)

	if assets, ok := r.resolveFromFolder(prefix); ok {
		assets.DataPath = dataPath
		r.logger.Info("Resolved assets from bundle folder: %s", filepath.Dir(assets.ConfigPath))
		return assets, nil
	}

	if assets, ok := r.resolveFlat(prefix); ok {
		assets.DataPath = dataPath
		r.logger.Info("Resolved assets from flat files: %s", assets.ConfigPath)
		return assets, nil
	}

	r.logger.Error("No bundle found for identifier %q (prefix %q) in %s", stem, prefix, r.configDir)
	return Assets{}, errors.BundleNotFound(stem)
}

// resolveFromFolder checks for a per-customer folder: first the exact
// prefix directory, then any directory whose name starts with the prefix
// (JF_v2 style).
func (r *AssetResolver) resolveFromFolder(prefix string) (Assets, bool) {
	if assets, ok := r.assetsInFolder(filepath.Join(r.configDir, prefix)); ok {
		return assets, true
	}

	entries, err := os.ReadDir(r.configDir)
	if err != nil {
		return Assets{}, false
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if assets, ok := r.assetsInFolder(filepath.Join(r.configDir, entry.Name())); ok {
			return assets, true
		}
	}
	return Assets{}, false
}

// assetsInFolder picks the config/template pair out of one folder: the
// last .json that is not a template sidecar, and the last .xlsx that is
// not an editor lock file. Both must be present.
func (r *AssetResolver) assetsInFolder(dir string) (Assets, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Assets{}, false
	}

	var configPath, templatePath string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ".json":
			if !strings.Contains(name, "_template") {
				configPath = filepath.Join(dir, name)
			}
		case ".xlsx":
			if !strings.HasPrefix(name, "~$") {
				templatePath = filepath.Join(dir, name)
			}
		}
	}

	if configPath == "" || templatePath == "" {
		return Assets{}, false
	}
	return Assets{ConfigPath: configPath, TemplatePath: templatePath}, true
}

// resolveFlat checks for standalone prefix-named files in the config dir.
func (r *AssetResolver) resolveFlat(prefix string) (Assets, bool) {
	candidates := []string{
		filepath.Join(r.configDir, prefix+"_bundle_config.json"),
		filepath.Join(r.configDir, prefix+"_config.json"),
		filepath.Join(r.configDir, prefix+".json"),
	}

	var configPath string
	for _, candidate := range candidates {
		if fileExists(candidate) {
			configPath = candidate
			break
		}
	}
	if configPath == "" {
		return Assets{}, false
	}

	templatePath := filepath.Join(r.templateDir, prefix+".xlsx")
	if !fileExists(templatePath) {
		templatePath = r.peekTemplateName(configPath)
	}
	if templatePath == "" || !fileExists(templatePath) {
		return Assets{}, false
	}

	return Assets{ConfigPath: configPath, TemplatePath: templatePath}, true
}

// peekTemplateName reads only the _meta section of a config file to find
// the linked template.
func (r *AssetResolver) peekTemplateName(configPath string) string {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return ""
	}
	var doc struct {
		Meta models.BundleMeta `json:"_meta"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ""
	}
	if doc.Meta.TemplateName == "" {
		return ""
	}
	return filepath.Join(r.templateDir, doc.Meta.TemplateName)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
