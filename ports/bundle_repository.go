package ports

// BundleAssets holds the resolved file paths backing one generation run.
type BundleAssets struct {
	DataPath     string
	ConfigPath   string
	TemplatePath string
}

// BundleRepository resolves an invoice identifier (or input data path) to
// the config document and workbook template that render it. Resolution is
// strict: an identifier matching no bundle is an error, never a fallback.
type BundleRepository interface {
	Resolve(dataPath string) (BundleAssets, error)
}
