package bundle

import (
	"invoicegen/ports"
)

// Repository adapts the asset resolver to the ports.BundleRepository
// interface consumed by the application services.
type Repository struct {
	resolver *AssetResolver
}

// NewRepository creates a bundle repository over the given directories.
func NewRepository(configDir, templateDir string) *Repository {
	return &Repository{resolver: NewAssetResolver(configDir, templateDir)}
}

// Resolve locates the config and template for one input data path.
func (r *Repository) Resolve(dataPath string) (ports.BundleAssets, error) {
	assets, err := r.resolver.Resolve(dataPath)
	if err != nil {
		return ports.BundleAssets{}, err
	}
	return ports.BundleAssets{
		DataPath:     assets.DataPath,
		ConfigPath:   assets.ConfigPath,
		TemplatePath: assets.TemplatePath,
	}, nil
}
