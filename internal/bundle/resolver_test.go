package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen/internal/errors"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolve_BundleFolder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "JF", "JF_config.json"), `{}`)
	writeFile(t, filepath.Join(dir, "JF", "JF_template.json"), `{}`)
	writeFile(t, filepath.Join(dir, "JF", "JF.xlsx"), "stub")

	resolver := NewAssetResolver(dir, dir)
	assets, err := resolver.Resolve("/incoming/JF25058.json")
	require.NoError(t, err)

	assert.Equal(t, "/incoming/JF25058.json", assets.DataPath)
	assert.Equal(t, filepath.Join(dir, "JF", "JF_config.json"), assets.ConfigPath)
	assert.Equal(t, filepath.Join(dir, "JF", "JF.xlsx"), assets.TemplatePath)
}

func TestResolve_PrefixedFolderName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "CT_v2", "CT_config.json"), `{}`)
	writeFile(t, filepath.Join(dir, "CT_v2", "CT.xlsx"), "stub")

	resolver := NewAssetResolver(dir, dir)
	assets, err := resolver.Resolve("CT25048E.json")
	require.NoError(t, err)
	assert.Contains(t, assets.ConfigPath, "CT_v2")
}

func TestResolve_IgnoresLockFilesAndSidecars(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "JF", "JF_template.json"), `{}`)
	writeFile(t, filepath.Join(dir, "JF", "~$JF.xlsx"), "lock")

	// Only a sidecar and an editor lock file: not a usable bundle.
	resolver := NewAssetResolver(dir, dir)
	_, err := resolver.Resolve("JF25058.json")
	require.Error(t, err)
	assert.Equal(t, errors.CodeBundleNotFound, errors.GetCode(err))
}

func TestResolve_FlatFiles(t *testing.T) {
	configDir := t.TempDir()
	templateDir := t.TempDir()
	writeFile(t, filepath.Join(configDir, "CT_config.json"), `{}`)
	writeFile(t, filepath.Join(templateDir, "CT.xlsx"), "stub")

	resolver := NewAssetResolver(configDir, templateDir)
	assets, err := resolver.Resolve("CT25048E.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configDir, "CT_config.json"), assets.ConfigPath)
	assert.Equal(t, filepath.Join(templateDir, "CT.xlsx"), assets.TemplatePath)
}

func TestResolve_FlatTemplateNamePeek(t *testing.T) {
	configDir := t.TempDir()
	templateDir := t.TempDir()
	writeFile(t, filepath.Join(configDir, "CT_config.json"),
		`{"_meta": {"template_name": "custom_ct.xlsx"}}`)
	writeFile(t, filepath.Join(templateDir, "custom_ct.xlsx"), "stub")

	resolver := NewAssetResolver(configDir, templateDir)
	assets, err := resolver.Resolve("CT99.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(templateDir, "custom_ct.xlsx"), assets.TemplatePath)
}

func TestResolve_NoSilentFallback(t *testing.T) {
	resolver := NewAssetResolver(t.TempDir(), t.TempDir())
	_, err := resolver.Resolve("ZZ12345.json")
	require.Error(t, err)
	assert.Equal(t, errors.CodeBundleNotFound, errors.GetCode(err))
}

func TestResolve_NoLetterPrefix(t *testing.T) {
	resolver := NewAssetResolver(t.TempDir(), t.TempDir())
	_, err := resolver.Resolve("12345.json")
	require.Error(t, err)
}
