// Package testkit builds the fixtures the engine's tests run against: a
// template workbook with decorative regions, a bundled configuration
// document, and a sample input payload, all shaped like real production
// artifacts.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"invoicegen/models"
)

// Kit hands out fixture builders. Zero value is ready to use.
type Kit struct{}

// NewKit creates a fixture kit.
func NewKit() *Kit {
	return &Kit{}
}

// TemplateOptions shapes the fixture workbook.
type TemplateOptions struct {
	Sheet string

	// HeaderRow is where the table header starts; decorative rows fill
	// 1..HeaderRow-1.
	HeaderRow int

	// DataRows is how many sample data rows sit between header and footer.
	DataRows int

	// FooterText is what the sample footer row leads with. The engine's
	// boundary detection keys on it.
	FooterText string

	// TrailingRows adds signature-style rows under the footer.
	TrailingRows []string
}

// DefaultTemplateOptions mirrors the common packing list shape: four
// decorative rows, the table header on row five, and a sum footer.
func DefaultTemplateOptions() TemplateOptions {
	return TemplateOptions{
		Sheet:        "Packing list",
		HeaderRow:    5,
		DataRows:     2,
		FooterText:   "TOTAL:",
		TrailingRows: []string{"AUTHORIZED SIGNATURE"},
	}
}

// BuildTemplate creates an in-memory workbook with decorative header
// content, a sample table region, and a footer block, on one sheet.
func (k *Kit) BuildTemplate(opts TemplateOptions) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	if opts.Sheet != defaultSheet {
		f.SetSheetName(defaultSheet, opts.Sheet)
	}

	// Decorative header: company banner merged across the top, then
	// invoice metadata lines.
	if err := f.MergeCell(opts.Sheet, "A1", "F1"); err != nil {
		return nil, err
	}
	f.SetCellValue(opts.Sheet, "A1", "ACME LEATHER TRADING CO.")
	f.SetCellValue(opts.Sheet, "A2", "PACKING LIST")
	f.SetCellValue(opts.Sheet, "A3", "INV NO:")
	f.SetCellValue(opts.Sheet, "B3", "JFINV")
	f.SetCellValue(opts.Sheet, "C3", "DATE:")
	f.SetCellValue(opts.Sheet, "D3", "JFTIME")
	f.SetCellValue(opts.Sheet, "A4", "REF:")
	f.SetCellValue(opts.Sheet, "B4", "JFREF")

	// Sample table the engine clears and rebuilds.
	headers := []string{"NO.", "DESCRIPTION", "PCS", "SQFT", "N.W.", "G.W."}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, opts.HeaderRow)
		f.SetCellValue(opts.Sheet, cell, h)
	}
	for r := 0; r < opts.DataRows; r++ {
		row := opts.HeaderRow + 1 + r
		f.SetCellValue(opts.Sheet, fmt.Sprintf("A%d", row), r+1)
		f.SetCellValue(opts.Sheet, fmt.Sprintf("B%d", row), "COW LEATHER")
		f.SetCellValue(opts.Sheet, fmt.Sprintf("C%d", row), 100*(r+1))
		f.SetCellValue(opts.Sheet, fmt.Sprintf("D%d", row), 250.5*float64(r+1))
	}

	footerRow := opts.HeaderRow + 1 + opts.DataRows
	f.SetCellValue(opts.Sheet, fmt.Sprintf("A%d", footerRow), opts.FooterText)
	f.SetCellValue(opts.Sheet, fmt.Sprintf("C%d", footerRow),
		fmt.Sprintf("=SUM(C%d:C%d)", opts.HeaderRow+1, footerRow-1))

	for i, text := range opts.TrailingRows {
		f.SetCellValue(opts.Sheet, fmt.Sprintf("A%d", footerRow+2+i), text)
	}

	return f, nil
}

// BundleDocument returns a complete bundled configuration for the fixture
// template: one sheet, six columns with a DAF-skipped pair, a regular
// footer summing pieces and square feet.
func (k *Kit) BundleDocument(sheet string) models.BundleDocument {
	return models.BundleDocument{
		Meta: models.BundleMeta{
			ConfigVersion: "2.1",
			Customer:      "Acme Leather",
			TemplateName:  "acme_packing.xlsx",
		},
		Processing: models.ProcessingConfig{
			Sheets:      []string{sheet},
			DataSources: map[string]string{sheet: "processed_tables_multi"},
		},
		Styling: map[string]models.SheetStylingDoc{
			sheet: {
				Columns: map[string]models.ColumnStyleDoc{
					"col_no":     {Alignment: "center", Width: 6},
					"col_desc":   {Alignment: "left", Width: 30, WrapText: true},
					"col_pcs":    {Format: "#,##0", Alignment: "center", Width: 10},
					"col_sqft":   {Format: "#,##0.00", Alignment: "center", Width: 12},
					"col_net":    {Format: "#,##0.00", Alignment: "center", Width: 12},
					"col_gross":  {Format: "#,##0.00", Alignment: "center", Width: 12},
					"col_static": {Alignment: "left", Width: 18},
				},
				RowContexts: map[string]models.RowContextStyleDoc{
					"header": {Bold: true, FontSize: 10, BorderStyle: "thin"},
					"data":   {FontSize: 9, BorderStyle: "thin"},
					"footer": {Bold: true, FontSize: 10, BorderStyle: "thin"},
				},
			},
		},
		Layout: map[string]models.SheetLayoutDoc{
			sheet: {
				Structure: models.StructureDoc{
					HeaderRow: 5,
					Columns: []models.ColumnDoc{
						{ID: "col_no", Header: "NO."},
						{ID: "col_desc", Header: "DESCRIPTION"},
						{ID: "col_pcs", Header: "PCS"},
						{ID: "col_sqft", Header: "SQFT"},
						{ID: "col_net", Header: "N.W.", SkipInDAF: true},
						{ID: "col_gross", Header: "G.W.", SkipInDAF: true},
					},
				},
				DataFlow: models.DataFlowDoc{
					Mappings: map[string]any{
						"col_desc":  "item",
						"col_pcs":   "pcs",
						"col_sqft":  "sqft",
						"col_net":   "net",
						"col_gross": "gross",
					},
				},
				Footer: models.FooterDoc{
					Type:                "regular",
					TotalText:           "TOTAL:",
					TotalTextColumnID:   "col_desc",
					PalletCountColumnID: "col_no",
					SumColumnIDs:        []string{"col_pcs", "col_sqft"},
				},
			},
		},
		Context: models.ContextConfig{
			CustomerName: "Acme Leather",
		},
	}
}

// InputData returns a two-table payload matching the fixture bundle.
func (k *Kit) InputData() map[string]any {
	return map[string]any{
		"invoice_info": map[string]any{
			"inv_no":   "JF2024-001",
			"inv_date": "2024-03-15",
			"inv_ref":  "PO-7781",
		},
		"processed_tables_data": map[string]any{
			"1": map[string]any{
				"item":         []any{"COW LEATHER", "BUFFALO LEATHER"},
				"pcs":          []any{120.0, 80.0},
				"sqft":         []any{2400.5, 1600.25},
				"net":          []any{310.0, 205.5},
				"gross":        []any{330.0, 220.0},
				"pallet_count": []any{3.0, 2.0},
				"weight_summary": map[string]any{
					"net":   515.5,
					"gross": 550.0,
				},
			},
			"2": map[string]any{
				"item":         []any{"COW LEATHER"},
				"pcs":          []any{60.0},
				"sqft":         []any{1200.0},
				"net":          []any{150.0},
				"gross":        []any{160.0},
				"pallet_count": []any{1.0},
				"weight_summary": map[string]any{
					"net":   150.0,
					"gross": 160.0,
				},
			},
		},
	}
}

// WriteAssets materializes a full bundle on disk under dir, laid out the
// way the asset resolver expects: the config and template in a folder
// named by the identifier's letter prefix, the input payload beside it.
func (k *Kit) WriteAssets(dir, identifier string) (dataPath, configPath, templatePath string, err error) {
	opts := DefaultTemplateOptions()
	doc := k.BundleDocument(opts.Sheet)

	prefix := identifier
	for i, r := range identifier {
		if r < 'A' || (r > 'Z' && r < 'a') || r > 'z' {
			prefix = identifier[:i]
			break
		}
	}
	bundleDir := filepath.Join(dir, prefix)
	if err = os.MkdirAll(bundleDir, 0o755); err != nil {
		return "", "", "", err
	}

	configPath = filepath.Join(bundleDir, identifier+"_config.json")
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", "", err
	}
	if err = os.WriteFile(configPath, raw, 0o644); err != nil {
		return "", "", "", err
	}

	templatePath = filepath.Join(bundleDir, identifier+".xlsx")
	tmpl, err := k.BuildTemplate(opts)
	if err != nil {
		return "", "", "", err
	}
	if err = tmpl.SaveAs(templatePath); err != nil {
		return "", "", "", err
	}

	dataPath = filepath.Join(dir, identifier+".json")
	payload, err := json.MarshalIndent(k.InputData(), "", "  ")
	if err != nil {
		return "", "", "", err
	}
	if err = os.WriteFile(dataPath, payload, 0o644); err != nil {
		return "", "", "", err
	}

	return dataPath, configPath, templatePath, nil
}
