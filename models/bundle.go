package models

import "strings"

// BundleDocument is the root of a bundled workbook configuration (the
// "v2.1" single-file format). One document describes everything needed to
// render a customer's workbook: which sheets to process, how each is laid
// out and styled, and the replacement context.
type BundleDocument struct {
	Meta       BundleMeta                 `json:"_meta"`
	Processing ProcessingConfig           `json:"processing"`
	Styling    map[string]SheetStylingDoc `json:"styling_bundle"`
	Layout     map[string]SheetLayoutDoc  `json:"layout_bundle"`
	Data       map[string]map[string]any  `json:"data_bundle"`
	Context    ContextConfig              `json:"context"`
	Features   map[string]bool            `json:"features"`
}

// BundleMeta carries document-level metadata.
type BundleMeta struct {
	ConfigVersion string `json:"config_version"`
	Customer      string `json:"customer"`
	TemplateName  string `json:"template_name"`
}

// IsBundled reports whether the document declares the bundled format
// version this engine understands.
func (m BundleMeta) IsBundled() bool {
	return strings.HasPrefix(m.ConfigVersion, "2.1")
}

// ProcessingConfig names the sheets to render, in order, and the data
// source type backing each one. Older documents used processing_order and
// sheet_processing_types for the same information; both spellings load.
type ProcessingConfig struct {
	Sheets               []string          `json:"sheets"`
	ProcessingOrder      []string          `json:"processing_order"`
	DataSources          map[string]string `json:"data_sources"`
	SheetProcessingTypes map[string]string `json:"sheet_processing_types"`
}

// SheetOrder returns the sheets to process, honoring the legacy alias.
func (p ProcessingConfig) SheetOrder() []string {
	if len(p.Sheets) > 0 {
		return p.Sheets
	}
	return p.ProcessingOrder
}

// DataSource returns the data source type for a sheet, empty when the
// sheet is not configured.
func (p ProcessingConfig) DataSource(sheet string) string {
	if src, ok := p.DataSources[sheet]; ok {
		return src
	}
	return p.SheetProcessingTypes[sheet]
}

// SheetStylingDoc is one sheet's styling block: column-owned properties
// keyed by column id and decoration layers keyed by row context name.
type SheetStylingDoc struct {
	Columns     map[string]ColumnStyleDoc     `json:"columns"`
	RowContexts map[string]RowContextStyleDoc `json:"row_contexts"`
}

// ColumnStyleDoc holds the properties a column owns in every row context.
type ColumnStyleDoc struct {
	Format            string  `json:"format"`
	Alignment         string  `json:"alignment"`
	VerticalAlignment string  `json:"vertical_alignment"`
	Width             float64 `json:"width"`
	WrapText          bool    `json:"wrap_text"`
}

// RowContextStyleDoc holds the decoration layer one row context applies on
// top of the column layer.
type RowContextStyleDoc struct {
	Bold        bool    `json:"bold"`
	Italic      bool    `json:"italic"`
	FontSize    float64 `json:"font_size"`
	FontName    string  `json:"font_name"`
	FillColor   string  `json:"fill_color"`
	BorderStyle string  `json:"border_style"`
	RowHeight   float64 `json:"row_height"`
}

// SheetLayoutDoc is one sheet's layout block.
type SheetLayoutDoc struct {
	Structure  StructureDoc   `json:"structure"`
	DataFlow   DataFlowDoc    `json:"data_flow"`
	Content    ContentDoc     `json:"content"`
	Footer     FooterDoc      `json:"footer"`
	Blanks     map[string]any `json:"blanks"`
	MergeRules map[string]any `json:"merge_rules"`
}

// StructureDoc describes the header grid: the template row the header
// starts on and the column tree.
type StructureDoc struct {
	HeaderRow int         `json:"header_row"`
	Columns   []ColumnDoc `json:"columns"`
}

// ColumnDoc is one node of the column tree. Parents with Children span
// them in the first header row; leaves carry the skip flags that drive
// mode-dependent removal.
type ColumnDoc struct {
	ID           string      `json:"id"`
	Header       string      `json:"header"`
	Rowspan      int         `json:"rowspan"`
	Colspan      int         `json:"colspan"`
	Children     []ColumnDoc `json:"children"`
	SkipInDAF    bool        `json:"skip_in_daf"`
	SkipInCustom bool        `json:"skip_in_custom"`
}

// DataFlowDoc carries the raw mapping block. Rules are free-form by
// design; mapping.Compile gives them types at load time.
type DataFlowDoc struct {
	Mappings map[string]any `json:"mappings"`
}

// ContentDoc carries decorative static content, keyed by column id.
type ContentDoc struct {
	Static map[string][]any `json:"static"`
}

// FooterDoc is one sheet's footer block.
type FooterDoc struct {
	Type                string           `json:"type"`
	TotalText           string           `json:"total_text"`
	TotalTextColumnID   string           `json:"total_text_column_id"`
	PalletCountColumnID string           `json:"pallet_count_column_id"`
	SumColumnIDs        []string         `json:"sum_column_ids"`
	MergeRules          []FooterMergeDoc `json:"merge_rules"`
	AddBlankBefore      bool             `json:"add_blank_before"`
	AddOns              *FooterAddOnsDoc `json:"add_ons"`
}

// FooterMergeDoc is one manual merge span in the footer row.
type FooterMergeDoc struct {
	StartColumnID string `json:"start_column_id"`
	Colspan       int    `json:"colspan"`
}

// FooterAddOnsDoc groups the optional rows around the main footer.
type FooterAddOnsDoc struct {
	BeforeFooter   *BannerDoc         `json:"before_footer"`
	WeightSummary  *WeightSummaryDoc  `json:"weight_summary"`
	LeatherSummary *LeatherSummaryDoc `json:"leather_summary"`
}

// BannerDoc is a single text row placed before the footer. Merge is the
// total number of columns the text cell spans, zero for no merge.
type BannerDoc struct {
	Enabled  bool   `json:"enabled"`
	ColumnID string `json:"column_id"`
	Text     string `json:"text"`
	Merge    int    `json:"merge"`
}

// WeightSummaryDoc enables the net/gross weight rows after the footer.
type WeightSummaryDoc struct {
	Enabled    bool   `json:"enabled"`
	LabelColID string `json:"label_col_id"`
	ValueColID string `json:"value_col_id"`
}

// LeatherSummaryDoc enables the per-type breakdown rows after a grand
// total footer.
type LeatherSummaryDoc struct {
	Enabled bool `json:"enabled"`
}

// ContextConfig is the global replacement context: customer fields used by
// text replacement plus any document-declared replacement rules.
type ContextConfig struct {
	CustomerName    string               `json:"customer_name"`
	CustomerAddress string               `json:"customer_address"`
	Replacements    []ReplacementRuleDoc `json:"replacements"`
}

// ReplacementRuleDoc is one text replacement rule. Find is matched per
// cell under MatchMode (exact or substring). Replace carries a literal
// substitution; DataPath walks the invoice payload instead, with
// FallbackPath tried when the primary path yields nothing. IsDate formats
// the substituted value as a date cell. FormulaTemplate turns the rule
// into a formula placed at the found cell, with {[[KEY]]} references
// resolved to the locations of other placeholders.
type ReplacementRuleDoc struct {
	Find            string `json:"find"`
	Replace         any    `json:"replace"`
	DataPath        []any  `json:"data_path"`
	FallbackPath    []any  `json:"fallback_path"`
	MatchMode       string `json:"match_mode"`
	IsDate          bool   `json:"is_date"`
	FormulaTemplate string `json:"formula_template"`
}

// TemplateSidecarDoc is the root of a sibling {name}_template.json file
// holding a JSON reconstruction of the decorative template regions.
type TemplateSidecarDoc struct {
	TemplateLayout map[string]any `json:"template_layout"`
}
