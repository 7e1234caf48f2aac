package bundle

import (
	"strconv"

	"invoicegen/domain/layout"
	"invoicegen/models"
)

// Match modes for replacement rules. Exact compares the trimmed cell value;
// substring replaces within it.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
)

// ReplacementRule is one compiled text replacement. Replace carries a
// literal substitution; DataPath walks the invoice payload instead, with
// FallbackPath tried when the primary path yields nothing. Rules with a
// FormulaTemplate place a formula at the found cell, resolving {[[KEY]]}
// references to the located positions of other placeholders.
type ReplacementRule struct {
	Find            string
	Replace         any
	DataPath        []any
	FallbackPath    []any
	MatchMode       string
	IsDate          bool
	FormulaTemplate string
}

// BuildReplacementRules assembles the replacement set for one run: the
// standard invoice placeholders, any document-declared rules, and the DAF
// delivery-term rewrites when that mode is active.
func BuildReplacementRules(mode layout.Mode, ctx models.ContextConfig) []ReplacementRule {
	rules := []ReplacementRule{
		{
			Find:         "JFINV",
			DataPath:     []any{"invoice_info", "inv_no"},
			FallbackPath: []any{"processed_tables_data", "1", "col_inv_no", 0},
			MatchMode:    MatchExact,
		},
		{
			Find:         "JFTIME",
			DataPath:     []any{"invoice_info", "inv_date"},
			FallbackPath: []any{"processed_tables_data", "1", "col_inv_date", 0},
			IsDate:       true,
			MatchMode:    MatchExact,
		},
		{
			Find:         "JFREF",
			DataPath:     []any{"invoice_info", "inv_ref"},
			FallbackPath: []any{"processed_tables_data", "1", "col_inv_ref", 0},
			MatchMode:    MatchExact,
		},
		{
			Find:      "[[CUSTOMER_NAME]]",
			DataPath:  []any{"customer_info", "name"},
			MatchMode: MatchExact,
		},
		{
			Find:      "[[CUSTOMER_ADDRESS]]",
			DataPath:  []any{"customer_info", "address"},
			MatchMode: MatchExact,
		},
	}

	if ctx.CustomerName != "" {
		rules = append(rules, ReplacementRule{
			Find: "[[CUSTOMER_NAME]]", Replace: ctx.CustomerName, MatchMode: MatchExact,
		})
	}
	if ctx.CustomerAddress != "" {
		rules = append(rules, ReplacementRule{
			Find: "[[CUSTOMER_ADDRESS]]", Replace: ctx.CustomerAddress, MatchMode: MatchExact,
		})
	}

	for _, doc := range ctx.Replacements {
		rules = append(rules, compileReplacement(doc))
	}

	if mode.DAF {
		rules = append(rules, dafReplacements()...)
	}

	return rules
}

// dafReplacements rewrites delivery locations and terms for DAF shipments.
// The exact rules catch known full-cell spellings; the trailing substring
// rules convert any remaining incoterm mentions.
func dafReplacements() []ReplacementRule {
	exact := []struct{ find, replace string }{
		{"BINH PHUOC", "BAVET"},
		{"BAVET, SVAY RIENG", "BAVET"},
		{"BAVET,SVAY RIENG", "BAVET"},
		{"BAVET, SVAYRIENG", "BAVET"},
		{"BINH DUONG", "BAVET"},
		{"FCA  BAVET,SVAYRIENG", "DAF BAVET"},
		{"FCA: BAVET,SVAYRIENG", "DAF: BAVET"},
		{"DAF  BAVET,SVAYRIENG", "DAF BAVET"},
		{"DAF: BAVET,SVAYRIENG", "DAF: BAVET"},
		{"SVAY RIENG", "BAVET"},
		{"PORT KLANG", "BAVET"},
		{"HCM", "BAVET"},
	}
	substring := []struct{ find, replace string }{
		{"DAP", "DAF"},
		{"FCA", "DAF"},
		{"CIF", "DAF"},
	}

	rules := make([]ReplacementRule, 0, len(exact)+len(substring))
	for _, r := range exact {
		rules = append(rules, ReplacementRule{Find: r.find, Replace: r.replace, MatchMode: MatchExact})
	}
	for _, r := range substring {
		rules = append(rules, ReplacementRule{Find: r.find, Replace: r.replace, MatchMode: MatchSubstring})
	}
	return rules
}

func compileReplacement(doc models.ReplacementRuleDoc) ReplacementRule {
	rule := ReplacementRule{
		Find:            doc.Find,
		Replace:         doc.Replace,
		DataPath:        doc.DataPath,
		FallbackPath:    doc.FallbackPath,
		MatchMode:       doc.MatchMode,
		IsDate:          doc.IsDate,
		FormulaTemplate: doc.FormulaTemplate,
	}
	if rule.MatchMode == "" {
		rule.MatchMode = MatchSubstring
	}
	return rule
}

// LookupPath walks a nested payload of maps and slices. Map levels take
// string keys; slice levels accept integer keys in any of the forms JSON
// decoding produces. A path that runs off the structure returns nil.
func LookupPath(data map[string]any, path []any) any {
	var current any = data
	for _, key := range path {
		switch level := current.(type) {
		case map[string]any:
			k, ok := key.(string)
			if !ok {
				return nil
			}
			current, ok = level[k]
			if !ok {
				return nil
			}
		case []any:
			idx, ok := pathIndex(key)
			if !ok || idx < 0 || idx >= len(level) {
				return nil
			}
			current = level[idx]
		default:
			return nil
		}
	}
	return current
}

func pathIndex(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case float64:
		return int(k), true
	case string:
		idx, err := strconv.Atoi(k)
		return idx, err == nil
	default:
		return 0, false
	}
}
