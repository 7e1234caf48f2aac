package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen/domain/layout"
	"invoicegen/models"
)

func findRule(rules []ReplacementRule, find string) *ReplacementRule {
	for i := range rules {
		if rules[i].Find == find {
			return &rules[i]
		}
	}
	return nil
}

func TestBuildReplacementRules_Standard(t *testing.T) {
	rules := BuildReplacementRules(layout.Mode{}, models.ContextConfig{})

	inv := findRule(rules, "JFINV")
	require.NotNil(t, inv)
	assert.Equal(t, MatchExact, inv.MatchMode)
	assert.Equal(t, []any{"invoice_info", "inv_no"}, inv.DataPath)
	assert.Equal(t, []any{"processed_tables_data", "1", "col_inv_no", 0}, inv.FallbackPath)

	date := findRule(rules, "JFTIME")
	require.NotNil(t, date)
	assert.True(t, date.IsDate)

	// No DAF rewrites outside DAF mode.
	assert.Nil(t, findRule(rules, "PORT KLANG"))
}

func TestBuildReplacementRules_DAF(t *testing.T) {
	rules := BuildReplacementRules(layout.Mode{DAF: true}, models.ContextConfig{})

	port := findRule(rules, "PORT KLANG")
	require.NotNil(t, port)
	assert.Equal(t, "BAVET", port.Replace)
	assert.Equal(t, MatchExact, port.MatchMode)

	fca := findRule(rules, "FCA")
	require.NotNil(t, fca)
	assert.Equal(t, "DAF", fca.Replace)
	assert.Equal(t, MatchSubstring, fca.MatchMode)
}

func TestBuildReplacementRules_CustomerOverrides(t *testing.T) {
	ctx := models.ContextConfig{
		CustomerName: "ACME LEATHER",
		Replacements: []models.ReplacementRuleDoc{
			{Find: "OLD TERM", Replace: "NEW TERM"},
		},
	}
	rules := BuildReplacementRules(layout.Mode{}, ctx)

	// The literal customer rule comes after the data-path rule so it wins
	// during sequential application.
	var last *ReplacementRule
	for i := range rules {
		if rules[i].Find == "[[CUSTOMER_NAME]]" {
			last = &rules[i]
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, "ACME LEATHER", last.Replace)

	custom := findRule(rules, "OLD TERM")
	require.NotNil(t, custom)
	assert.Equal(t, MatchSubstring, custom.MatchMode, "document rules default to substring matching")
}

func TestLookupPath(t *testing.T) {
	data := map[string]any{
		"invoice_info": map[string]any{"inv_no": "JF25058"},
		"processed_tables_data": map[string]any{
			"1": map[string]any{
				"col_inv_no": []any{"JF25058-A", "JF25058-B"},
			},
		},
	}

	assert.Equal(t, "JF25058", LookupPath(data, []any{"invoice_info", "inv_no"}))
	assert.Equal(t, "JF25058-A", LookupPath(data, []any{"processed_tables_data", "1", "col_inv_no", 0}))
	// JSON-decoded paths carry numbers as float64.
	assert.Equal(t, "JF25058-B", LookupPath(data, []any{"processed_tables_data", "1", "col_inv_no", float64(1)}))
	assert.Nil(t, LookupPath(data, []any{"invoice_info", "missing"}))
	assert.Nil(t, LookupPath(data, []any{"processed_tables_data", "1", "col_inv_no", 9}))
	assert.Nil(t, LookupPath(data, []any{"invoice_info", "inv_no", "deeper"}))
}
