package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicegen/internal/bundle"
)

// captureForReplacement builds a snapshot whose header grid carries the
// placeholder cells the rules target.
func captureForReplacement(t *testing.T, cells map[string]string) *TemplateSnapshot {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	sheet := f.GetSheetName(0)
	for ref, value := range cells {
		require.NoError(t, f.SetCellValue(sheet, ref, value))
	}
	f.SetCellValue(sheet, "A6", "TOTAL:")

	snap, err := CaptureSnapshot(f, sheet, 4, 6)
	require.NoError(t, err)
	return snap
}

func headerValue(snap *TemplateSnapshot, ref string) string {
	cell := snap.cellAt(ref)
	if cell == nil {
		return ""
	}
	return cell.Value
}

func TestApplyReplacements_ExactMatch(t *testing.T) {
	snap := captureForReplacement(t, map[string]string{"B2": "JFINV"})

	rules := []bundle.ReplacementRule{{
		Find:      "JFINV",
		DataPath:  []any{"invoice_info", "inv_no"},
		MatchMode: bundle.MatchExact,
	}}
	data := map[string]any{"invoice_info": map[string]any{"inv_no": "JF-2026-0815"}}

	changes := snap.ApplyReplacements(rules, data)
	require.Len(t, changes, 1)
	assert.Equal(t, "JFINV", changes[0].Term)
	assert.Equal(t, "JF-2026-0815", changes[0].New)
	assert.Equal(t, "B2", changes[0].Location)
	assert.Equal(t, "JF-2026-0815", headerValue(snap, "B2"))
}

func TestApplyReplacements_SubstringRewritesWithinCell(t *testing.T) {
	snap := captureForReplacement(t, map[string]string{"A2": "INV NO: JFINV"})

	rules := []bundle.ReplacementRule{{
		Find:      "JFINV",
		Replace:   "JF-2026-0815",
		MatchMode: bundle.MatchSubstring,
	}}

	changes := snap.ApplyReplacements(rules, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, "INV NO: JF-2026-0815", headerValue(snap, "A2"))
}

func TestApplyReplacements_DateFormatting(t *testing.T) {
	snap := captureForReplacement(t, map[string]string{"C2": "JFTIME"})

	rules := []bundle.ReplacementRule{{
		Find:      "JFTIME",
		DataPath:  []any{"invoice_info", "inv_date"},
		IsDate:    true,
		MatchMode: bundle.MatchExact,
	}}
	data := map[string]any{"invoice_info": map[string]any{"inv_date": "2026-08-15"}}

	changes := snap.ApplyReplacements(rules, data)
	require.Len(t, changes, 1)
	assert.Equal(t, "15/08/2026", headerValue(snap, "C2"))
}

func TestApplyReplacements_MissingDataLeavesPlaceholder(t *testing.T) {
	snap := captureForReplacement(t, map[string]string{"B2": "JFREF"})

	rules := []bundle.ReplacementRule{{
		Find:      "JFREF",
		DataPath:  []any{"invoice_info", "inv_ref"},
		MatchMode: bundle.MatchExact,
	}}

	changes := snap.ApplyReplacements(rules, map[string]any{})
	assert.Empty(t, changes)
	assert.Equal(t, "JFREF", headerValue(snap, "B2"))
}

func TestApplyReplacements_FallbackPath(t *testing.T) {
	snap := captureForReplacement(t, map[string]string{"B2": "JFINV"})

	rules := []bundle.ReplacementRule{{
		Find:         "JFINV",
		DataPath:     []any{"invoice_info", "inv_no"},
		FallbackPath: []any{"processed_tables_data", "1", "col_inv_no", 0},
		MatchMode:    bundle.MatchExact,
	}}
	data := map[string]any{
		"processed_tables_data": map[string]any{
			"1": map[string]any{"col_inv_no": []any{"JF-FALLBACK"}},
		},
	}

	changes := snap.ApplyReplacements(rules, data)
	require.Len(t, changes, 1)
	assert.Equal(t, "JF-FALLBACK", headerValue(snap, "B2"))
}

func TestApplyReplacements_FormulaAtPlaceholder(t *testing.T) {
	snap := captureForReplacement(t, map[string]string{
		"B2": "[[AMOUNT_A]]",
		"B3": "[[AMOUNT_B]]",
		"B4": "[[AMOUNT_TOTAL]]",
	})

	rules := []bundle.ReplacementRule{
		{Find: "[[AMOUNT_A]]", Replace: 100.0, MatchMode: bundle.MatchExact},
		{Find: "[[AMOUNT_B]]", Replace: 250.0, MatchMode: bundle.MatchExact},
		{
			Find:            "[[AMOUNT_TOTAL]]",
			MatchMode:       bundle.MatchExact,
			FormulaTemplate: "{[[AMOUNT_A]]}+{[[AMOUNT_B]]}",
		},
	}

	changes := snap.ApplyReplacements(rules, nil)
	require.Len(t, changes, 3)

	cell := snap.cellAt("B4")
	require.NotNil(t, cell)
	assert.Equal(t, "=B2+B3", cell.Formula)
	assert.Empty(t, cell.Value)
}

func TestApplyReplacements_FormulaWithUnlocatedReferenceSkipped(t *testing.T) {
	snap := captureForReplacement(t, map[string]string{"B4": "[[AMOUNT_TOTAL]]"})

	rules := []bundle.ReplacementRule{{
		Find:            "[[AMOUNT_TOTAL]]",
		MatchMode:       bundle.MatchExact,
		FormulaTemplate: "{[[AMOUNT_A]]}*2",
	}}

	changes := snap.ApplyReplacements(rules, nil)
	assert.Empty(t, changes)
	cell := snap.cellAt("B4")
	require.NotNil(t, cell)
	assert.Equal(t, "[[AMOUNT_TOTAL]]", cell.Value, "unresolvable formula leaves the placeholder")
}
