package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/domain/mapping"
	"invoicegen/domain/style"
	"invoicegen/models"
)

const sampleConfig = `{
  "_meta": {"config_version": "2.1", "customer": "JF", "template_name": "JF.xlsx"},
  "processing": {
    "sheets": ["Invoice", "Packing list"],
    "data_sources": {"Invoice": "aggregation", "Packing list": "processed_tables_multi"}
  },
  "styling_bundle": {
    "Packing list": {
      "columns": {
        "col_po": {"format": "@", "alignment": "center", "width": 12},
        "col_qty": {"format": "#,##0.00", "alignment": "right"}
      },
      "row_contexts": {
        "header": {"bold": true, "font_size": 10, "border_style": "thin"},
        "data": {"font_size": 9, "border_style": "thin", "row_height": 14.5},
        "footer": {"bold": true, "border_style": "thin"}
      }
    }
  },
  "layout_bundle": {
    "Packing list": {
      "structure": {
        "header_row": 5,
        "columns": [
          {"id": "col_static", "header": ""},
          {"id": "col_po", "header": "P.O N°"},
          {"id": "col_pallet", "header": "PALLET", "skip_in_daf": true},
          {"id": "col_weights", "header": "WEIGHT", "children": [
            {"id": "col_net", "header": "NET"},
            {"id": "col_gross", "header": "GROSS"}
          ]},
          {"id": "col_qty", "header": "QUANTITY"}
        ]
      },
      "data_flow": {
        "mappings": {
          "data_map": {
            "po": {"column": "col_po"},
            "pallet": {"column": "col_pallet"}
          }
        }
      },
      "content": {"static": {"col_static": ["MADE IN CAMBODIA"]}},
      "footer": {
        "type": "grand_total",
        "total_text": "TOTAL OF:",
        "total_text_column_id": "col_po",
        "pallet_count_column_id": "col_pallet",
        "sum_column_ids": ["col_net", "col_gross", "col_qty"],
        "merge_rules": [{"start_column_id": "col_po", "colspan": 2}],
        "add_blank_before": true,
        "add_ons": {
          "before_footer": {"enabled": true, "column_id": "col_po", "text": "HS.CODE: 4107.12.00", "merge": 3},
          "weight_summary": {"enabled": true, "label_col_id": "col_po", "value_col_id": "col_net"},
          "leather_summary": {"enabled": true}
        }
      }
    }
  },
  "data_bundle": {},
  "context": {"customer_name": "ACME LEATHER"}
}`

func loadSample(t *testing.T) *Bundle {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "JF_config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	return b
}

func TestLoad_ParsesDocument(t *testing.T) {
	b := loadSample(t)

	assert.Equal(t, "JF", b.Customer())
	assert.Equal(t, []string{"Invoice", "Packing list"}, b.SheetOrder())
	assert.True(t, b.Doc.Meta.IsBundled())
	assert.Nil(t, b.Sidecar)
}

func TestLoad_SidecarPickup(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "JF_config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(sampleConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "JF_template.json"),
		[]byte(`{"template_layout": {"Invoice": {"rows": []}}}`), 0o644))

	b, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, b.Sidecar)
	assert.Contains(t, b.Sidecar, "Invoice")
}

func TestSheet_CompilesLayout(t *testing.T) {
	b := loadSample(t)

	sb, err := b.Sheet("Packing list")
	require.NoError(t, err)

	assert.Equal(t, 5, sb.Layout.HeaderRow)
	assert.True(t, sb.MultiTable())
	assert.Equal(t, "processed_tables_multi", sb.DataSource)

	leaves := sb.Layout.LeafColumns()
	ids := make([]core.ColumnID, 0, len(leaves))
	for _, leaf := range leaves {
		ids = append(ids, leaf.ID)
	}
	assert.Equal(t, []core.ColumnID{"col_static", "col_po", "col_pallet", "col_net", "col_gross", "col_qty"}, ids)

	footer := sb.Layout.Footer
	assert.Equal(t, layout.FooterGrandTotal, footer.Kind)
	assert.Equal(t, "TOTAL OF:", footer.TotalText)
	assert.Equal(t, core.ColumnID("col_pallet"), footer.PalletColumnID)
	assert.True(t, footer.BlankRowBefore)
	assert.True(t, footer.Banner.Enabled)
	assert.Equal(t, 3, footer.Banner.Merge)
	assert.True(t, footer.WeightSummary.Enabled)
	assert.True(t, footer.LeatherSummary.Enabled)
	require.Len(t, footer.MergeRules, 1)
	assert.Equal(t, 2, footer.MergeRules[0].Colspan)

	assert.Equal(t, []core.ColumnID{"col_desc"}, sb.Layout.VerticalMergeColumns)
	assert.Equal(t, []any{"MADE IN CAMBODIA"}, sb.Static["col_static"])
}

func TestSheet_CompilesStyles(t *testing.T) {
	b := loadSample(t)

	sb, err := b.Sheet("Packing list")
	require.NoError(t, err)

	cs, diags := sb.Styles.Resolve("col_po", "header")
	assert.Empty(t, diagsOfProperty(diags, "column"))
	assert.Equal(t, "@", cs.Format)
	assert.True(t, cs.Bold)
	assert.Equal(t, 12.0, cs.Width)

	data, _ := sb.Styles.Resolve("col_qty", "data")
	assert.Equal(t, "#,##0.00", data.Format)
	assert.Equal(t, 14.5, data.RowHeight)
}

func TestSheet_UnknownName(t *testing.T) {
	b := loadSample(t)
	_, err := b.Sheet("Nope")
	require.Error(t, err)
}

func TestSheetBundle_RulesPerMode(t *testing.T) {
	b := loadSample(t)
	sb, err := b.Sheet("Packing list")
	require.NoError(t, err)

	normal := sb.Rules(layout.Mode{})
	targetsNormal := ruleTargets(normal)
	assert.Contains(t, targetsNormal, core.ColumnID("col_pallet"))

	// DAF removes col_pallet, and its mapping rule disappears with it.
	daf := sb.Rules(layout.Mode{DAF: true})
	targetsDAF := ruleTargets(daf)
	assert.NotContains(t, targetsDAF, core.ColumnID("col_pallet"))
	assert.Contains(t, targetsDAF, core.ColumnID("col_po"))
}

func TestCompileLayout_RejectsInvalid(t *testing.T) {
	var doc models.SheetLayoutDoc
	require.NoError(t, json.Unmarshal([]byte(`{"structure": {"header_row": 5, "columns": []}}`), &doc))

	_, err := compileLayout(doc)
	require.Error(t, err)
}

func ruleTargets(rs mapping.RuleSet) map[core.ColumnID]bool {
	targets := make(map[core.ColumnID]bool)
	for _, rule := range rs.Dynamic {
		targets[rule.Target()] = true
	}
	return targets
}

func diagsOfProperty(diags []style.Diagnostic, property string) []style.Diagnostic {
	var matched []style.Diagnostic
	for _, d := range diags {
		if d.Property == property {
			matched = append(matched, d)
		}
	}
	return matched
}
