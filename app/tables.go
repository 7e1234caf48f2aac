package app

import (
	"sort"
	"strconv"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/domain/mapping"
	"invoicegen/domain/table"
	"invoicegen/internal/bundle"
)

// Keys the parser attaches to a table payload alongside its column lists.
const (
	keyPalletCounts   = "pallet_count"
	keyLeatherSummary = "leather_summary"
	keyWeightSummary  = "weight_summary"
	keyPalletTotal    = "pallet_summary_total"
	keyFooterData     = "footer_data"
)

// dataSourceKeys maps a sheet's declared data source to the input payload
// section it reads. Unknown sources fall back to the standard aggregation.
var dataSourceKeys = map[string]string{
	"aggregation":            "standard_aggregation_results",
	"DAF_aggregation":        "standard_aggregation_results",
	"custom_aggregation":     "custom_aggregation_results",
	"processed_tables":       "processed_tables_data",
	"processed_tables_multi": "processed_tables_data",
}

// resolveTables turns one sheet's slice of the input payload into render-
// ready tables. Multi-table sheets get one table per payload key, in
// numeric key order with non-numeric keys trailing; everything else gets
// exactly one.
func resolveTables(sb *bundle.SheetBundle, data map[string]any, mode layout.Mode) []table.ResolvedTable {
	rules := sb.Rules(mode)
	source := sheetDataSource(sb.DataSource, data)

	if sb.MultiTable() {
		src, ok := source.(map[string]any)
		if !ok {
			return nil
		}
		tables := make([]table.ResolvedTable, 0, len(src))
		for _, key := range sortedTableKeys(src) {
			tables = append(tables, buildTable(sb, rules, src[key], mode))
		}
		return tables
	}

	// A single-table sheet reading parser output takes the first table.
	if sb.DataSource == "processed_tables" {
		if src, ok := source.(map[string]any); ok {
			if first, ok := src["1"]; ok {
				source = first
			}
		}
	}
	return []table.ResolvedTable{buildTable(sb, rules, source, mode)}
}

// buildTable prepares one table's rows and lifts the parser's precomputed
// summaries when the payload carries them.
func buildTable(sb *bundle.SheetBundle, rules mapping.RuleSet, payload any, mode layout.Mode) table.ResolvedTable {
	resolved := table.ResolvedTable{
		Rows: mapping.PrepareRows(payload, rules, mode),
	}

	for col, values := range sb.Static {
		mapping.MergeStaticContent(resolved.Rows, col, values)
	}

	src, ok := payload.(map[string]any)
	if !ok {
		return resolved
	}

	if counts, ok := src[keyPalletCounts].([]any); ok {
		resolved.PalletCounts = counts
	}
	if raw, ok := src[keyLeatherSummary].(map[string]any); ok {
		resolved.LeatherSummary = decodeLeatherSummary(raw)
	}
	if raw, ok := src[keyWeightSummary].(map[string]any); ok {
		ws := decodeWeightSummary(raw)
		resolved.WeightSummary = &ws
	}
	if raw, ok := src[keyPalletTotal]; ok {
		total := table.AsInt(raw)
		resolved.PalletTotal = &total
	}
	return resolved
}

// sheetDataSource picks the input section a data source reads from.
func sheetDataSource(dataSource string, data map[string]any) any {
	key, ok := dataSourceKeys[dataSource]
	if !ok {
		key = "standard_aggregation_results"
	}
	return data[key]
}

// globalWeights sums every table's weight summary across the whole input.
// Tables on aggregation sheets carry no weights of their own; the director
// substitutes these totals when a summary folds to zero.
func globalWeights(data map[string]any) table.WeightSummary {
	var total table.WeightSummary

	tables, ok := data["processed_tables_data"].(map[string]any)
	if !ok {
		return total
	}
	for _, raw := range tables {
		payload, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		holder := payload
		if fd, ok := payload[keyFooterData].(map[string]any); ok {
			holder = fd
		}
		if ws, ok := holder[keyWeightSummary].(map[string]any); ok {
			sum := decodeWeightSummary(ws)
			total.Net += sum.Net
			total.Gross += sum.Gross
		}
	}
	return total
}

// sortedTableKeys orders table keys numerically; non-numeric keys sort
// after every numeric one, among themselves lexically.
func sortedTableKeys(tables map[string]any) []string {
	keys := make([]string, 0, len(tables))
	for key := range tables {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(keys[i])
		b, berr := strconv.Atoi(keys[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func decodeWeightSummary(raw map[string]any) table.WeightSummary {
	return table.WeightSummary{
		Net:   table.AsFloat(raw["net"]),
		Gross: table.AsFloat(raw["gross"]),
	}
}

// decodeLeatherSummary reads the parser's flat form: each leather type maps
// to a dict holding "pallet_count" plus per-column sums.
func decodeLeatherSummary(raw map[string]any) table.LeatherSummary {
	summary := table.LeatherSummary{}
	for name, entry := range raw {
		totals := table.LeatherTotals{ColumnSums: make(map[core.ColumnID]float64)}
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for field, value := range fields {
			if field == "pallet_count" {
				totals.PalletCount = table.AsInt(value)
				continue
			}
			totals.ColumnSums[core.ColumnID(field)] += table.AsFloat(value)
		}
		leatherType := table.LeatherCow
		if name == string(table.LeatherBuffalo) {
			leatherType = table.LeatherBuffalo
		}
		summary[leatherType] = totals
	}
	return summary
}
