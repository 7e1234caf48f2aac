package table

import (
	"fmt"
	"strings"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"

	"gonum.org/v1/gonum/floats"
)

// Calculate folds one table's resolved rows into the FooterData the footer
// builder consumes. It is pure: no sheet access, no logging, no state. Row
// positions derive from the header's second row and the row count alone.
//
// Precomputed summaries on the table are used verbatim; the corresponding
// fold is skipped entirely rather than merged, so parser output always wins
// over re-derivation.
func Calculate(header layout.HeaderInfo, data ResolvedTable) FooterData {
	leather := data.LeatherSummary
	foldLeather := len(leather) == 0
	if foldLeather {
		leather = LeatherSummary{
			LeatherBuffalo: {ColumnSums: make(map[core.ColumnID]float64)},
			LeatherCow:     {ColumnSums: make(map[core.ColumnID]float64)},
		}
	}

	var weight WeightSummary
	foldWeight := data.WeightSummary == nil
	if !foldWeight {
		weight = *data.WeightSummary
	}

	totalPallets := 0
	if data.PalletTotal != nil {
		totalPallets = *data.PalletTotal
	} else {
		counts := make([]float64, len(data.PalletCounts))
		for i, p := range data.PalletCounts {
			counts[i] = float64(AsInt(p))
		}
		totalPallets = int(floats.Sum(counts))
	}

	if foldLeather || foldWeight {
		netID := firstHeaderColumn(header, ColNetWeight, ColNet)
		grossID := firstHeaderColumn(header, ColGrossWeight, ColGross)

		for i, row := range data.Rows {
			if foldWeight {
				if netID != "" {
					if v, ok := row[netID]; ok {
						weight.Net += AsFloat(v)
					}
				}
				if grossID != "" {
					if v, ok := row[grossID]; ok {
						weight.Gross += AsFloat(v)
					}
				}
			}
			if foldLeather {
				accumulateLeather(leather, header, row, i, data.PalletCounts)
			}
		}
	}

	dataStart := header.SecondRow + 1
	dataEnd := dataStart - 1
	if len(data.Rows) > 0 {
		dataEnd = dataStart + len(data.Rows) - 1
	}

	return FooterData{
		FooterRowStart: dataEnd + 1,
		DataStartRow:   dataStart,
		DataEndRow:     dataEnd,
		TotalPallets:   totalPallets,
		LeatherSummary: leather,
		WeightSummary:  weight,
	}
}

// accumulateLeather classifies the row by its description text and adds its
// pallet count plus every numeric column except the description itself.
func accumulateLeather(summary LeatherSummary, header layout.HeaderInfo, row Row, rowIndex int, palletCounts []any) {
	if _, ok := header.Column(ColDescription); !ok {
		return
	}

	target := LeatherCow
	if desc, ok := row[ColDescription]; ok {
		if strings.Contains(strings.ToUpper(asString(desc)), string(LeatherBuffalo)) {
			target = LeatherBuffalo
		}
	}

	totals := summary[target]
	if totals.ColumnSums == nil {
		totals.ColumnSums = make(map[core.ColumnID]float64)
	}

	if rowIndex < len(palletCounts) {
		totals.PalletCount += AsInt(palletCounts[rowIndex])
	}

	for colID, value := range row {
		if colID == ColDescription {
			continue
		}
		if _, ok := header.Column(colID); !ok {
			continue
		}
		totals.ColumnSums[colID] += AsFloat(value)
	}

	summary[target] = totals
}

// firstHeaderColumn returns the first candidate id actually present in the
// header, "" when none are.
func firstHeaderColumn(header layout.HeaderInfo, candidates ...core.ColumnID) core.ColumnID {
	for _, id := range candidates {
		if _, ok := header.Column(id); ok {
			return id
		}
	}
	return ""
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
