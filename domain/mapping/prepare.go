package mapping

import (
	"strings"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
	"invoicegen/domain/table"
)

// PrepareRows applies a compiled rule set to one table's raw payload and
// returns id-keyed rows ready for the data table builder.
//
// Two payload shapes are supported. A column-oriented payload is a map of
// column slices ({"po": [..], "item": [..]}); the row count is the longest
// slice. A row-oriented payload is a slice of row maps. Any other shape
// yields no rows.
//
// Formula rules land in the rows as Formula values; the data builder
// type-switches on them and renders cell formulas once row numbers are
// fixed.
func PrepareRows(source any, rules RuleSet, mode layout.Mode) []table.Row {
	var rows []table.Row

	switch src := source.(type) {
	case map[string]any:
		n := 0
		for _, v := range src {
			if list, ok := v.([]any); ok && len(list) > n {
				n = len(list)
			}
		}
		for i := 0; i < n; i++ {
			rows = append(rows, prepareRow(rules, mode, func(key string) (any, bool) {
				list, ok := src[key].([]any)
				if !ok || i >= len(list) {
					return nil, false
				}
				return list[i], true
			}))
		}
	case []any:
		for _, item := range src {
			rowMap, _ := item.(map[string]any)
			rows = append(rows, prepareRow(rules, mode, func(key string) (any, bool) {
				if rowMap == nil {
					return nil, false
				}
				v, ok := rowMap[key]
				return v, ok
			}))
		}
	}

	if sr := rules.StaticRows; sr != nil {
		for len(rows) < len(sr.Values) {
			rows = append(rows, table.Row{})
		}
		for i, v := range sr.Values {
			rows[i][sr.Column] = v
		}
		if sr.Formula != nil {
			for i := len(sr.Values); i < len(rows); i++ {
				if isBlank(rows[i][sr.Column]) {
					rows[i][sr.Column] = *sr.Formula
				}
			}
		}
	}

	for col, f := range rules.Formulas {
		for _, row := range rows {
			row[col] = f
		}
	}

	return rows
}

func prepareRow(rules RuleSet, mode layout.Mode, lookup func(string) (any, bool)) table.Row {
	row := table.Row{}

	for _, rule := range rules.Dynamic {
		direct, fallback := unwrap(rule)

		for _, key := range direct.Keys {
			if v, ok := lookup(key); ok && v != nil {
				row[direct.Column] = v
				break
			}
		}

		if fallback != nil && isBlank(row[direct.Column]) {
			if v, ok := fallback.Resolve(mode); ok {
				row[direct.Column] = v
			}
		}
	}

	for col, v := range rules.Statics {
		if _, exists := row[col]; !exists {
			row[col] = v
		}
	}

	return row
}

func unwrap(rule Rule) (Direct, *WithFallback) {
	switch r := rule.(type) {
	case Direct:
		return r, nil
	case WithFallback:
		d, _ := r.Inner.(Direct)
		return d, &r
	default:
		return Direct{}, nil
	}
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// MergeStaticContent writes decorative labels into the leading rows of one
// column. Labels beyond the prepared row count are dropped rather than
// growing the table; an empty table stays empty.
func MergeStaticContent(rows []table.Row, column core.ColumnID, values []any) {
	if len(rows) == 0 || column == "" {
		return
	}
	for i, v := range values {
		if i >= len(rows) {
			break
		}
		rows[i][column] = v
	}
}

// MissingDescriptionFallback reports whether a description-targeting rule
// exists without any fallback configured. Descriptions feed the leather
// summary fold, so a blank one degrades the footer; callers log this at
// load time.
func (rs RuleSet) MissingDescriptionFallback() bool {
	for _, rule := range rs.Dynamic {
		target := strings.ToLower(string(rule.Target()))
		if !strings.Contains(target, "desc") {
			continue
		}
		_, wrapped := rule.(WithFallback)
		return !wrapped
	}
	return false
}
