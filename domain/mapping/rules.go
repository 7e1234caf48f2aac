// Package mapping compiles the mapping block of a sheet bundle into typed
// rules and applies them to raw table payloads, producing the id-keyed rows
// the data table builder writes. Rules are resolved once at bundle load;
// row preparation never re-inspects raw config maps.
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"invoicegen/domain/core"
	"invoicegen/domain/layout"
)

// ColStatic is the reserved column that carries decorative static labels.
// It never participates in auto-mapping and its data cells draw side
// borders only.
const ColStatic core.ColumnID = "col_static"

// Rule is one compiled column mapping. Exactly one variant applies per
// rule; the sealed set keeps row preparation a type switch instead of a
// key-presence dance over raw maps.
type Rule interface {
	// Target is the column the rule writes to.
	Target() core.ColumnID

	isRule()
}

// Direct copies a value out of the source payload. Keys holds every lookup
// candidate in priority order: configured source_value/source_key first,
// then the target column id, then the rule's own key in the mapping block.
// The first key present in the source wins.
type Direct struct {
	Column core.ColumnID
	Keys   []string
}

func (d Direct) Target() core.ColumnID { return d.Column }
func (Direct) isRule()                 {}

// Static pins a fixed value into the column for rows that produced none.
type Static struct {
	Column core.ColumnID
	Value  any
}

func (s Static) Target() core.ColumnID { return s.Column }
func (Static) isRule()                 {}

// Formula writes a spreadsheet formula instead of a literal. Template
// carries {col_ref_N} placeholders for the Nth input column and {row} for
// the destination row; Instantiate turns it into a cell formula once the
// header geometry is known.
type Formula struct {
	Column   core.ColumnID
	Template string
	Inputs   []core.ColumnID
}

func (f Formula) Target() core.ColumnID { return f.Column }
func (Formula) isRule()                 {}

// Instantiate renders the formula for one destination row. Input columns
// missing from the header leave their placeholder untouched, matching the
// template so the defect is visible in the output instead of silently
// collapsing to a broken reference.
func (f Formula) Instantiate(header layout.HeaderInfo, row int) string {
	s := f.Template
	for i, id := range f.Inputs {
		col, ok := header.Column(id)
		if !ok {
			continue
		}
		s = strings.ReplaceAll(s, fmt.Sprintf("{col_ref_%d}", i), layout.ColumnLetter(col))
	}
	s = strings.ReplaceAll(s, "{row}", fmt.Sprintf("%d", row))
	if !strings.HasPrefix(s, "=") {
		s = "=" + s
	}
	return s
}

// Fallback is an optional substitute value. Presence of the config key
// matters independently of the value, so the zero Fallback means "key
// absent", not "fall back to nil".
type Fallback struct {
	Value any
	Set   bool
}

// WithFallback wraps a rule with mode-aware substitutes applied when the
// inner rule yields nil or an empty string. OnDAF answers in DAF mode,
// OnNone otherwise; Always covers both modes; a non-nil OnNone is the last
// resort even under DAF.
type WithFallback struct {
	Inner  Rule
	OnNone Fallback
	OnDAF  Fallback
	Always Fallback
}

func (w WithFallback) Target() core.ColumnID { return w.Inner.Target() }
func (WithFallback) isRule()                 {}

// Resolve picks the substitute for the given mode. ok is false when no
// fallback applies and the blank value should stand.
func (w WithFallback) Resolve(mode layout.Mode) (any, bool) {
	if mode.DAF {
		if w.OnDAF.Set {
			return w.OnDAF.Value, true
		}
	} else if w.OnNone.Set {
		return w.OnNone.Value, true
	}
	if w.Always.Set {
		return w.Always.Value, true
	}
	if w.OnNone.Set && w.OnNone.Value != nil {
		return w.OnNone.Value, true
	}
	return nil, false
}

// StaticRows pins fixed labels at the top of one column and optionally
// runs a formula down the remainder of that column.
type StaticRows struct {
	Column  core.ColumnID
	Values  []any
	Formula *Formula
}

// RuleSet is the compiled mapping block for one sheet in one mode. Rules
// targeting columns absent from the mode-filtered layout are dropped at
// compile time, so preparation never writes to a removed column.
type RuleSet struct {
	// Dynamic rules in deterministic (sorted key) order. Each is a Direct
	// or a WithFallback-wrapped Direct.
	Dynamic []Rule

	// Statics fill columns that produced no value, keyed by target.
	Statics map[core.ColumnID]any

	// Formulas replace whatever the dynamic pass produced for the column.
	Formulas map[core.ColumnID]Formula

	// StaticRows is the optional initial label block, nil when unset.
	StaticRows *StaticRows

	// Uncovered reports mapping rules whose target column is not in the
	// layout; callers surface these as warnings.
	Uncovered []core.ColumnID
}

// Compile interprets a raw mapping block against the leaf columns that
// survived mode filtering. Every column id not claimed by a rule (except
// col_static) gets an auto-mapped Direct rule keyed by its own id, so
// payloads whose keys match column ids need no mapping at all.
func Compile(raw map[string]any, columns []core.ColumnID) RuleSet {
	rs := RuleSet{
		Statics:  make(map[core.ColumnID]any),
		Formulas: make(map[core.ColumnID]Formula),
	}

	known := make(map[core.ColumnID]bool, len(columns))
	for _, id := range columns {
		known[id] = true
	}
	covered := make(map[core.ColumnID]bool)

	// Nested data_map blocks and top-level rules compile identically; the
	// nesting only marks the sheet as table-driven in the source config.
	flat := make(map[string]any, len(raw))
	for key, val := range raw {
		if key == "data_map" {
			if nested, ok := val.(map[string]any); ok {
				for k, v := range nested {
					flat[k] = v
				}
			}
			continue
		}
		flat[key] = val
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rule, ok := flat[key].(map[string]any)
		if !ok {
			// Shorthand form: the key is the target column and the string
			// value is the source key to read.
			if src, isStr := flat[key].(string); isStr {
				target := core.ColumnID(key)
				covered[target] = true
				if !known[target] {
					rs.Uncovered = append(rs.Uncovered, target)
					continue
				}
				rs.Dynamic = append(rs.Dynamic, Direct{Column: target, Keys: dedupe([]string{src, key})})
			}
			continue
		}

		if ruleType(rule) == "initial_static_rows" {
			compileStaticRows(&rs, rule, known)
			continue
		}

		target := targetColumn(rule)
		if target != "" {
			covered[target] = true
		}

		switch {
		case ruleType(rule) == "formula":
			if !known[target] {
				rs.Uncovered = append(rs.Uncovered, target)
				continue
			}
			rs.Formulas[target] = Formula{
				Column:   target,
				Template: stringValue(rule["formula_template"]),
				Inputs:   columnIDs(rule["inputs"]),
			}
		case hasKey(rule, "static_value"):
			if !known[target] {
				rs.Uncovered = append(rs.Uncovered, target)
				continue
			}
			rs.Statics[target] = rule["static_value"]
		default:
			d, ok := compileDirect(key, rule, known)
			if !ok {
				if target != "" {
					rs.Uncovered = append(rs.Uncovered, target)
				}
				continue
			}
			rs.Dynamic = append(rs.Dynamic, wrapFallbacks(d, rule))
		}
	}

	// Auto-mapping: uncovered layout columns read the source key equal to
	// their own id.
	for _, id := range columns {
		if covered[id] || id == ColStatic {
			continue
		}
		rs.Dynamic = append(rs.Dynamic, Direct{Column: id, Keys: []string{string(id)}})
	}

	return rs
}

func compileDirect(key string, rule map[string]any, known map[core.ColumnID]bool) (Direct, bool) {
	target := targetColumn(rule)
	if target == "" {
		// A bare rule with no target id cannot address a column.
		return Direct{}, false
	}
	if !known[target] {
		return Direct{}, false
	}

	var lookup []string
	if sv := stringValue(rule["source_value"]); sv != "" {
		lookup = append(lookup, sv)
	}
	if sk := stringValue(rule["source_key"]); sk != "" {
		lookup = append(lookup, sk)
	}
	lookup = append(lookup, string(target))
	if key != "" {
		lookup = append(lookup, key)
	}
	return Direct{Column: target, Keys: dedupe(lookup)}, true
}

func wrapFallbacks(d Direct, rule map[string]any) Rule {
	w := WithFallback{Inner: d}
	if hasKey(rule, "fallback_on_none") {
		w.OnNone = Fallback{Value: rule["fallback_on_none"], Set: true}
	}
	if hasKey(rule, "fallback_on_DAF") {
		w.OnDAF = Fallback{Value: rule["fallback_on_DAF"], Set: true}
	}
	if hasKey(rule, "fallback") {
		w.Always = Fallback{Value: rule["fallback"], Set: true}
	}
	if !w.OnNone.Set && !w.OnDAF.Set && !w.Always.Set {
		return d
	}
	return w
}

func compileStaticRows(rs *RuleSet, rule map[string]any, known map[core.ColumnID]bool) {
	target := core.ColumnID(stringValue(rule["column_header_id"]))
	if target == "" || !known[target] {
		if target != "" {
			rs.Uncovered = append(rs.Uncovered, target)
		}
		return
	}

	sr := &StaticRows{Column: target}
	if vals, ok := rule["values"].([]any); ok {
		sr.Values = append(sr.Values, vals...)
	}
	if tmpl := stringValue(rule["formula_template"]); tmpl != "" {
		sr.Formula = &Formula{
			Column:   target,
			Template: tmpl,
			Inputs:   columnIDs(rule["inputs"]),
		}
	}
	rs.StaticRows = sr
}

func ruleType(rule map[string]any) string {
	return stringValue(rule["type"])
}

func targetColumn(rule map[string]any) core.ColumnID {
	if id := stringValue(rule["id"]); id != "" {
		return core.ColumnID(id)
	}
	return core.ColumnID(stringValue(rule["column"]))
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func columnIDs(v any) []core.ColumnID {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]core.ColumnID, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			ids = append(ids, core.ColumnID(s))
		}
	}
	return ids
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
