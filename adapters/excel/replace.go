package excel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"invoicegen/internal/bundle"
)

// outputDateLayout is the display format for date replacements.
const outputDateLayout = "02/01/2006"

// formulaRefPattern matches {[[KEY]]} references inside a formula
// template; the inner [[KEY]] is the find text of another rule whose
// located cell supplies the coordinate.
var formulaRefPattern = regexp.MustCompile(`\{(\[\[[A-Za-z0-9_]+\]\])\}`)

// ReplacementChange records one applied substitution for the session log.
type ReplacementChange struct {
	Original string `json:"original"`
	New      string `json:"new"`
	Term     string `json:"term"`
	Location string `json:"location"`
}

// ApplyReplacements runs the rule set over the captured decorative grids
// in two passes. Pass one walks header then footer cells in capture
// order, remembers where each rule's find text sits, and applies the
// plain substitutions: exact rules replace the whole cell, substring
// rules rewrite within it, and any rewrite other than a formatted date
// resets the cell's number format to General so leftover numeric formats
// never mangle the new text. Pass two places formula rules at their own
// placeholder's cell, resolving {[[KEY]]} references against the
// locations found in pass one. The returned log lists every change in
// application order.
func (s *TemplateSnapshot) ApplyReplacements(rules []bundle.ReplacementRule, data map[string]any) []ReplacementChange {
	if len(rules) == 0 {
		return nil
	}

	var changes []ReplacementChange
	locations := make(map[string]string)

	for _, grid := range [][]CapturedCell{s.Header, s.Footer} {
		for i := range grid {
			cell := &grid[i]
			if !cell.isText() {
				continue
			}
			trimmed := strings.TrimSpace(cell.Value)
			if trimmed == "" {
				continue
			}

			for _, rule := range rules {
				if _, seen := locations[rule.Find]; !seen && trimmed == rule.Find {
					locations[rule.Find] = s.cellRef(cell)
				}
			}

			for _, rule := range rules {
				if rule.FormulaTemplate != "" {
					continue
				}
				if change, ok := s.applyRule(cell, rule, trimmed, data); ok {
					changes = append(changes, change)
					break
				}
			}
		}
	}

	for _, rule := range rules {
		if rule.FormulaTemplate == "" {
			continue
		}
		if change, ok := s.applyFormulaRule(rule, locations); ok {
			changes = append(changes, change)
		}
	}

	if len(changes) > 0 {
		s.logger.Info("Applied %d text replacements on %s", len(changes), s.Sheet)
	}
	return changes
}

// applyRule applies one plain rule to one cell, reporting whether it
// matched and changed anything.
func (s *TemplateSnapshot) applyRule(cell *CapturedCell, rule bundle.ReplacementRule, trimmed string, data map[string]any) (ReplacementChange, bool) {
	exact := rule.MatchMode == bundle.MatchExact
	if exact {
		if trimmed != rule.Find {
			return ReplacementChange{}, false
		}
	} else if !strings.Contains(cell.Value, rule.Find) {
		return ReplacementChange{}, false
	}

	value, ok := s.resolveReplacement(rule, data)
	if !ok {
		return ReplacementChange{}, false
	}
	text := renderReplacement(rule, value)

	original := cell.Value
	var updated string
	var formatChanged bool
	if exact {
		updated = text
		formatChanged = !rule.IsDate
	} else {
		updated = strings.ReplaceAll(cell.Value, rule.Find, text)
		formatChanged = true
	}
	if updated == original {
		return ReplacementChange{}, false
	}

	cell.Value = updated
	cell.Type = excelize.CellTypeInlineString
	if formatChanged {
		cell.StyleID = s.generalFormatStyle(cell.StyleID)
	}

	return ReplacementChange{
		Original: original,
		New:      updated,
		Term:     rule.Find,
		Location: s.cellRef(cell),
	}, true
}

// applyFormulaRule writes a formula at the rule's own placeholder cell.
// Every {[[KEY]]} reference must have been located in pass one; a missing
// target or reference skips the rule with a warning.
func (s *TemplateSnapshot) applyFormulaRule(rule bundle.ReplacementRule, locations map[string]string) (ReplacementChange, bool) {
	target, ok := locations[rule.Find]
	if !ok {
		s.logger.Warn("Formula replacement %q has no placeholder cell on %s; skipped", rule.Find, s.Sheet)
		return ReplacementChange{}, false
	}

	formula := rule.FormulaTemplate
	resolved := true
	for _, match := range formulaRefPattern.FindAllStringSubmatch(formula, -1) {
		ref, found := locations[match[1]]
		if !found {
			s.logger.Warn("Formula replacement %q references unlocated placeholder %q; skipped", rule.Find, match[1])
			resolved = false
			break
		}
		formula = strings.ReplaceAll(formula, match[0], ref)
	}
	if !resolved {
		return ReplacementChange{}, false
	}
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}

	cell := s.cellAt(target)
	if cell == nil {
		return ReplacementChange{}, false
	}
	original := cell.Value
	cell.Value = ""
	cell.Formula = formula

	return ReplacementChange{
		Original: original,
		New:      formula,
		Term:     rule.Find,
		Location: target,
	}, true
}

// resolveReplacement produces the substitution value: the data path first,
// then the fallback path with a warning, then the literal. A rule whose
// paths all come up empty leaves the placeholder in place.
func (s *TemplateSnapshot) resolveReplacement(rule bundle.ReplacementRule, data map[string]any) (any, bool) {
	if len(rule.DataPath) > 0 {
		if v := bundle.LookupPath(data, rule.DataPath); v != nil && v != "" {
			return v, true
		}
		if len(rule.FallbackPath) > 0 {
			if v := bundle.LookupPath(data, rule.FallbackPath); v != nil && v != "" {
				s.logger.Warn("Replacement %q resolved through its fallback data path", rule.Find)
				return v, true
			}
		}
		if rule.Replace != nil {
			return rule.Replace, true
		}
		s.logger.Warn("No data found for replacement %q; placeholder left in place", rule.Find)
		return nil, false
	}
	if rule.Replace != nil {
		return rule.Replace, true
	}
	return nil, false
}

// renderReplacement turns a resolved value into the substitution text,
// formatting dates as dd/mm/yyyy.
func renderReplacement(rule bundle.ReplacementRule, value any) string {
	if rule.IsDate {
		return formatDateValue(value)
	}
	return stringifyValue(value)
}

// formatDateValue renders serial numbers, time values and common date
// strings as dd/mm/yyyy, passing anything unrecognized through untouched.
func formatDateValue(value any) string {
	switch v := value.(type) {
	case time.Time:
		return v.Format(outputDateLayout)
	case float64:
		if t, err := excelize.ExcelDateToTime(v, false); err == nil {
			return t.Format(outputDateLayout)
		}
	case string:
		if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 59 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.Format(outputDateLayout)
			}
		}
		for _, layout := range []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05", "02-01-2006"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.Format(outputDateLayout)
			}
		}
		return v
	}
	return stringifyValue(value)
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// generalFormatStyle derives a copy of a captured style with the number
// format reset to General, caching per source id. Replaced placeholders
// keep their font and borders but drop formats meant for the original
// numeric content.
func (s *TemplateSnapshot) generalFormatStyle(styleID int) int {
	if styleID == 0 {
		return 0
	}
	if derived, ok := s.generalized[styleID]; ok {
		return derived
	}
	st, err := s.file.GetStyle(styleID)
	if err != nil || st == nil {
		return styleID
	}
	st.NumFmt = 0
	st.CustomNumFmt = nil
	derived, err := s.file.NewStyle(st)
	if err != nil {
		s.logger.Warn("Failed to derive General-format style from id %d: %v", styleID, err)
		return styleID
	}
	s.generalized[styleID] = derived
	return derived
}

// cellRef renders a captured cell's template position as Sheet!A1.
func (s *TemplateSnapshot) cellRef(cell *CapturedCell) string {
	ref, err := excelize.CoordinatesToCellName(cell.Col, cell.Row)
	if err != nil {
		return ""
	}
	return ref
}

// cellAt finds the captured cell at an A1 reference, searching the header
// grid first.
func (s *TemplateSnapshot) cellAt(ref string) *CapturedCell {
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return nil
	}
	for _, grid := range [][]CapturedCell{s.Header, s.Footer} {
		for i := range grid {
			if grid[i].Row == row && grid[i].Col == col {
				return &grid[i]
			}
		}
	}
	return nil
}

func (c CapturedCell) isText() bool {
	switch c.Type {
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeBool, excelize.CellTypeError:
		return false
	}
	return c.Formula == ""
}
