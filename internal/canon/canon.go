// Package canon enforces the one-true-shape rule on the tabular IR: tidy
// tables, lowercase column names, year as a value and never a header, unique
// keys, numeric-only parameter columns. It is the last gate before external
// emission and has no dependency on how the IR was produced; lowered and
// hand-constructed IR are validated identically.
package canon

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mkarlsen/emtab/internal/diag"
	"github.com/mkarlsen/emtab/internal/ir"
)

// Options configures validation. Strict turns incomplete year coverage from
// a warning into a failure.
type Options struct {
	Strict bool
}

// columnPattern is the permitted column-name shape.
var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// yearPattern flags bare four-digit years used as column names, the
// signature of a forbidden wide pivot.
var yearPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Validate applies every shape rule to every table and returns all findings.
// Diagnostics are collected per table; no rule stops at the first failure.
func Validate(r *ir.IR, opts Options) []diag.Diagnostic {
	regions := make(map[string]bool, len(r.Regions))
	for _, region := range r.Regions {
		regions[strings.ToLower(region)] = true
	}

	var diags []diag.Diagnostic
	for i := range r.Tables {
		diags = append(diags, validateTable(&r.Tables[i], r.Years, regions, opts)...)
	}
	return diags
}

func validateTable(t *ir.Table, years []int, regions map[string]bool, opts Options) []diag.Diagnostic {
	var diags []diag.Diagnostic

	cols := make([]string, 0, len(t.Columns()))
	for name := range t.Columns() {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	for _, name := range cols {
		if !columnPattern.MatchString(name) {
			diags = append(diags, diag.Errorf(diag.KindNonCanonicalColumn, diag.CodeNonCanonicalColumn,
				t.Name, name, "column name must match %s", columnPattern))
		}
		if yearPattern.MatchString(name) {
			diags = append(diags, diag.Errorf(diag.KindWidePivot, diag.CodeWidePivot,
				t.Name, name, "bare year used as a column name; year must be a column value"))
		}
		if regions[name] {
			diags = append(diags, diag.Errorf(diag.KindWidePivot, diag.CodeWidePivot,
				t.Name, name, "region identifier used as a column name"))
		}
	}

	if t.TimeSeries {
		diags = append(diags, validateYearColumn(t, years)...)
		diags = append(diags, validateYearCoverage(t, years, opts.Strict)...)
	}
	diags = append(diags, validateKeys(t)...)
	diags = append(diags, validateNumeric(t)...)

	return diags
}

// validateYearColumn checks that every row of a time-series table carries an
// integer year. The range check applies only when the document declares a
// year range; presence and integer-ness are checked regardless, since
// externally produced documents may omit the declaration.
func validateYearColumn(t *ir.Table, years []int) []diag.Diagnostic {
	var diags []diag.Diagnostic
	hasRange := len(years) > 0
	var minYear, maxYear int
	if hasRange {
		minYear, maxYear = years[0], years[len(years)-1]
	}

	for i, row := range t.Rows {
		v, ok := row["year"]
		if !ok {
			diags = append(diags, diag.Errorf(diag.KindYearColumn, diag.CodeYearColumn,
				t.Name, "year", "time-series table row %d has no year column", i))
			continue
		}
		year, ok := v.(ir.Int)
		if !ok {
			diags = append(diags, diag.Errorf(diag.KindYearColumn, diag.CodeYearColumn,
				t.Name, "year", "row %d: year must be an integer, got %q", i, v.Literal()))
			continue
		}
		if hasRange && (int(year) < minYear || int(year) > maxYear) {
			diags = append(diags, diag.Errorf(diag.KindYearColumn, diag.CodeYearColumn,
				t.Name, "year", "row %d: year %d outside declared range [%d, %d]", i, year, minYear, maxYear))
		}
	}
	return diags
}

// validateKeys rejects duplicate rows for the same key-column combination.
func validateKeys(t *ir.Table) []diag.Diagnostic {
	if len(t.Keys) == 0 {
		return nil
	}
	var diags []diag.Diagnostic
	seen := make(map[string]bool, len(t.Rows))
	for i, row := range t.Rows {
		key := rowKey(row, t.Keys)
		if seen[key] {
			diags = append(diags, diag.Errorf(diag.KindDuplicateKey, diag.CodeDuplicateKey,
				t.Name, "", "row %d duplicates key (%s)", i, key))
		}
		seen[key] = true
	}
	return diags
}

// validateNumeric enforces numeric-only parameter columns. String markers
// standing in for "interpolate here" are never legal values.
func validateNumeric(t *ir.Table) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, col := range t.Numeric {
		for i, row := range t.Rows {
			v, ok := row[col]
			if !ok {
				continue
			}
			if !ir.Numeric(v) {
				diags = append(diags, diag.Errorf(diag.KindNonNumericParameter, diag.CodeNonNumericParameter,
					t.Name, col, "row %d: parameter value %q is not numeric", i, v.Literal()))
			}
		}
	}
	return diags
}

// validateYearCoverage checks that every model year is present for every key
// combination of a time-series table. A gap is a warning unless strict mode
// is on.
func validateYearCoverage(t *ir.Table, years []int, strict bool) []diag.Diagnostic {
	groupKeys := make([]string, 0, len(t.Keys))
	for _, k := range t.Keys {
		if k != "year" {
			groupKeys = append(groupKeys, k)
		}
	}

	covered := make(map[string]map[int]bool)
	order := make([]string, 0)
	for _, row := range t.Rows {
		key := rowKey(row, groupKeys)
		if covered[key] == nil {
			covered[key] = make(map[int]bool, len(years))
			order = append(order, key)
		}
		if y, ok := row["year"].(ir.Int); ok {
			covered[key][int(y)] = true
		}
	}

	var diags []diag.Diagnostic
	for _, key := range order {
		for _, year := range years {
			if !covered[key][year] {
				d := diag.Errorf(diag.KindIncompleteYearCoverage, diag.CodeIncompleteYearCoverage,
					t.Name, "year", "key (%s) missing model year %d", key, year)
				if !strict {
					d.Severity = diag.SeverityWarning
				}
				diags = append(diags, d)
			}
		}
	}
	return diags
}

func rowKey(row ir.Row, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		if v, ok := row[k]; ok {
			parts[i] = fmt.Sprintf("%s=%s", k, v.Literal())
		} else {
			parts[i] = k + "="
		}
	}
	return strings.Join(parts, ", ")
}
