package report

import (
	"strings"
)

// Column is a resolved dataset column: its literal header text and its
// position in the header row.
type Column struct {
	Name  string
	Index int
}

// LogicalField is an abstract required input column. Canonical is the name
// matched against headers; Aliases are tried, in order, only when the
// canonical name resolves nothing. When one header could serve two fields,
// the first-declared field wins (callers resolve fields in declaration
// order and exclude already-claimed headers).
type LogicalField struct {
	Canonical string
	Aliases   []string
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Resolve finds the dataset column matching a logical field name. Ranked
// rules: exact normalized equality beats substring containment. A single
// winner at the highest non-empty rank resolves; multiple winners fail with
// AmbiguousColumn; no winner falls through to the next rank and finally to
// ColumnNotFound.
func Resolve(headers []string, field string) (Column, error) {
	return resolveExcluding(headers, field, nil)
}

// ResolveField resolves a logical field, trying aliases after the canonical
// name. The claimed set contains header indexes already bound to
// earlier-declared fields; those headers never match again.
func ResolveField(headers []string, field LogicalField, claimed map[int]bool) (Column, error) {
	col, err := resolveExcluding(headers, field.Canonical, claimed)
	if err == nil {
		return col, nil
	}
	if !IsKind(err, KindColumnNotFound) {
		return Column{}, err
	}
	for _, alias := range field.Aliases {
		col, aliasErr := resolveExcluding(headers, alias, claimed)
		if aliasErr == nil {
			return col, nil
		}
		if !IsKind(aliasErr, KindColumnNotFound) {
			return Column{}, aliasErr
		}
	}
	return Column{}, err
}

func resolveExcluding(headers []string, field string, claimed map[int]bool) (Column, error) {
	want := normalizeHeader(field)

	var exact, partial []Column
	for i, h := range headers {
		if claimed[i] {
			continue
		}
		norm := normalizeHeader(h)
		switch {
		case norm == want:
			exact = append(exact, Column{Name: h, Index: i})
		case strings.Contains(norm, want):
			partial = append(partial, Column{Name: h, Index: i})
		}
	}

	pick := func(matches []Column) (Column, error) {
		if len(matches) == 1 {
			return matches[0], nil
		}
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return Column{}, NewAmbiguousColumn(field, names)
	}

	if len(exact) > 0 {
		return pick(exact)
	}
	if len(partial) > 0 {
		return pick(partial)
	}
	return Column{}, NewColumnNotFound(field)
}

// ResolveKeywords finds the first column whose header contains every
// keyword. The weekly profile uses this for compound headers such as
// "Test Duration" or "Week 3 Max Score".
func ResolveKeywords(headers []string, keywords ...string) (Column, error) {
	for i, h := range headers {
		norm := normalizeHeader(h)
		all := true
		for _, kw := range keywords {
			if !strings.Contains(norm, kw) {
				all = false
				break
			}
		}
		if all {
			return Column{Name: h, Index: i}, nil
		}
	}
	return Column{}, NewColumnNotFound(strings.Join(keywords, " "))
}

// ResolveRelated finds the column sharing a base prefix and ending with the
// given suffix, e.g. prefix "Week 3" and suffix "student score" locating
// "Week 3 Student Score". An exact "<prefix> <suffix>" match wins; otherwise
// the first header ending in the suffix whose leading text matches (or
// contains) the prefix is used.
func ResolveRelated(headers []string, prefix, suffix string) (Column, error) {
	base := normalizeHeader(prefix)
	want := normalizeHeader(suffix)
	exactName := strings.TrimSpace(base + " " + want)

	for i, h := range headers {
		if normalizeHeader(h) == exactName {
			return Column{Name: h, Index: i}, nil
		}
	}

	var fallback *Column
	for i, h := range headers {
		norm := normalizeHeader(h)
		if !strings.HasSuffix(norm, want) {
			continue
		}
		leading := strings.TrimSpace(strings.TrimSuffix(norm, want))
		if base == "" || leading == base {
			return Column{Name: h, Index: i}, nil
		}
		if strings.Contains(leading, base) && fallback == nil {
			c := Column{Name: h, Index: i}
			fallback = &c
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return Column{}, NewColumnNotFound(strings.TrimSpace(prefix + " " + suffix))
}

// CheckColumnOrder enforces the performance profile precondition that the
// percentage column reflects post-test results: it must sit at or after the
// test status column.
func CheckColumnOrder(status, percentage Column) error {
	if percentage.Index < status.Index {
		return NewColumnOrderError(percentage.Name, status.Name)
	}
	return nil
}

// CountColumn picks the column used for counting rows in pivots. Email is
// preferred, then Name, then the first column.
func CountColumn(headers []string) Column {
	for _, preferred := range []string{"email", "name"} {
		for i, h := range headers {
			if normalizeHeader(h) == preferred {
				return Column{Name: h, Index: i}
			}
		}
	}
	for _, preferred := range []string{"email", "name"} {
		for i, h := range headers {
			if strings.Contains(normalizeHeader(h), preferred) {
				return Column{Name: h, Index: i}
			}
		}
	}
	if len(headers) > 0 {
		return Column{Name: headers[0], Index: 0}
	}
	return Column{}
}
