package query

import "strings"

// Macro is a parsed MetaTable macro argument list.
type Macro struct {
	Filters []Filter
	Columns []string
}

// ParseMacro parses MetaTable macro arguments, e.g.
//
//	status=draft, tags~=rust, version/=v\d+, ||name||status||
//
// Filters are comma separated: k~=v (Contains), k/=p (Matches), k=v (Equals),
// ?k (HasKey), ->P (LinksTo), <-P (LinkedFrom). The trailing ||col||...||
// block lists columns and defaults to name. Parts that fit no form are ignored.
func ParseMacro(args string) Macro {
	var m Macro

	if i := strings.Index(args, "||"); i >= 0 {
		for _, c := range strings.Split(args[i:], "||") {
			if c = strings.TrimSpace(c); c != "" {
				m.Columns = append(m.Columns, c)
			}
		}
		args = strings.TrimRight(strings.TrimSpace(args[:i]), ",")
	}
	if len(m.Columns) == 0 {
		m.Columns = []string{ColumnName}
	}

	for _, part := range strings.Split(args, ",") {
		if f, ok := parseMacroFilter(strings.TrimSpace(part)); ok {
			m.Filters = append(m.Filters, f)
		}
	}
	return m
}

func parseMacroFilter(part string) (Filter, bool) {
	if part == "" {
		return nil, false
	}
	if rest, ok := strings.CutPrefix(part, "?"); ok {
		if rest = strings.TrimSpace(rest); rest != "" {
			return HasKey{Key: rest}, true
		}
		return nil, false
	}
	if rest, ok := strings.CutPrefix(part, "->"); ok {
		if rest = strings.TrimSpace(rest); rest != "" {
			return LinksTo{Target: rest}, true
		}
		return nil, false
	}
	if rest, ok := strings.CutPrefix(part, "<-"); ok {
		if rest = strings.TrimSpace(rest); rest != "" {
			return LinkedFrom{Source: rest}, true
		}
		return nil, false
	}

	if k, v, ok := strings.Cut(part, "~="); ok {
		return keyed(k, v, func(k, v string) Filter { return Contains{Key: k, Substring: v} })
	}
	if k, v, ok := strings.Cut(part, "/="); ok {
		return keyed(k, v, func(k, v string) Filter { return NewMatches(k, v) })
	}
	if k, v, ok := strings.Cut(part, "="); ok {
		return keyed(k, v, func(k, v string) Filter { return Equals{Key: k, Value: v} })
	}
	return nil, false
}

func keyed(k, v string, build func(k, v string) Filter) (Filter, bool) {
	k = strings.TrimSpace(k)
	if k == "" {
		return nil, false
	}
	return build(k, strings.TrimSpace(v)), true
}

// String renders m back into macro syntax.
func (m Macro) String() string {
	parts := make([]string, 0, len(m.Filters)+1)
	for _, f := range m.Filters {
		parts = append(parts, f.String())
	}
	if len(m.Columns) > 0 {
		parts = append(parts, "||"+strings.Join(m.Columns, "||")+"||")
	}
	return strings.Join(parts, ", ")
}
