package debian

import "strings"

// Relation names a dependency relationship field.
type Relation string

// Relationship fields followed when building graphs.
const (
	Depends    Relation = FieldDepends
	Recommends Relation = FieldRecommends
	Suggests   Relation = FieldSuggests
)

// ExpandDepends reduces a relationship field to bare package names, one per
// top-level clause, in field order. Only the first alternative of an "A | B"
// clause is kept. Architecture qualifiers ("[amd64]") and version constraints
// ("(>= 1.0)") are removed. Empty clauses produce no name.
func ExpandDepends(field string) []string {
	var out []string
	for _, clause := range splitClauses(field) {
		first, _, _ := strings.Cut(clause, "|")
		if name := normalizeToken(first); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// ExpandAlternatives is like [ExpandDepends] but keeps every alternative of
// each clause. The first element of each clause is the token ExpandDepends
// returns for it; a clause whose first alternative normalizes to nothing is
// omitted, as are empty later alternatives.
func ExpandAlternatives(field string) [][]string {
	var out [][]string
	for _, clause := range splitClauses(field) {
		parts := strings.Split(clause, "|")
		first := normalizeToken(parts[0])
		if first == "" {
			continue
		}
		alts := []string{first}
		for _, alt := range parts[1:] {
			if name := normalizeToken(alt); name != "" {
				alts = append(alts, name)
			}
		}
		out = append(out, alts)
	}
	return out
}

// splitClauses splits on commas that are not inside parentheses or brackets.
func splitClauses(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range field {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, field[start:i])
				start = i + 1
			}
		}
	}
	return append(out, field[start:])
}

// normalizeToken strips qualifiers from one alternative. Parentheses go
// before build profiles so the '>' of a version operator is already gone.
func normalizeToken(tok string) string {
	tok = stripEnclosed(tok, '[', ']')
	tok = stripEnclosed(tok, '(', ')')
	tok = stripEnclosed(tok, '<', '>')
	return strings.TrimSpace(tok)
}

// stripEnclosed removes every open...close span. An unterminated span is
// removed through the end of the string.
func stripEnclosed(s string, open, close byte) string {
	if strings.IndexByte(s, open) < 0 {
		return s
	}
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == open:
			depth++
		case c == close && depth > 0:
			depth--
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return b.String()
}
