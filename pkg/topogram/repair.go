package topogram

import "strings"

// RepairQuotes fixes CSV text broken by unbalanced double quotes.
//
// Physical lines are merged while the running quote count is odd, so a
// quoted field spanning lines stays in one logical row. If the text ends
// with an unterminated quote, the last quote character is dropped so the
// final row does not swallow the rest of the input.
func RepairQuotes(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		out    []string
		buf    strings.Builder
		quotes int
		open   bool
	)
	for _, line := range strings.Split(text, "\n") {
		if open {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		quotes += strings.Count(line, `"`)
		if quotes%2 == 0 {
			out = append(out, buf.String())
			buf.Reset()
			quotes = 0
			open = false
			continue
		}
		open = true
	}
	if open {
		rest := buf.String()
		if i := strings.LastIndexByte(rest, '"'); i >= 0 {
			rest = rest[:i] + rest[i+1:]
		}
		out = append(out, rest)
	}
	return strings.Join(out, "\n")
}
