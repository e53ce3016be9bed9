package topogram

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// jsonExport is the {nodes, edges} document produced by topogram exports.
type jsonExport struct {
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

// ReadJSON reads a {"nodes": [...], "edges": [...]} export. Object keys are
// matched with the same column synonyms as header CSVs, and "from"/"to"
// are accepted for edge endpoints. A document without either array yields
// an empty File.
func ReadJSON(r io.Reader) (*File, error) {
	var doc jsonExport
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	f := &File{Format: FormatJSON}
	for _, obj := range doc.Nodes {
		header, row := flattenObject(obj)
		newHeaderClassifier(header, kindNode).classify(row, f)
	}
	for _, obj := range doc.Edges {
		header, row := flattenObject(obj)
		cls := newHeaderClassifier(header, kindEdge)
		cls.fromTo = true
		cls.classify(row, f)
	}
	return f, nil
}

// flattenObject turns obj into a header and a row with keys in sorted order.
func flattenObject(obj map[string]any) ([]string, []string) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := make([]string, len(keys))
	for i, k := range keys {
		row[i] = stringify(obj[k])
	}
	return keys, row
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
