package topogram

import "strings"

// Format identifies the shape of a topogram source.
type Format string

const (
	FormatEmpty    Format = "empty"
	FormatHeader   Format = "header"
	FormatLegacy   Format = "legacy"
	FormatWorkbook Format = "workbook"
	FormatJSON     Format = "json"
)

// Detect picks the tabular format for rows by looking at the first
// non-blank row. Rows holding only whitespace are ignored.
func Detect(rows [][]string) Format {
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		for _, cell := range row {
			switch normalizeName(cell) {
			case "id", "title":
				return FormatHeader
			}
		}
		return FormatLegacy
	}
	return FormatEmpty
}

// rowClassifier turns one body row into a node or an edge on f.
type rowClassifier interface {
	classify(row []string, f *File)
}

// rowKind forces how a headerClassifier treats rows. Spreadsheet sheets
// declare their kind up front; header CSVs decide per row.
type rowKind int

const (
	kindAuto rowKind = iota
	kindNode
	kindEdge
)

// Column synonyms, matched after normalizeName.
var (
	idNames                = []string{"id"}
	nodeTitleNames         = []string{"title", "name"}
	labelNames             = []string{"label"}
	emojiNames             = []string{"emoji"}
	nodeColorNames         = []string{"color", "fillcolor", "fill color"}
	nodeWeightNames        = []string{"weight", "rawweight", "raw weight"}
	sourceNames            = []string{"source"}
	targetNames            = []string{"target"}
	fromNames              = []string{"from"}
	toNames                = []string{"to"}
	edgeNameNames          = []string{"edgelabel", "edge label"}
	edgeColorNames         = []string{"edgecolor", "edge color"}
	edgeWeightNames        = []string{"edgeweight", "edge weight"}
	relationshipNames      = []string{"relationship"}
	relationshipEmojiNames = []string{"relationshipemoji", "relationship emoji"}
	enlightementNames      = []string{"enlightement", "enlightenment", "edgeenlightement", "edge enlightenment"}
)

// headerClassifier reads rows by column name.
type headerClassifier struct {
	index map[string]int
	kind  rowKind
	// fromTo accepts "from"/"to" as source/target synonyms.
	fromTo bool
}

func newHeaderClassifier(header []string, kind rowKind) *headerClassifier {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeName(h)
		if name == "" {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return &headerClassifier{index: index, kind: kind}
}

// has reports whether any of names is a column.
func (c *headerClassifier) has(names ...string) bool {
	for _, n := range names {
		if _, ok := c.index[n]; ok {
			return true
		}
	}
	return false
}

// get returns the first non-empty value among the named columns.
func (c *headerClassifier) get(row []string, names []string) string {
	for _, n := range names {
		i, ok := c.index[n]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

func (c *headerClassifier) endpoints(row []string) (string, string) {
	src := c.get(row, sourceNames)
	dst := c.get(row, targetNames)
	if c.fromTo {
		if src == "" {
			src = c.get(row, fromNames)
		}
		if dst == "" {
			dst = c.get(row, toNames)
		}
	}
	return src, dst
}

func (c *headerClassifier) classify(row []string, f *File) {
	src, dst := c.endpoints(row)
	kind := c.kind
	if kind == kindAuto {
		kind = kindNode
		if src != "" || dst != "" {
			kind = kindEdge
		}
	}

	if kind == kindEdge {
		f.addEdge(EdgeRecord{
			Source:            src,
			Target:            dst,
			Name:              c.get(row, edgeNameNames),
			Label:             c.get(row, labelNames),
			Color:             c.get(row, edgeColorNames),
			Weight:            c.get(row, edgeWeightNames),
			Relationship:      c.get(row, relationshipNames),
			RelationshipEmoji: c.get(row, relationshipEmojiNames),
			Enlightement:      c.get(row, enlightementNames),
			Raw:               row,
		})
		return
	}

	f.addNode(NodeRecord{
		ID:     c.get(row, idNames),
		Title:  c.get(row, nodeTitleNames),
		Label:  c.get(row, labelNames),
		Emoji:  c.get(row, emojiNames),
		Color:  c.get(row, nodeColorNames),
		Weight: c.get(row, nodeWeightNames),
		Raw:    row,
	})
}

// legacyClassifier reads headerless positional rows.
//
// Edge endpoints are looked up at columns 12/13 (the written layout), then
// 4/5, then 1/2, independently per endpoint. A node row whose first cell is
// empty is therefore read as an edge; files mixing both conventions can be
// misread and are not disambiguated.
type legacyClassifier struct{}

var legacyEndpointColumns = [][2]int{
	{colSource, colTarget},
	{4, 5},
	{1, 2},
}

func (legacyClassifier) classify(row []string, f *File) {
	first := strings.TrimSpace(cell(row, 0))
	if first == "" || strings.EqualFold(first, "edge") {
		var src, dst string
		for _, cols := range legacyEndpointColumns {
			if src == "" {
				src = strings.TrimSpace(cell(row, cols[0]))
			}
			if dst == "" {
				dst = strings.TrimSpace(cell(row, cols[1]))
			}
		}
		f.addEdge(EdgeRecord{
			Source:       src,
			Target:       dst,
			Name:         strings.TrimSpace(cell(row, colEdgeLabel)),
			Color:        strings.TrimSpace(cell(row, colEdgeColor)),
			Weight:       strings.TrimSpace(cell(row, colEdgeWeight)),
			Relationship: strings.TrimSpace(cell(row, colRelationship)),
			Raw:          row,
		})
		return
	}

	f.addNode(NodeRecord{
		ID:    first,
		Title: strings.TrimSpace(cell(row, colName)),
		Label: strings.TrimSpace(cell(row, colLabel)),
		Raw:   row,
	})
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// normalizeName lowercases and trims a header cell and drops a UTF-8 BOM.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
}
