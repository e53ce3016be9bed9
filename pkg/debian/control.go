package debian

import (
	"bufio"
	"io"
	"strings"
)

// Well-known control fields.
const (
	FieldPackage     = "Package"
	FieldSource      = "Source"
	FieldVersion     = "Version"
	FieldSection     = "Section"
	FieldDescription = "Description"
	FieldDepends     = "Depends"
	FieldRecommends  = "Recommends"
	FieldSuggests    = "Suggests"
)

// Record is one control stanza: field name to value. Field names are
// case-sensitive. Multi-line values keep their embedded line breaks.
type Record map[string]string

// Name returns the stanza's Package field.
func (r Record) Name() string { return r[FieldPackage] }

// Records maps package names to their stanza.
type Records map[string]Record

// ParseRecords parses a complete Packages index.
func ParseRecords(text string) Records {
	p := newRecordParser()
	for _, line := range strings.Split(text, "\n") {
		p.line(strings.TrimSuffix(line, "\r"))
	}
	return p.finish()
}

// ReadRecords parses a Packages index from r. It applies the same rules as
// [ParseRecords] without holding the whole index in memory as one string.
func ReadRecords(r io.Reader) (Records, error) {
	p := newRecordParser()
	sc := bufio.NewScanner(r)
	// Long Description and Depends fields exceed the default 64K token size
	// on some architectures.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		p.line(strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p.finish(), nil
}

type recordParser struct {
	out     Records
	current Record
	last    string
}

func newRecordParser() *recordParser {
	return &recordParser{out: make(Records), current: make(Record)}
}

func (p *recordParser) line(line string) {
	if strings.TrimSpace(line) == "" {
		p.commit()
		return
	}
	key, val, ok := strings.Cut(line, ":")
	if !ok {
		if p.last != "" {
			p.current[p.last] += "\n" + line
		}
		return
	}
	key = strings.TrimRight(key, " \t")
	p.current[key] = strings.TrimSpace(val)
	p.last = key
}

func (p *recordParser) commit() {
	if name, ok := p.current[FieldPackage]; ok {
		p.out[name] = p.current
	}
	p.current = make(Record)
	p.last = ""
}

func (p *recordParser) finish() Records {
	p.commit()
	return p.out
}
