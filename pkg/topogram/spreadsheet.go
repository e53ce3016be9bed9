package topogram

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadSpreadsheet reads a workbook from path.
//
// Sheets named "nodes" and "edges" (any case) are read as node and edge
// tables. Otherwise the first sheet is read: it holds edges if its header
// names a source, target, from or to column, and nodes otherwise. The
// first row of each sheet is its header.
func ReadSpreadsheet(path string) (*File, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()
	return readWorkbook(wb)
}

// ReadWorkbook reads a workbook from r. See ReadSpreadsheet.
func ReadWorkbook(r io.Reader) (*File, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()
	return readWorkbook(wb)
}

func readWorkbook(wb *excelize.File) (*File, error) {
	f := &File{Format: FormatWorkbook}

	sheets := wb.GetSheetList()
	var nodeSheet, edgeSheet string
	for _, name := range sheets {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "nodes":
			if nodeSheet == "" {
				nodeSheet = name
			}
		case "edges":
			if edgeSheet == "" {
				edgeSheet = name
			}
		}
	}

	if nodeSheet != "" || edgeSheet != "" {
		if nodeSheet != "" {
			if err := readSheet(wb, nodeSheet, kindNode, f); err != nil {
				return nil, err
			}
		}
		if edgeSheet != "" {
			if err := readSheet(wb, edgeSheet, kindEdge, f); err != nil {
				return nil, err
			}
		}
		return f, nil
	}

	if len(sheets) == 0 {
		return f, nil
	}
	if err := readSheet(wb, sheets[0], kindAuto, f); err != nil {
		return nil, err
	}
	return f, nil
}

// readSheet parses one sheet into f. With kindAuto the sheet's header
// decides whether every row is an edge or a node.
func readSheet(wb *excelize.File, sheet string, kind rowKind, f *File) error {
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	header, body := splitHeader(rows)
	if header == nil {
		return nil
	}

	cls := newHeaderClassifier(header, kind)
	cls.fromTo = true
	if kind == kindAuto {
		cls.kind = kindNode
		if cls.has("source", "target", "from", "to") {
			cls.kind = kindEdge
		}
	}

	for _, row := range body {
		if isBlank(row) {
			continue
		}
		cls.classify(row, f)
	}
	return nil
}
