// Package topogram reads and writes topogram node/edge tables.
//
// # Writing
//
// [WriteCSV] serializes a [graph.Graph] into the fixed 19-column topogram
// CSV layout. Nodes come first, in visit order, then edges in discovery
// order. Every field is quoted.
//
// # Reading
//
// Topogram files exist in several historical shapes. [Detect] inspects the
// first row once per file and picks a [Format]; the matching row classifier
// is then applied uniformly to every body row:
//
//   - [FormatHeader]: the first row names its columns and contains "id" or
//     "title". Rows with a non-empty source or target column are edges.
//   - [FormatLegacy]: positional columns with no header. Rows whose first
//     cell is empty or "edge" are edges.
//   - [FormatEmpty]: nothing to classify.
//
// Workbooks ([ReadSpreadsheet]) and JSON exports ([ReadJSON]) produce the
// same [NodeRecord] and [EdgeRecord] values. [ReadFile] dispatches on the
// file extension.
//
// Blank rows are skipped everywhere, short rows are padded, and a missing
// optional column leaves its field empty.
package topogram
