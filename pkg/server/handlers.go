package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/topogram/topokit/pkg/debian"
	"github.com/topogram/topokit/pkg/errors"
	"github.com/topogram/topokit/pkg/graph"
	archive "github.com/topogram/topokit/pkg/integrations/debian"
	"github.com/topogram/topokit/pkg/pipeline"
	"github.com/topogram/topokit/pkg/topogram"
)

// GraphResponse is the JSON form of a built graph.
type GraphResponse struct {
	Package  string         `json:"package"`
	Dist     archive.Dist   `json:"dist"`
	CacheHit bool           `json:"cache_hit"`
	Stats    pipeline.Stats `json:"stats"`
	Nodes    []*graph.Node  `json:"nodes"`
	Edges    []graph.Edge   `json:"edges"`
}

// ParseResponse is the result of POST /v1/parse: the payloads an import
// of the uploaded file would store.
type ParseResponse struct {
	Filename     string                  `json:"filename"`
	Format       topogram.Format         `json:"format"`
	Skipped      int                     `json:"skipped"`
	DroppedNodes int                     `json:"droppedNodes"`
	DroppedEdges int                     `json:"droppedEdges"`
	Nodes        []topogram.NodeDocument `json:"nodes"`
	Edges        []topogram.EdgeDocument `json:"edges"`
}

func (s *Server) dist(r *http.Request) archive.Dist {
	q := r.URL.Query()
	d := archive.Dist{
		Suite:     q.Get("suite"),
		Component: q.Get("component"),
		Arch:      q.Get("arch"),
	}
	if d.Suite == "" {
		d.Suite = s.opts.Dist.Suite
	}
	if d.Component == "" {
		d.Component = s.opts.Dist.Component
	}
	if d.Arch == "" {
		d.Arch = s.opts.Dist.Arch
	}
	return d
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Package:  chi.URLParam(r, "package"),
		Dist:     s.dist(r),
		MaxDepth: s.opts.MaxDepth,
	}
	var err error
	if opts.MaxDepth, err = intParam(q.Get("depth"), opts.MaxDepth); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Recommends, err = boolParam(q.Get("recommends")); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Suggests, err = boolParam(q.Get("suggests")); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Refresh, err = boolParam(q.Get("refresh")); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.runner.Build(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format := q.Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, GraphResponse{
			Package:  opts.Package,
			Dist:     opts.Dist,
			CacheHit: res.CacheHit,
			Stats:    res.Stats,
			Nodes:    res.Graph.Nodes(),
			Edges:    append([]graph.Edge{}, res.Graph.Edges()...),
		})
	case "csv":
		var buf bytes.Buffer
		if err := topogram.WriteCSV(&buf, res.Graph); err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(opts.Package+".topogram.csv"))
		writeBody(w, "text/csv; charset=utf-8", buf.Bytes())
	case "dot":
		writeBody(w, "text/vnd.graphviz", []byte(graph.ToDOT(res.Graph, graph.DOTOptions{Detailed: true})))
	case "svg":
		svg, err := graph.RenderSVG(r.Context(), graph.ToDOT(res.Graph, graph.DOTOptions{Detailed: true}))
		if err != nil {
			writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
			return
		}
		writeBody(w, "image/svg+xml", svg)
	default:
		writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want json, csv, dot or svg)", format))
	}
}

func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	top, err := intParam(q.Get("top"), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	refresh, err := boolParam(q.Get("refresh"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ranked, err := s.runner.Rank(r.Context(), s.dist(r), top, refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format := q.Get("format"); format {
	case "", "json":
		if ranked == nil {
			ranked = []debian.SourceCount{}
		}
		writeJSON(w, http.StatusOK, ranked)
	case "csv":
		var buf bytes.Buffer
		if err := pipeline.WriteRanking(&buf, ranked); err != nil {
			writeError(w, r, err)
			return
		}
		writeBody(w, "text/csv; charset=utf-8", buf.Bytes())
	default:
		writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want json or csv)", format))
	}
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)
	name, data, err := readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	repair := true
	if v := r.URL.Query().Get("repair"); v != "" {
		if repair, err = boolParam(v); err != nil {
			writeError(w, r, err)
			return
		}
	}

	f, err := parseUpload(name, data, repair)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dn, de := f.Truncate(s.opts.Limits)
	nodes, edges := f.Payloads()
	writeJSON(w, http.StatusOK, ParseResponse{
		Filename:     name,
		Format:       f.Format,
		Skipped:      f.Skipped,
		DroppedNodes: dn,
		DroppedEdges: de,
		Nodes:        nodes,
		Edges:        edges,
	})
}

// readUpload returns the uploaded file name and content, from a multipart
// "file" part or from the raw body with a ?filename= query parameter.
func readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "missing multipart field \"file\"")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload")
		}
		return filepath.Base(hdr.Filename), data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	name := r.URL.Query().Get("filename")
	if name == "" {
		name = "upload.csv"
	}
	return filepath.Base(name), data, nil
}

func parseUpload(name string, data []byte, repair bool) (*topogram.File, error) {
	var (
		f   *topogram.File
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		f, err = topogram.ReadWorkbook(bytes.NewReader(data))
	case ".ods", ".xls":
		return nil, errors.New(errors.ErrCodeUnsupported, "%s: spreadsheet format not supported", name)
	case ".json":
		f, err = topogram.ReadJSON(bytes.NewReader(data))
	default:
		f, err = topogram.ReadCSV(bytes.NewReader(data), topogram.ReadOptions{Repair: repair})
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", name)
	}
	return f, nil
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%q is not an integer", v)
	}
	return n, nil
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "%q is not a boolean", v)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
