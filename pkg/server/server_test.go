package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topogram/topokit/pkg/debian"
	"github.com/topogram/topokit/pkg/errors"
	archive "github.com/topogram/topokit/pkg/integrations/debian"
	"github.com/topogram/topokit/pkg/observability"
	"github.com/topogram/topokit/pkg/pipeline"
	"github.com/topogram/topokit/pkg/topogram"
)

const index = `Package: curl
Version: 7.88.1
Description: command line tool for transferring data with URL syntax
Depends: libc6, libcurl4 (= 7.88.1)

Package: libcurl4
Source: curl
Depends: libc6

Package: libc6
Source: glibc
`

type stubFetcher struct {
	text string
	err  error
}

func (f stubFetcher) FetchPackages(context.Context, archive.Dist, bool) (string, error) {
	return f.text, f.err
}

func (stubFetcher) Mirror() string { return "http://mirror.test/debian" }

func newTestServer(t *testing.T, f stubFetcher) *httptest.Server {
	t.Helper()
	logger := log.New(&bytes.Buffer{})
	runner := pipeline.NewRunner(f, nil, nil, logger)
	srv := httptest.NewServer(New(runner, Options{MaxDepth: 2}, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})
	resp := get(t, srv.URL+"/healthz")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestGraphJSON(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})
	resp := get(t, srv.URL+"/v1/graph/curl")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body GraphResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "curl", body.Package)
	assert.Equal(t, archive.DefaultSuite, body.Dist.Suite)
	assert.Equal(t, 3, body.Stats.Nodes)
	assert.Equal(t, 3, body.Stats.Edges)
	require.Len(t, body.Nodes, 3)
	assert.Equal(t, "curl", body.Nodes[0].ID)
	assert.Equal(t, debian.Depends, body.Edges[0].Relationship)
}

func TestGraphCSV(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})
	resp := get(t, srv.URL+"/v1/graph/curl?format=csv&depth=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	f, err := topogram.ReadCSV(resp.Body, topogram.ReadOptions{})
	require.NoError(t, err)
	assert.Len(t, f.Nodes, 3)
	assert.Len(t, f.Edges, 2)
}

func TestGraphDOT(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})
	resp := get(t, srv.URL+"/v1/graph/curl?format=dot")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "digraph"))
}

func TestGraphErrors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher stubFetcher
		path    string
		status  int
		code    errors.Code
	}{
		{"bad package", stubFetcher{text: index}, "/v1/graph/Not_Valid", http.StatusBadRequest, errors.ErrCodeInvalidPackage},
		{"bad depth", stubFetcher{text: index}, "/v1/graph/curl?depth=x", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad flag", stubFetcher{text: index}, "/v1/graph/curl?recommends=maybe", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad suite", stubFetcher{text: index}, "/v1/graph/curl?suite=..", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad format", stubFetcher{text: index}, "/v1/graph/curl?format=png", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"missing index", stubFetcher{err: errors.New(errors.ErrCodeNotFound, "no index")}, "/v1/graph/curl", http.StatusNotFound, errors.ErrCodeNotFound},
		{"mirror down", stubFetcher{err: errors.New(errors.ErrCodeNetwork, "down")}, "/v1/graph/curl", http.StatusBadGateway, errors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.fetcher)
			resp := get(t, srv.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, string(tt.code), body.Error)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, resp.Header.Get(RequestIDHeader), body.RequestID)
		})
	}
}

func TestRank(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})

	resp := get(t, srv.URL+"/v1/rank")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ranked []debian.SourceCount
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ranked))
	require.NotEmpty(t, ranked)
	// glibc is referenced by curl and libcurl4.
	assert.Equal(t, "glibc", ranked[0].Source)
	assert.Equal(t, 2, ranked[0].Count)

	resp = get(t, srv.URL+"/v1/rank?top=1&format=csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "source_package,count\nglibc,2\n", buf.String())
}

func TestParseRawBody(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})
	body := "id,name,source,target\nA,Alpha,,\nB,Beta,,\n,,A,B\n"

	resp, err := http.Post(srv.URL+"/v1/parse?filename=net.csv", "text/csv", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed ParseResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "net.csv", parsed.Filename)
	assert.Equal(t, topogram.FormatHeader, parsed.Format)
	assert.Len(t, parsed.Nodes, 2)
	require.Len(t, parsed.Edges, 1)
	assert.Equal(t, "A", parsed.Edges[0].Data["source"])
}

func TestParseMultipart(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "upload.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(`{"nodes":[{"id":"A","name":"Alpha"}],"edges":[]}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/v1/parse", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed ParseResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "upload.json", parsed.Filename)
	assert.Len(t, parsed.Nodes, 1)
}

func TestParseUnsupported(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})
	resp, err := http.Post(srv.URL+"/v1/parse?filename=net.ods", "application/octet-stream", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Equal(t, string(errors.ErrCodeUnsupported), decodeError(t, resp).Error)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(errors.ErrCodeTimeout))
	assert.Equal(t, http.StatusBadGateway, statusFor(errors.ErrCodeDecompress))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.ErrCodeFileNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.ErrCodeStore))
}

func TestStats(t *testing.T) {
	counters := observability.NewCounters()
	observability.Register(counters)
	t.Cleanup(observability.Reset)

	logger := log.New(&bytes.Buffer{})
	runner := pipeline.NewRunner(stubFetcher{text: index}, nil, nil, logger)
	srv := httptest.NewServer(New(runner, Options{Counters: counters}, logger).Handler())
	t.Cleanup(srv.Close)

	require.Equal(t, http.StatusOK, get(t, srv.URL+"/v1/graph/curl").StatusCode)

	resp := get(t, srv.URL+"/v1/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap observability.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.Fetches)
	assert.Equal(t, int64(1), snap.Builds)
	assert.Equal(t, int64(1), snap.CacheMisses)
}

func TestStatsDisabled(t *testing.T) {
	srv := newTestServer(t, stubFetcher{text: index})
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/v1/stats").StatusCode)
}
