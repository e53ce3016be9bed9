package topogram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	input := `{
		"nodes": [
			{"id": "a", "name": "Alpha", "weight": 3, "fillColor": "#abc"},
			{"title": "Beta"}
		],
		"edges": [
			{"source": "a", "target": "b", "edgeLabel": "uses", "edgeWeight": 1.5},
			{"from": "b", "to": "a", "enlightenment": "none"},
			{"label": "dangling"}
		]
	}`

	f, err := ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f.Format)

	require.Len(t, f.Nodes, 2)
	assert.Equal(t, "Alpha", f.Nodes[0].Label)
	assert.Equal(t, "3", f.Nodes[0].Weight)
	assert.Equal(t, "#abc", f.Nodes[0].Color)
	assert.Equal(t, "Beta", f.Nodes[1].ID)

	require.Len(t, f.Edges, 2)
	assert.Equal(t, "uses", f.Edges[0].Label)
	assert.Equal(t, "1.5", f.Edges[0].Weight)
	assert.Equal(t, "b", f.Edges[1].Source)
	assert.Equal(t, "none", f.Edges[1].Enlightement)
	assert.Equal(t, 1, f.Skipped)
}

func TestReadJSON_Invalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{nodes"))
	assert.Error(t, err)
}

func TestReadJSON_NoArrays(t *testing.T) {
	f, err := ReadJSON(strings.NewReader(`{"graph": {}}`))
	require.NoError(t, err)
	assert.True(t, f.Empty())
}
