package telegraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToNodesFlatFragment(t *testing.T) {
	nodes, err := HTMLToNodes(`<img src="https://h/a.jpg"><p>hi</p>`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, "img", nodes[0].Tag)
	assert.Equal(t, map[string]string{"src": "https://h/a.jpg"}, nodes[0].Attrs)

	assert.Equal(t, "p", nodes[1].Tag)
	require.Len(t, nodes[1].Children, 1)
	assert.Equal(t, "hi", nodes[1].Children[0].Text)
}

func TestHTMLToNodesEmptyFragment(t *testing.T) {
	nodes, err := HTMLToNodes("")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestNodeMarshalJSON(t *testing.T) {
	nodes := []Node{
		{Tag: "img", Attrs: map[string]string{"src": "u"}},
		{Tag: "p", Children: []Node{{Text: "hi"}}},
	}

	data, err := json.Marshal(nodes)
	require.NoError(t, err)

	// Text nodes serialize as bare strings, elements as objects.
	assert.JSONEq(t,
		`[{"tag":"img","attrs":{"src":"u"}},{"tag":"p","children":["hi"]}]`,
		string(data))
}
