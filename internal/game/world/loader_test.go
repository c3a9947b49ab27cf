package world_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/world"
)

const meadowYAML = `
map:
  id: meadow
  name: Quiet Meadow
  levels:
    - - "......"
      - "..#..."
      - "..~~.."
  spawns:
    - {template: wolf, at: [1, 0, 0], count: 2}
    - {template: rabbit, at: [5, 2, 0]}
`

func TestLoadGridFromBytes(t *testing.T) {
	g, err := world.LoadGridFromBytes([]byte(meadowYAML))
	require.NoError(t, err)
	assert.Equal(t, "meadow", g.ID)
	assert.Equal(t, "Quiet Meadow", g.Name)
	assert.Equal(t, 6, g.Width)
	assert.Equal(t, 3, g.Height)
	assert.Equal(t, world.Wall, g.At(geom.C(2, 1, 0)))
	require.Len(t, g.Spawns, 2)
	assert.Equal(t, world.Spawn{Template: "wolf", At: geom.C(1, 0, 0), Count: 2}, g.Spawns[0])
	assert.Equal(t, 1, g.Spawns[1].Count, "count defaults to one")
}

func TestLoadGridFromBytes_Rejects(t *testing.T) {
	cases := map[string]string{
		"yaml":          "map: [",
		"spawn in wall": "map:\n  id: m\n  levels: [[\"#.\"]]\n  spawns: [{template: w, at: [0, 0, 0]}]\n",
		"spawn shape":   "map:\n  id: m\n  levels: [[\"..\"]]\n  spawns: [{template: w, at: [0, 0]}]\n",
		"spawn off map": "map:\n  id: m\n  levels: [[\"..\"]]\n  spawns: [{template: w, at: [5, 0, 0]}]\n",
		"no template":   "map:\n  id: m\n  levels: [[\"..\"]]\n  spawns: [{at: [0, 0, 0]}]\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := world.LoadGridFromBytes([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadGridFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meadow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(meadowYAML), 0644))
	g, err := world.LoadGridFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "meadow", g.ID)

	_, err = world.LoadGridFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
