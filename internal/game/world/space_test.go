package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/nav"
	"github.com/Motifman/llm-rpg-sub007/internal/game/npc"
	"github.com/Motifman/llm-rpg-sub007/internal/game/world"
)

func TestSpace_DelegatesToGridAndArena(t *testing.T) {
	g, err := world.NewGrid("room", [][]string{{
		".....",
		"..#..",
	}})
	require.NoError(t, err)
	actors := npc.NewManager()
	require.NoError(t, actors.Add(&npc.Instance{ID: "a", Kind: npc.KindPlayer, Position: geom.C(0, 1, 0)}))
	require.NoError(t, actors.Add(&npc.Instance{ID: "b", Kind: npc.KindPlayer, Position: geom.C(4, 1, 0)}))
	s := world.NewSpace(g, actors)

	assert.Len(t, s.ActorsInRange(geom.C(0, 1, 0), 2), 1)
	assert.Len(t, s.ActorsInRange(geom.C(0, 1, 0), 4), 2)
	assert.False(t, s.IsVisible(geom.C(0, 1, 0), geom.C(4, 1, 0)))
	assert.False(t, s.IsPassable(geom.C(2, 1, 0), nav.Walk))
	got, ok := s.GetActor("b")
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)
	assert.Same(t, g, s.Grid())
}
