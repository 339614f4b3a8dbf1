package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

func arena() world.Arena { return world.Arena{Width: 10, Height: 8, Depth: 1} }

func TestWorld_SpawnAssignsIncreasingIDs(t *testing.T) {
	w := world.New(arena())
	a := w.Spawn(&world.Entity{})
	b := w.Spawn(&world.Entity{})
	assert.Equal(t, world.EntityID(1), a)
	assert.Equal(t, world.EntityID(2), b)
	assert.Equal(t, 2, w.Len())
}

func TestWorld_DespawnDoesNotReuseIDs(t *testing.T) {
	w := world.New(arena())
	a := w.Spawn(&world.Entity{})
	assert.True(t, w.Despawn(a))
	assert.False(t, w.Despawn(a))
	b := w.Spawn(&world.Entity{})
	assert.NotEqual(t, a, b)
	_, ok := w.Get(a)
	assert.False(t, ok)
}

func TestWorld_MustGetWrapsSentinel(t *testing.T) {
	w := world.New(arena())
	_, err := w.MustGet(42)
	assert.ErrorIs(t, err, world.ErrNoSuchEntity)
}

func TestWorld_InsertKeepsOrderAndAdvancesNextID(t *testing.T) {
	w := world.New(arena())
	require.NoError(t, w.Insert(&world.Entity{ID: 7}))
	require.NoError(t, w.Insert(&world.Entity{ID: 3}))
	assert.Error(t, w.Insert(&world.Entity{ID: 3}))
	assert.Error(t, w.Insert(&world.Entity{}))

	ids := []world.EntityID{}
	for _, e := range w.Entities() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []world.EntityID{3, 7}, ids)
	assert.Equal(t, world.EntityID(8), w.Spawn(&world.Entity{}))
}

func TestWorld_PlayerAndEntityAt(t *testing.T) {
	w := world.New(arena())
	pos := world.Position{X: 2, Y: 2, Depth: 1}
	w.Spawn(&world.Entity{Position: &world.Position{X: 5, Y: 5, Depth: 1}})
	id := w.Spawn(&world.Entity{Player: true, Position: &pos, Stats: &world.Stats{HP: 5, MaxHP: 5}})

	p, ok := w.Player()
	require.True(t, ok)
	assert.Equal(t, id, p.ID)

	at, ok := w.EntityAt(pos)
	require.True(t, ok)
	assert.Equal(t, id, at.ID)

	// An entity without Stats or Boss does not occupy its tile.
	_, ok = w.EntityAt(world.Position{X: 5, Y: 5, Depth: 1})
	assert.False(t, ok)
	assert.True(t, w.Walkable(world.Position{X: 5, Y: 5, Depth: 1}))
	assert.False(t, w.Walkable(pos))
}

func TestWorld_BossOccupiesTile(t *testing.T) {
	w := world.New(arena())
	enc, err := boss.DefaultRegistry().Spawn(boss.GiantOgre)
	require.NoError(t, err)
	pos := world.Position{X: 3, Y: 3, Depth: 1}
	w.Spawn(&world.Entity{Position: &pos, Boss: enc})
	e, ok := w.EntityAt(pos)
	require.True(t, ok)
	assert.True(t, e.IsAlive())
	enc.TakeDamage(enc.MaxHP)
	assert.False(t, e.IsAlive())
}

func TestArena_BordersAreWalls(t *testing.T) {
	a := arena()
	assert.False(t, a.InBounds(world.Position{X: 0, Y: 3, Depth: 1}))
	assert.False(t, a.InBounds(world.Position{X: 9, Y: 3, Depth: 1}))
	assert.False(t, a.InBounds(world.Position{X: 3, Y: 7, Depth: 1}))
	assert.False(t, a.InBounds(world.Position{X: 3, Y: 3, Depth: 2}))
	assert.True(t, a.InBounds(world.Position{X: 8, Y: 6, Depth: 1}))
	assert.False(t, a.InBounds(a.StairsDown), "unplaced stairs are a wall")
	assert.Equal(t, world.Position{X: 5, Y: 4, Depth: 1}, a.Centre())
	assert.True(t, a.InBounds(a.Centre()))
}

func TestStats_DamageSaturates(t *testing.T) {
	s := world.Stats{HP: 5, MaxHP: 10}
	assert.Equal(t, uint32(5), s.Damage(9))
	assert.Zero(t, s.HP)
	assert.False(t, s.Alive())
	s.Heal(50)
	assert.Equal(t, uint32(10), s.HP)
}

func TestHunger_States(t *testing.T) {
	h := world.NewHunger(200)
	assert.Equal(t, world.MaxSatiety, h.Satiety)
	h.Satiety = 2
	assert.True(t, h.IsHungry())
	assert.False(t, h.IsStarving())
	h.Satiety = 0
	assert.True(t, h.IsStarving())
	h.Feed(250)
	assert.Equal(t, world.MaxSatiety, h.Satiety)
}

func TestToward_StepsCloser(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		from := world.Position{X: rapid.IntRange(-20, 20).Draw(rt, "fx"), Y: rapid.IntRange(-20, 20).Draw(rt, "fy")}
		to := world.Position{X: rapid.IntRange(-20, 20).Draw(rt, "tx"), Y: rapid.IntRange(-20, 20).Draw(rt, "ty")}
		d, ok := world.Toward(from, to)
		if from == to {
			assert.False(rt, ok)
			return
		}
		require.True(rt, ok)
		assert.Equal(rt, from.Distance(to)-1, from.Add(d).Distance(to))
	})
}
