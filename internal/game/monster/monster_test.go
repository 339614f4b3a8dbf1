package monster_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int { return f.val % n }

func TestLoadTemplates_Builtin(t *testing.T) {
	reg, err := monster.LoadRegistry("")
	require.NoError(t, err)

	rat, ok := reg.Get("rat")
	require.True(t, ok)
	assert.Equal(t, "Giant Rat", rat.Name)
	assert.Equal(t, uint32(1), rat.Range, "range defaults to melee")
	assert.Equal(t, uint32(100), rat.Energy)

	archer, ok := reg.Get("archer")
	require.True(t, ok)
	assert.Equal(t, world.AIRanged, archer.AIKind())

	spider, ok := reg.Get("cave_spider")
	require.True(t, ok)
	require.NotNil(t, spider.OnHit)
	assert.Equal(t, effect.New(effect.Poison, 3, 2), spider.OnHit.Effect())

	for _, id := range []string{"clockwork_drone", "void_spawn"} {
		_, ok := reg.Get(id)
		assert.True(t, ok, id)
	}
}

func TestTemplate_Validate_RejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"missing id":    "name: X\nmax_hp: 3\n",
		"missing name":  "id: x\nmax_hp: 3\n",
		"zero hp":       "id: x\nname: X\n",
		"unknown ai":    "id: x\nname: X\nmax_hp: 3\nai: sneaky\n",
		"bad depth":     "id: x\nname: X\nmax_hp: 3\nmin_depth: 5\nmax_depth: 2\n",
		"bad status":    "id: x\nname: X\nmax_hp: 3\non_hit: {status: itchy, duration: 2, chance: 0.5}\n",
		"bad chance":    "id: x\nname: X\nmax_hp: 3\non_hit: {status: poison, duration: 2, chance: 2}\n",
		"bad gold":      "id: x\nname: X\nmax_hp: 3\nloot: {gold: lots}\n",
		"bad item kind": "id: x\nname: X\nmax_hp: 3\nloot: {items: [{name: Rock, kind: rock, chance: 1}]}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := monster.LoadTemplateFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplates_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bat.yaml"), []byte("id: bat\nname: Bat\nmax_hp: 4\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	templates, err := monster.LoadTemplates(dir)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "bat", templates[0].ID)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	a, err := monster.LoadTemplateFromBytes([]byte("id: bat\nname: Bat\nmax_hp: 4\n"))
	require.NoError(t, err)
	_, err = monster.NewRegistry([]*monster.Template{a, a})
	assert.Error(t, err)
}

func TestRegistry_ForDepth_ExcludesSummonedAndOutOfBand(t *testing.T) {
	reg, err := monster.LoadRegistry("")
	require.NoError(t, err)

	var ids []string
	for _, tmpl := range reg.ForDepth(1) {
		ids = append(ids, tmpl.ID)
	}
	assert.Equal(t, []string{"rat"}, ids)

	for _, tmpl := range reg.ForDepth(30) {
		assert.False(t, tmpl.Summoned)
		assert.NotEqual(t, "rat", tmpl.ID)
	}
}

func TestRegistry_Spawn(t *testing.T) {
	reg, err := monster.LoadRegistry("")
	require.NoError(t, err)
	w := world.New(world.Arena{Width: 10, Height: 10, Depth: 1})

	e, err := reg.Spawn(w, "goblin", world.Position{X: 3, Y: 3, Depth: 1})
	require.NoError(t, err)
	assert.Equal(t, "goblin", e.Actor.Template)
	assert.Equal(t, world.FactionMonster, e.Actor.Faction)
	assert.Equal(t, 'g', e.Actor.Glyph)
	assert.Equal(t, uint32(18), e.Stats.HP)
	assert.True(t, e.Energy.CanAct())
	got, ok := w.EntityAt(world.Position{X: 3, Y: 3, Depth: 1})
	require.True(t, ok)
	assert.Equal(t, e.ID, got.ID)

	_, err = reg.Spawn(w, "dragon", world.Position{})
	assert.ErrorIs(t, err, monster.ErrUnknownTemplate)
}

func TestRegistry_Populate_PlacesOnFreeTiles(t *testing.T) {
	reg, err := monster.LoadRegistry("")
	require.NoError(t, err)
	w := world.New(world.Arena{Width: 12, Height: 12, Depth: 3})

	ids := reg.Populate(w, 5, dice.NewSeededSource(dice.DefaultSeed))
	require.Len(t, ids, 5)
	seen := make(map[world.Position]bool)
	for _, id := range ids {
		e, ok := w.Get(id)
		require.True(t, ok)
		require.True(t, w.Arena.InBounds(*e.Position))
		assert.False(t, seen[*e.Position], "two monsters on one tile")
		seen[*e.Position] = true
		assert.True(t, e.Actor.Template == "rat" || e.Actor.Template == "goblin")
	}
}

func TestRegistry_Populate_StopsWhenFull(t *testing.T) {
	reg, err := monster.LoadRegistry("")
	require.NoError(t, err)
	// 3x3 arena has a single floor tile.
	w := world.New(world.Arena{Width: 3, Height: 3, Depth: 1})
	ids := reg.Populate(w, 4, fixedSrc{0})
	assert.Len(t, ids, 1)
}

func TestGenerateLoot_ItemGetsInstanceID(t *testing.T) {
	tmpl, err := monster.LoadTemplateFromBytes([]byte(`
id: x
name: X
max_hp: 3
loot:
  gold: "4"
  items:
    - {name: Apple, kind: food, power: 2, chance: 1}
`))
	require.NoError(t, err)
	res := monster.GenerateLoot(tmpl.Loot, fixedSrc{0})
	assert.Equal(t, uint32(4), res.Gold)
	require.Len(t, res.Items, 1)
	assert.Equal(t, world.ItemFood, res.Items[0].Kind)
	assert.NotEmpty(t, res.Items[0].ID)

	assert.Zero(t, monster.GenerateLoot(nil, fixedSrc{0}).Gold)
}

func TestProperty_GenerateLoot_GoldInRange(t *testing.T) {
	reg, err := monster.LoadRegistry("")
	require.NoError(t, err)
	goblin, _ := reg.Get("goblin")
	rapid.Check(t, func(rt *rapid.T) {
		src := dice.NewSeededSource(rapid.Int64().Draw(rt, "seed"))
		res := monster.GenerateLoot(goblin.Loot, src)
		assert.GreaterOrEqual(rt, res.Gold, uint32(3))
		assert.LessOrEqual(rt, res.Gold, uint32(8))
	})
}
