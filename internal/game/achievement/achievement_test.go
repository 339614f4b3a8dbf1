package achievement_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/achievement"
)

func TestBuiltin_HasSixteenUniqueDefinitions(t *testing.T) {
	defs := achievement.Builtin()
	require.Len(t, defs, 16)
	ids := map[achievement.ID]bool{}
	for _, d := range defs {
		ids[d.ID] = true
	}
	for _, id := range []achievement.ID{
		achievement.FirstBlood, achievement.SlayerI, achievement.SlayerII, achievement.SlayerIII,
		achievement.BossSlayer, achievement.DeepDiver, achievement.Spelunker, achievement.MasterExplorer,
		achievement.Hoarder, achievement.Collector, achievement.TreasureHunter, achievement.Survivor,
		achievement.Veteran, achievement.Legend, achievement.Lucky, achievement.Wealthy,
	} {
		assert.True(t, ids[id], id)
	}
}

func TestManager_KillThresholds(t *testing.T) {
	m := achievement.NewManager(achievement.Builtin())
	assert.Equal(t, []achievement.ID{achievement.FirstBlood}, m.OnKill())
	for range 8 {
		assert.Empty(t, m.OnKill())
	}
	assert.Equal(t, []achievement.ID{achievement.SlayerI}, m.OnKill())
	assert.Equal(t, uint32(10), m.Progress().Kills)
	assert.Equal(t, []achievement.ID{achievement.FirstBlood, achievement.SlayerI}, m.DrainNewlyUnlocked())
	assert.Empty(t, m.DrainNewlyUnlocked())
}

func TestManager_DepthNeverDecreases(t *testing.T) {
	m := achievement.NewManager(achievement.Builtin())
	assert.Equal(t, []achievement.ID{achievement.DeepDiver, achievement.Spelunker}, m.OnLevelChange(10))
	m.OnLevelChange(3)
	assert.Equal(t, uint32(10), m.Progress().MaxDepth)
}

func TestManager_OtherCounters(t *testing.T) {
	m := achievement.NewManager(achievement.Builtin())
	assert.Equal(t, []achievement.ID{achievement.BossSlayer}, m.OnBossDefeat())
	assert.Equal(t, []achievement.ID{achievement.Lucky}, m.OnRareItem())
	assert.Equal(t, []achievement.ID{achievement.Survivor}, m.OnTurnEnd(100))
	assert.Empty(t, m.OnGoldCollected(999))
	assert.Equal(t, []achievement.ID{achievement.Wealthy}, m.OnGoldCollected(1))
	for range 10 {
		m.OnItemPickup()
	}
	assert.True(t, m.IsUnlocked(achievement.Hoarder))
	assert.InDelta(t, 5.0/16.0, m.UnlockPercentage(), 1e-9)
}

func TestManager_GoldSaturates(t *testing.T) {
	m := achievement.NewManager(achievement.Builtin())
	m.OnGoldCollected(math.MaxUint32)
	m.OnGoldCollected(10)
	assert.Equal(t, uint32(math.MaxUint32), m.Progress().GoldCollected)
}

func TestManager_ResetAndRestore(t *testing.T) {
	m := achievement.NewManager(achievement.Builtin())
	m.OnKill()
	st := m.State()
	m.Reset()
	assert.False(t, m.IsUnlocked(achievement.FirstBlood))
	assert.Zero(t, m.Progress().Kills)
	assert.Zero(t, m.UnlockPercentage())

	st.Unlocked = append(st.Unlocked, "no_such_achievement")
	m.Restore(st)
	assert.True(t, m.IsUnlocked(achievement.FirstBlood))
	assert.Equal(t, uint32(1), m.Progress().Kills)
	assert.Equal(t, []achievement.ID{achievement.FirstBlood}, m.Unlocked())
	assert.Empty(t, m.DrainNewlyUnlocked())
}

func TestParseDefinitions_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":    "achievements:\n  - {id: a, name: A, criteria: kills, threshold: 1, bonus: 3}\n",
		"unknown criteria": "achievements:\n  - {id: a, name: A, criteria: hugs, threshold: 1}\n",
		"zero threshold":   "achievements:\n  - {id: a, name: A, criteria: kills, threshold: 0}\n",
		"duplicate":        "achievements:\n  - {id: a, name: A, criteria: kills, threshold: 1}\n  - {id: a, name: B, criteria: gold, threshold: 1}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := achievement.ParseDefinitions([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadDefinitions_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.yaml")
	require.NoError(t, os.WriteFile(path, []byte("achievements:\n  - {id: pacifist, name: Pacifist, criteria: turns, threshold: 5}\n"), 0o600))
	defs, err := achievement.LoadDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	m := achievement.NewManager(defs)
	assert.Equal(t, []achievement.ID{"pacifist"}, m.OnTurnEnd(5))

	_, err = achievement.LoadDefinitions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestProperty_UnlockIsMonotone(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := achievement.NewManager(achievement.Builtin())
		var prev int
		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for range steps {
			switch rapid.IntRange(0, 5).Draw(rt, "op") {
			case 0:
				m.OnKill()
			case 1:
				m.OnLevelChange(rapid.IntRange(0, 30).Draw(rt, "depth"))
			case 2:
				m.OnItemPickup()
			case 3:
				m.OnTurnEnd(rapid.Uint32Range(0, 2000).Draw(rt, "turn"))
			case 4:
				m.OnGoldCollected(rapid.Uint32Range(0, 500).Draw(rt, "gold"))
			case 5:
				m.OnBossDefeat()
			}
			n := len(m.Unlocked())
			assert.GreaterOrEqual(rt, n, prev)
			prev = n
		}
	})
}
