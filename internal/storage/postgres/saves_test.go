package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/energy"
	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/save"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
	"github.com/cory-johannsen/dungeon/internal/testutil"
)

func snapshotAt(savedAt time.Time, hp uint32) *save.Snapshot {
	w := world.New(world.Arena{Width: 12, Height: 8, Depth: 3})
	pool := energy.Full()
	w.Spawn(&world.Entity{
		Actor:    world.Actor{Name: "Tess", Glyph: '@'},
		Player:   true,
		Position: &world.Position{X: 2, Y: 2, Depth: 3},
		Stats:    &world.Stats{HP: hp, MaxHP: 100},
		Energy:   &pool,
	})
	return &save.Snapshot{
		Version:      save.Version,
		SessionID:    uuid.New(),
		SavedAt:      savedAt,
		TurnCount:    42,
		RNGSeed:      12345,
		Arena:        w.Arena,
		NextEntityID: w.NextID(),
		Entities:     save.Capture(w),
	}
}

func newRepo(t *testing.T, slots int) *postgres.SaveRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	require.NoError(t, pc.Pool.Health(context.Background(), time.Second))
	pc.ApplyMigrations(t, "../../../migrations")
	return postgres.NewSaveRepository(pc.RawPool, slots)
}

func TestSaveRepository(t *testing.T) {
	repo := newRepo(t, 2)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Load(ctx, "one")
	assert.ErrorIs(t, err, save.ErrSlotNotFound)

	require.NoError(t, repo.Save(ctx, "one", snapshotAt(base, 80)))
	require.NoError(t, repo.Save(ctx, "two", snapshotAt(base.Add(time.Minute), 60)))
	assert.ErrorIs(t, repo.Save(ctx, "three", snapshotAt(base, 1)), save.ErrSlotsFull)
	assert.ErrorIs(t, repo.Save(ctx, "bad slot", snapshotAt(base, 1)), save.ErrInvalidSlot)

	require.NoError(t, repo.Save(ctx, "one", snapshotAt(base.Add(time.Hour), 75)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Slot)
	assert.Equal(t, uint32(75), list[0].PlayerHP)
	assert.Equal(t, "Tess", list[0].Player)
	assert.Equal(t, 3, list[0].Depth)
	assert.Equal(t, uint32(42), list[0].TurnCount)
	assert.True(t, list[0].SavedAt.Equal(base.Add(time.Hour)))

	got, err := repo.Load(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, save.Version, got.Version)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, uint32(60), got.Entities[0].Stats.HP)

	require.NoError(t, repo.Delete(ctx, "two"))
	require.NoError(t, repo.Delete(ctx, "two"))
	_, err = repo.Load(ctx, "two")
	assert.ErrorIs(t, err, save.ErrSlotNotFound)
}

func TestSaveRepository_PropertyRoundTrip(t *testing.T) {
	repo := newRepo(t, 0)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rapid.Check(t, func(rt *rapid.T) {
		slot := rapid.StringMatching(`[a-z0-9_-]{1,16}`).Draw(rt, "slot")
		hp := rapid.Uint32Range(1, 100).Draw(rt, "hp")
		snap := snapshotAt(base, hp)

		if err := repo.Save(ctx, slot, snap); err != nil {
			rt.Fatalf("save %q: %v", slot, err)
		}
		got, err := repo.Load(ctx, slot)
		if err != nil {
			rt.Fatalf("load %q: %v", slot, err)
		}
		if got.SessionID != snap.SessionID || got.Entities[0].Stats.HP != hp {
			rt.Fatalf("slot %q: got session %s hp %d", slot, got.SessionID, got.Entities[0].Stats.HP)
		}
		if err := repo.Delete(ctx, slot); err != nil {
			rt.Fatalf("delete %q: %v", slot, err)
		}
	})
}
