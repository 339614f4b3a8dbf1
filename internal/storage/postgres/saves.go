package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeon/internal/save"
)

// SaveRepository stores session snapshots in the save_slots table. It
// implements save.Store.
type SaveRepository struct {
	db       *pgxpool.Pool
	maxSlots int
}

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
// Postcondition: maxSlots <= 0 means save.DefaultSlots.
func NewSaveRepository(db *pgxpool.Pool, maxSlots int) *SaveRepository {
	if maxSlots <= 0 {
		maxSlots = save.DefaultSlots
	}
	return &SaveRepository{db: db, maxSlots: maxSlots}
}

// Save upserts snap into slot.
//
// Precondition: slot must satisfy save.ValidSlot.
// Postcondition: returns save.ErrSlotsFull when slot is new and the table
// already holds maxSlots rows.
func (r *SaveRepository) Save(ctx context.Context, slot string, snap *save.Snapshot) error {
	if err := save.ValidSlot(slot); err != nil {
		return err
	}
	data, err := save.Encode(snap)
	if err != nil {
		return err
	}
	meta := snap.Metadata(slot)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var exists bool
	var count int
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM save_slots WHERE slot = $1), COUNT(*)
		FROM save_slots`, slot,
	).Scan(&exists, &count)
	if err != nil {
		return fmt.Errorf("counting save slots: %w", err)
	}
	if !exists && count >= r.maxSlots {
		return fmt.Errorf("saving %q: %w", slot, save.ErrSlotsFull)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO save_slots (slot, session_id, saved_at, depth, turn_count, player, player_hp, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slot) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			saved_at   = EXCLUDED.saved_at,
			depth      = EXCLUDED.depth,
			turn_count = EXCLUDED.turn_count,
			player     = EXCLUDED.player,
			player_hp  = EXCLUDED.player_hp,
			data       = EXCLUDED.data`,
		slot, meta.SessionID, meta.SavedAt, meta.Depth, int64(meta.TurnCount),
		meta.Player, int64(meta.PlayerHP), data,
	)
	if err != nil {
		return fmt.Errorf("writing save %q: %w", slot, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing save %q: %w", slot, err)
	}
	return nil
}

// Load returns the snapshot stored in slot.
//
// Postcondition: returns save.ErrSlotNotFound when slot is empty.
func (r *SaveRepository) Load(ctx context.Context, slot string) (*save.Snapshot, error) {
	if err := save.ValidSlot(slot); err != nil {
		return nil, err
	}
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM save_slots WHERE slot = $1`, slot).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loading %q: %w", slot, save.ErrSlotNotFound)
		}
		return nil, fmt.Errorf("loading %q: %w", slot, err)
	}
	return save.Decode(data)
}

// List returns the metadata of every occupied slot, newest first.
func (r *SaveRepository) List(ctx context.Context) ([]save.Metadata, error) {
	rows, err := r.db.Query(ctx, `
		SELECT slot, session_id, saved_at, depth, turn_count, player, player_hp
		FROM save_slots ORDER BY saved_at DESC, slot ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var out []save.Metadata
	for rows.Next() {
		var m save.Metadata
		var turns, hp int64
		if err := rows.Scan(&m.Slot, &m.SessionID, &m.SavedAt, &m.Depth, &turns, &m.Player, &hp); err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		m.TurnCount = uint32(turns)
		m.PlayerHP = uint32(hp)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	return out, nil
}

// Delete removes slot. Deleting an empty slot is not an error.
func (r *SaveRepository) Delete(ctx context.Context, slot string) error {
	if err := save.ValidSlot(slot); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM save_slots WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("deleting %q: %w", slot, err)
	}
	return nil
}
