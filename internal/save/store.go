package save

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DefaultSlots is the slot limit of stores built without an explicit one.
const DefaultSlots = 10

// Store persists snapshots by slot name.
type Store interface {
	// Save writes snap to slot, replacing any previous save there.
	Save(ctx context.Context, slot string, snap *Snapshot) error
	// Load returns the snapshot in slot or ErrSlotNotFound.
	Load(ctx context.Context, slot string) (*Snapshot, error)
	// List returns every occupied slot, newest first.
	List(ctx context.Context) ([]Metadata, error)
	// Delete empties slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context, slot string) error
}

func sortNewestFirst(ms []Metadata) {
	slices.SortFunc(ms, func(a, b Metadata) int {
		if c := b.SavedAt.Compare(a.SavedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Slot, b.Slot)
	})
}

// MemoryStore keeps encoded snapshots in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	maxSlots int
	slots    map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore holding at most maxSlots
// saves; maxSlots <= 0 means DefaultSlots.
func NewMemoryStore(maxSlots int) *MemoryStore {
	if maxSlots <= 0 {
		maxSlots = DefaultSlots
	}
	return &MemoryStore{maxSlots: maxSlots, slots: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, slot string, snap *Snapshot) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.slots[slot]; !exists && len(m.slots) >= m.maxSlots {
		return fmt.Errorf("save.MemoryStore: %q: %w", slot, ErrSlotsFull)
	}
	m.slots[slot] = data
	return nil
}

func (m *MemoryStore) Load(_ context.Context, slot string) (*Snapshot, error) {
	m.mu.Lock()
	data, ok := m.slots[slot]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("save.MemoryStore: %q: %w", slot, ErrSlotNotFound)
	}
	return Decode(data)
}

func (m *MemoryStore) List(_ context.Context) ([]Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Metadata, 0, len(m.slots))
	for slot, data := range m.slots {
		s, err := Decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, s.Metadata(slot))
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}

// fileExt marks save files inside a FileStore directory.
const fileExt = ".sav"

// FileStore keeps one JSON file per slot in a directory. Writes go to a
// temporary file that is renamed into place.
type FileStore struct {
	dir      string
	maxSlots int
}

// NewFileStore creates dir if needed.
//
// Postcondition: returns an error when dir cannot be created.
func NewFileStore(dir string, maxSlots int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("save.NewFileStore: %w", err)
	}
	if maxSlots <= 0 {
		maxSlots = DefaultSlots
	}
	return &FileStore{dir: dir, maxSlots: maxSlots}, nil
}

func (f *FileStore) path(slot string) string { return filepath.Join(f.dir, slot+fileExt) }

func (f *FileStore) slotNames() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("save.FileStore: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	return names, nil
}

func (f *FileStore) Save(ctx context.Context, slot string, snap *Snapshot) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(f.path(slot)); os.IsNotExist(err) {
		names, err := f.slotNames()
		if err != nil {
			return err
		}
		if len(names) >= f.maxSlots {
			return fmt.Errorf("save.FileStore: %q: %w", slot, ErrSlotsFull)
		}
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("save.FileStore: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save.FileStore: writing %q: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save.FileStore: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(slot)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save.FileStore: committing %q: %w", slot, err)
	}
	return nil
}

func (f *FileStore) Load(ctx context.Context, slot string) (*Snapshot, error) {
	if err := ValidSlot(slot); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(slot))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("save.FileStore: %q: %w", slot, ErrSlotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("save.FileStore: %w", err)
	}
	return Decode(data)
}

func (f *FileStore) List(ctx context.Context) ([]Metadata, error) {
	names, err := f.slotNames()
	if err != nil {
		return nil, err
	}
	out := make([]Metadata, 0, len(names))
	for _, slot := range names {
		s, err := f.Load(ctx, slot)
		if err != nil {
			return nil, err
		}
		out = append(out, s.Metadata(slot))
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *FileStore) Delete(_ context.Context, slot string) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	err := os.Remove(f.path(slot))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("save.FileStore: %w", err)
	}
	return nil
}
