package achievement

import "math"

// Progress holds the counters achievements are measured against. All
// arithmetic saturates.
type Progress struct {
	Kills          uint32 `json:"kills"`
	MaxDepth       uint32 `json:"max_depth"`
	ItemsCollected uint32 `json:"items_collected"`
	TurnsSurvived  uint32 `json:"turns_survived"`
	BossesDefeated uint32 `json:"bosses_defeated"`
	GoldCollected  uint32 `json:"gold_collected"`
	RareItemsFound uint32 `json:"rare_items_found"`
}

func (p Progress) counter(c Criteria) uint32 {
	switch c {
	case Kills:
		return p.Kills
	case Depth:
		return p.MaxDepth
	case Items:
		return p.ItemsCollected
	case Turns:
		return p.TurnsSurvived
	case Bosses:
		return p.BossesDefeated
	case Gold:
		return p.GoldCollected
	case RareItems:
		return p.RareItemsFound
	}
	return 0
}

func addSat(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// Manager tracks progress and unlock state for one player. It is not safe
// for concurrent use.
//
// Invariant: newly is a subset of unlocked, in unlock order.
type Manager struct {
	defs     []Definition
	progress Progress
	unlocked map[ID]bool
	newly    []ID
}

// NewManager creates a manager over defs with nothing unlocked.
//
// Precondition: defs came from ParseDefinitions or Builtin.
func NewManager(defs []Definition) *Manager {
	return &Manager{defs: defs, unlocked: make(map[ID]bool, len(defs))}
}

// Definitions returns the definitions in declaration order.
func (m *Manager) Definitions() []Definition { return m.defs }

// Definition returns the definition for id.
func (m *Manager) Definition(id ID) (Definition, bool) {
	for _, d := range m.defs {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Progress returns a copy of the counters.
func (m *Manager) Progress() Progress { return m.progress }

// IsUnlocked reports whether id has been unlocked.
func (m *Manager) IsUnlocked(id ID) bool { return m.unlocked[id] }

// Unlocked returns the unlocked ids in declaration order.
func (m *Manager) Unlocked() []ID {
	var out []ID
	for _, d := range m.defs {
		if m.unlocked[d.ID] {
			out = append(out, d.ID)
		}
	}
	return out
}

// CheckAndUnlock unlocks every definition whose criteria are met and
// returns the ids unlocked by this call in declaration order.
func (m *Manager) CheckAndUnlock() []ID {
	var got []ID
	for _, d := range m.defs {
		if m.unlocked[d.ID] || !d.Met(m.progress) {
			continue
		}
		m.unlocked[d.ID] = true
		got = append(got, d.ID)
	}
	m.newly = append(m.newly, got...)
	return got
}

// DrainNewlyUnlocked returns and clears the ids unlocked since the last drain.
func (m *Manager) DrainNewlyUnlocked() []ID {
	out := m.newly
	m.newly = nil
	return out
}

func (m *Manager) OnKill() []ID {
	m.progress.Kills = addSat(m.progress.Kills, 1)
	return m.CheckAndUnlock()
}

// OnLevelChange records depth; the maximum never decreases.
func (m *Manager) OnLevelChange(depth int) []ID {
	if depth > 0 {
		m.progress.MaxDepth = max(m.progress.MaxDepth, uint32(depth))
	}
	return m.CheckAndUnlock()
}

func (m *Manager) OnItemPickup() []ID {
	m.progress.ItemsCollected = addSat(m.progress.ItemsCollected, 1)
	return m.CheckAndUnlock()
}

// OnRareItem records a unique item find.
func (m *Manager) OnRareItem() []ID {
	m.progress.RareItemsFound = addSat(m.progress.RareItemsFound, 1)
	return m.CheckAndUnlock()
}

// OnTurnEnd sets the survived-turn counter to turn.
func (m *Manager) OnTurnEnd(turn uint32) []ID {
	m.progress.TurnsSurvived = turn
	return m.CheckAndUnlock()
}

func (m *Manager) OnBossDefeat() []ID {
	m.progress.BossesDefeated = addSat(m.progress.BossesDefeated, 1)
	return m.CheckAndUnlock()
}

func (m *Manager) OnGoldCollected(amount uint32) []ID {
	m.progress.GoldCollected = addSat(m.progress.GoldCollected, amount)
	return m.CheckAndUnlock()
}

// UnlockPercentage is the unlocked fraction in [0, 1].
func (m *Manager) UnlockPercentage() float64 {
	if len(m.defs) == 0 {
		return 0
	}
	return float64(len(m.Unlocked())) / float64(len(m.defs))
}

// Reset clears progress and every unlock.
func (m *Manager) Reset() {
	m.progress = Progress{}
	clear(m.unlocked)
	m.newly = nil
}

// State is the persisted form of a Manager.
type State struct {
	Progress Progress `json:"progress"`
	Unlocked []ID     `json:"unlocked"`
}

// State captures progress and unlocks for a save.
func (m *Manager) State() State {
	return State{Progress: m.progress, Unlocked: m.Unlocked()}
}

// Restore replaces progress and unlocks from s. Unknown ids are ignored.
func (m *Manager) Restore(s State) {
	m.Reset()
	m.progress = s.Progress
	for _, id := range s.Unlocked {
		if _, ok := m.Definition(id); ok {
			m.unlocked[id] = true
		}
	}
}
