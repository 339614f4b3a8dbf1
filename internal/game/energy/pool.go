// Package energy implements the per-entity energy pool that gates whose turn
// it is and how much each action costs.
package energy

const (
	// ActionCost is the energy an entity must hold to act, and the price of
	// any full action.
	ActionCost uint32 = 100
	// FullAction is the cost of moving, attacking, using an item or changing level.
	FullAction = ActionCost
	// WaitAction is the cost of resting in place.
	WaitAction uint32 = 50
	// FreeAction is the cost of quitting and menu interactions.
	FreeAction uint32 = 0

	// DefaultMax and DefaultRegen are the pool values for newly spawned actors.
	DefaultMax   uint32 = 100
	DefaultRegen uint32 = 1
)

// Pool is an entity's energy resource.
//
// Invariant: Current <= Max.
type Pool struct {
	Current   uint32 `json:"current"`
	Max       uint32 `json:"max"`
	RegenRate uint32 `json:"regeneration_rate"`
}

// NewPool returns a full pool with the given capacity and regeneration rate.
func NewPool(maxEnergy, regen uint32) Pool {
	return Pool{Current: maxEnergy, Max: maxEnergy, RegenRate: regen}
}

// Full returns the default full pool.
func Full() Pool {
	return NewPool(DefaultMax, DefaultRegen)
}

// CanAct reports whether the pool holds at least ActionCost.
func (p Pool) CanAct() bool {
	return p.Current >= ActionCost
}

// Spend deducts cost, saturating at zero. It reports whether the full cost
// was available.
//
// Postcondition: Current <= Max.
func (p *Pool) Spend(cost uint32) bool {
	if cost > p.Current {
		p.Current = 0
		return false
	}
	p.Current -= cost
	return true
}

// Regenerate adds RegenRate, clamped to Max.
func (p *Pool) Regenerate() {
	p.Current = min(p.Current+p.RegenRate, p.Max)
}

// Refill restores the pool to Max.
func (p *Pool) Refill() {
	p.Current = p.Max
}

// Clamp re-establishes the invariant after an external write (save restore).
func (p *Pool) Clamp() {
	if p.Current > p.Max {
		p.Current = p.Max
	}
}
