package effect

// Collection tracks every effect currently applied to one entity, in
// insertion order. It is not safe for concurrent use; the caller must
// serialise access.
//
// Invariant: at most one entry per non-stackable type.
// Invariant: no two entries have conflicting types.
type Collection struct {
	effects []StatusEffect
}

// NewCollection creates an empty Collection.
func NewCollection() *Collection {
	return &Collection{}
}

// CollectionOf builds a Collection by adding effects in order.
func CollectionOf(effects ...StatusEffect) *Collection {
	c := NewCollection()
	for _, e := range effects {
		c.Add(e)
	}
	return c
}

// Add applies e.
//
// Conflicting effects are purged first. A stackable e is appended as an
// independent entry. A non-stackable e already present is merged into the
// existing entry, keeping the higher duration and the higher intensity.
//
// Postcondition: Has(e.Type) is true.
func (c *Collection) Add(e StatusEffect) {
	e.Intensity = clampIntensity(e.Intensity)

	kept := c.effects[:0]
	for _, existing := range c.effects {
		if !e.Type.ConflictsWith(existing.Type) {
			kept = append(kept, existing)
		}
	}
	c.effects = kept

	if e.Type.Stackable() {
		c.effects = append(c.effects, e)
		return
	}
	for i := range c.effects {
		if c.effects[i].Type != e.Type {
			continue
		}
		c.effects[i].RemainingTurns = max(c.effects[i].RemainingTurns, e.RemainingTurns)
		c.effects[i].Intensity = max(c.effects[i].Intensity, e.Intensity)
		return
	}
	c.effects = append(c.effects, e)
}

// Has reports whether any instance of t is active.
func (c *Collection) Has(t Type) bool {
	for _, e := range c.effects {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Remove deletes every instance of t and returns the first one removed.
//
// Postcondition: Has(t) is false.
func (c *Collection) Remove(t Type) (StatusEffect, bool) {
	var (
		first StatusEffect
		found bool
	)
	kept := c.effects[:0]
	for _, e := range c.effects {
		if e.Type == t {
			if !found {
				first, found = e, true
			}
			continue
		}
		kept = append(kept, e)
	}
	c.effects = kept
	return first, found
}

// Clear removes every effect.
func (c *Collection) Clear() {
	c.effects = nil
}

// Len returns the number of entries, counting stacked instances separately.
func (c *Collection) Len() int {
	return len(c.effects)
}

// All returns a copy of the entries in insertion order.
func (c *Collection) All() []StatusEffect {
	out := make([]StatusEffect, len(c.effects))
	copy(out, c.effects)
	return out
}

// Intensity returns the highest intensity among instances of t, or 0.
func (c *Collection) Intensity(t Type) uint8 {
	var best uint8
	for _, e := range c.effects {
		if e.Type == t && e.Intensity > best {
			best = e.Intensity
		}
	}
	return best
}

// Tick is one resolution step for a single entry.
type Tick struct {
	Effect  StatusEffect // state after the decrement
	Damage  uint32
	Expired bool
}

// Advance computes each entry's damage, decrements its duration, and drops
// entries that reached zero. Ticks are returned in insertion order so callers
// can apply damage and emit events deterministically.
//
// Postcondition: no returned Tick with Expired == false has RemainingTurns == 0;
// no expired entry remains in the collection.
func (c *Collection) Advance() []Tick {
	ticks := make([]Tick, 0, len(c.effects))
	kept := c.effects[:0]
	for _, e := range c.effects {
		dmg := e.DamagePerTurn()
		active := e.Update()
		ticks = append(ticks, Tick{Effect: e, Damage: dmg, Expired: !active})
		if active {
			kept = append(kept, e)
		}
	}
	c.effects = kept
	return ticks
}
