package world

// The methods below let an Entity take part in combat directly. Health and
// combat attributes come from the boss encounter when present, otherwise
// from Stats. An entity with neither behaves as a dead, zero-stat combatant.

// Name returns the actor's display name.
func (e *Entity) Name() string { return e.Actor.Name }

// HP returns current health.
func (e *Entity) HP() uint32 {
	switch {
	case e.Boss != nil:
		return e.Boss.HP
	case e.Stats != nil:
		return e.Stats.HP
	}
	return 0
}

// MaxHP returns maximum health.
func (e *Entity) MaxHP() uint32 {
	switch {
	case e.Boss != nil:
		return e.Boss.MaxHP
	case e.Stats != nil:
		return e.Stats.MaxHP
	}
	return 0
}

// AttackPower includes boss phase scaling.
func (e *Entity) AttackPower() uint32 {
	switch {
	case e.Boss != nil:
		return e.Boss.AttackPower()
	case e.Stats != nil:
		return e.Stats.Attack
	}
	return 0
}

func (e *Entity) Defense() uint32 {
	switch {
	case e.Boss != nil:
		return e.Boss.Defense
	case e.Stats != nil:
		return e.Stats.Defense
	}
	return 0
}

func (e *Entity) Accuracy() uint32 {
	switch {
	case e.Boss != nil:
		return e.Boss.Accuracy()
	case e.Stats != nil:
		return e.Stats.Accuracy
	}
	return 0
}

func (e *Entity) Evasion() uint32 {
	switch {
	case e.Boss != nil:
		return e.Boss.Evasion()
	case e.Stats != nil:
		return e.Stats.Evasion
	}
	return 0
}

func (e *Entity) CritBonus() float64 {
	switch {
	case e.Boss != nil:
		return e.Boss.CritBonus()
	case e.Stats != nil:
		return e.Stats.CritBonus
	}
	return 0
}

// AttackDistance is at least 1 for any combat-capable entity.
func (e *Entity) AttackDistance() uint32 {
	switch {
	case e.Boss != nil:
		return max(e.Boss.AttackDistance, 1)
	case e.Stats != nil:
		return max(e.Stats.Range, 1)
	}
	return 0
}

// IsAlive reports whether the entity still has health.
func (e *Entity) IsAlive() bool { return e.HP() > 0 }

// TakeDamage applies amount, through the boss shield when present, and
// returns the health lost.
func (e *Entity) TakeDamage(amount uint32) uint32 {
	switch {
	case e.Boss != nil:
		return e.Boss.TakeDamage(amount)
	case e.Stats != nil:
		return e.Stats.Damage(amount)
	}
	return 0
}

// Heal restores amount, clamped to MaxHP.
func (e *Entity) Heal(amount uint32) {
	switch {
	case e.Boss != nil:
		e.Boss.Heal(amount)
	case e.Stats != nil:
		e.Stats.Heal(amount)
	}
}

// ExperienceValue is what defeating the entity is worth.
func (e *Entity) ExperienceValue() uint32 {
	switch {
	case e.Boss != nil:
		return e.Boss.Experience
	case e.Stats != nil:
		return e.Stats.Experience
	}
	return 0
}
