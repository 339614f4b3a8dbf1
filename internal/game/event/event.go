// Package event defines the closed set of game events and the phase-aware
// bus that orders and delivers them.
//
// Events carry identifiers and primitive values only, never entity
// references, so they stay valid after the entities they name are despawned.
package event

import (
	"fmt"
	"reflect"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Category groups events by the subsystem that produces them.
type Category uint8

const (
	CategoryCombat Category = iota
	CategoryMovement
	CategoryStatus
	CategoryAI
	CategoryItem
	CategoryTurn
	CategoryGame
	CategoryEnvironment
	CategoryAction
	CategorySystem
	CategoryLog
)

func (c Category) String() string {
	names := [...]string{"combat", "movement", "status", "ai", "item", "turn", "game", "environment", "action", "system", "log"}
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Event is implemented only by the variant types in this package.
type Event interface {
	Category() Category
	isEvent()
}

// TypeName returns the variant name of e, e.g. "DamageDealt".
func TypeName(e Event) string {
	t := reflect.TypeOf(e)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

type combat struct{}

func (combat) Category() Category { return CategoryCombat }
func (combat) isEvent()           {}

type movement struct{}

func (movement) Category() Category { return CategoryMovement }
func (movement) isEvent()           {}

type status struct{}

func (status) Category() Category { return CategoryStatus }
func (status) isEvent()           {}

type ai struct{}

func (ai) Category() Category { return CategoryAI }
func (ai) isEvent()           {}

type item struct{}

func (item) Category() Category { return CategoryItem }
func (item) isEvent()           {}

type turn struct{}

func (turn) Category() Category { return CategoryTurn }
func (turn) isEvent()           {}

type game struct{}

func (game) Category() Category { return CategoryGame }
func (game) isEvent()           {}

type environment struct{}

func (environment) Category() Category { return CategoryEnvironment }
func (environment) isEvent()           {}

type action struct{}

func (action) Category() Category { return CategoryAction }
func (action) isEvent()           {}

type system struct{}

func (system) Category() Category { return CategorySystem }
func (system) isEvent()           {}

type logCat struct{}

func (logCat) Category() Category { return CategoryLog }
func (logCat) isEvent()           {}

// Movement.

type EntityMoved struct {
	movement
	Entity   world.EntityID
	From, To world.Position
}

// Combat.

type CombatStarted struct {
	combat
	Attacker, Defender world.EntityID
}

type DamageDealt struct {
	combat
	Attacker, Victim world.EntityID
	Damage           uint32
	Critical         bool
}

type CombatBlocked struct {
	combat
	Attacker, Defender world.EntityID
	Blocked            uint32
}

// CombatParried is published when an attack misses outright.
type CombatParried struct {
	combat
	Attacker, Defender world.EntityID
	ParryDamage        uint32
}

// EntityDied carries the name because the entity is gone by the time
// consumers see the event. Killer is NoEntity for deaths from effects.
type EntityDied struct {
	combat
	Entity world.EntityID
	Name   string
	Killer world.EntityID
	Player bool
}

type BossPhaseChanged struct {
	combat
	Entity   world.EntityID
	Boss     boss.Type
	From, To boss.Phase
}

type BossSkillUsed struct {
	combat
	Entity world.EntityID
	Boss   boss.Type
	Skill  boss.SkillKind
}

type BossDefeated struct {
	combat
	Entity world.EntityID
	Boss   boss.Type
	Loot   boss.Loot
}

// Status.

type StatusApplied struct {
	status
	Entity    world.EntityID
	Status    effect.Type
	Duration  uint32
	Intensity uint8
}

type StatusRemoved struct {
	status
	Entity  world.EntityID
	Status  effect.Type
	Expired bool
}

type StatusStacked struct {
	status
	Entity                     world.EntityID
	Status                     effect.Type
	OldIntensity, NewIntensity uint8
}

type StatusEffectTicked struct {
	status
	Entity         world.EntityID
	Status         effect.Type
	Damage         uint32
	RemainingTurns uint32
}

type PlayerHungry struct {
	status
	Satiety uint8
}

type PlayerStarving struct {
	status
}

type StarvationDamage struct {
	status
	Damage uint32
}

// AI.

type AIDecisionMade struct {
	ai
	Entity   world.EntityID
	Decision string
}

type AITargetChanged struct {
	ai
	Entity   world.EntityID
	Old, New world.EntityID
}

// Items.

type ItemPickedUp struct {
	item
	Entity world.EntityID
	Item   string
}

type ItemDropped struct {
	item
	Entity world.EntityID
	Item   string
}

type ItemUsed struct {
	item
	Entity world.EntityID
	Item   string
	Effect string
}

// Turn flow.

type TurnEnded struct {
	turn
	Turn uint32
}

type PlayerTurnStarted struct{ turn }

type AITurnStarted struct{ turn }

// Game state.

type GameOver struct {
	game
	Reason string
}

type Victory struct{ game }

type GamePaused struct{ game }

type GameResumed struct{ game }

type LevelChanged struct {
	game
	OldDepth, NewDepth int
}

type AchievementUnlocked struct {
	game
	ID   string
	Name string
}

// Environment.

type TrapTriggered struct {
	environment
	Entity world.EntityID
	Trap   string
}

type DoorOpened struct {
	environment
	Entity world.EntityID
	At     world.Position
}

// Actions.

type ActionIntended struct {
	action
	Entity   world.EntityID
	Action   string
	Priority uint32
}

type ActionFailed struct {
	action
	Entity world.EntityID
	Action string
	Reason string
}

// System.

type GameSaved struct {
	system
	Slot string
}

type GameLoaded struct {
	system
	Slot string
}

// LogLevel ranks LogMessage severity.
type LogLevel uint8

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarning
	LogError
)

type LogMessage struct {
	logCat
	Message string
	Level   LogLevel
}

// Info is shorthand for an informational LogMessage.
func Info(format string, args ...any) LogMessage {
	return LogMessage{Message: fmt.Sprintf(format, args...), Level: LogInfo}
}

// Warn is shorthand for a warning LogMessage.
func Warn(format string, args ...any) LogMessage {
	return LogMessage{Message: fmt.Sprintf(format, args...), Level: LogWarning}
}
