package systems

import "fmt"

// Outcome is the tri-state verdict of one system run.
type Outcome uint8

const (
	OutcomeContinue Outcome = iota
	OutcomeStop
	OutcomeError
)

// Result is returned by every system. Stop ends the outer loop gracefully;
// Error is logged and also ends it.
type Result struct {
	Outcome Outcome
	Err     error
}

// Continue lets the pipeline proceed.
func Continue() Result { return Result{Outcome: OutcomeContinue} }

// Stop halts the pipeline and the outer loop.
func Stop() Result { return Result{Outcome: OutcomeStop} }

// Error halts the pipeline because of err.
func Error(err error) Result { return Result{Outcome: OutcomeError, Err: err} }

// IsContinue reports whether the pipeline may proceed.
func (r Result) IsContinue() bool { return r.Outcome == OutcomeContinue }

func (r Result) String() string {
	switch r.Outcome {
	case OutcomeContinue:
		return "continue"
	case OutcomeStop:
		return "stop"
	}
	return fmt.Sprintf("error: %v", r.Err)
}

// StatusKind is the coarse game state.
type StatusKind uint8

const (
	Running StatusKind = iota
	Paused
	MainMenu
	ConfirmQuit
	GameOver
	Victory
)

var statusNames = [...]string{
	Running:     "running",
	Paused:      "paused",
	MainMenu:    "main_menu",
	ConfirmQuit: "confirm_quit",
	GameOver:    "game_over",
	Victory:     "victory",
}

func (k StatusKind) String() string {
	if int(k) < len(statusNames) {
		return statusNames[k]
	}
	return fmt.Sprintf("status(%d)", uint8(k))
}

// ReasonKind says why a game ended.
type ReasonKind uint8

const (
	Died ReasonKind = iota
	Defeated
	Starved
	Trapped
	Quit
)

// GameOverReason explains a GameOver. By names the killer for Defeated.
type GameOverReason struct {
	Kind ReasonKind `json:"kind"`
	By   string     `json:"by,omitempty"`
}

// DefeatedBy is the reason for being killed by a named enemy.
func DefeatedBy(name string) GameOverReason { return GameOverReason{Kind: Defeated, By: name} }

func (r GameOverReason) String() string {
	switch r.Kind {
	case Died:
		return "died"
	case Defeated:
		return "defeated by " + r.By
	case Starved:
		return "starved to death"
	case Trapped:
		return "killed by a trap"
	case Quit:
		return "quit"
	}
	return "unknown"
}

// Status is the session's game state. Reason is meaningful only when Kind
// is GameOver.
type Status struct {
	Kind   StatusKind     `json:"kind"`
	Reason GameOverReason `json:"reason"`
}

// Over reports whether the session has ended in defeat or victory.
func (s Status) Over() bool { return s.Kind == GameOver || s.Kind == Victory }

// End sets GameOver with reason unless the game is already over.
//
// Postcondition: Over() is true.
func (s *Status) End(reason GameOverReason) {
	if s.Over() {
		return
	}
	s.Kind = GameOver
	s.Reason = reason
}

// Win sets Victory unless the game is already over.
func (s *Status) Win() {
	if s.Over() {
		return
	}
	s.Kind = Victory
}

// TogglePause flips between Running and Paused; other states are unchanged.
func (s *Status) TogglePause() {
	switch s.Kind {
	case Running:
		s.Kind = Paused
	case Paused:
		s.Kind = Running
	}
}

func (s Status) String() string {
	if s.Kind == GameOver {
		return fmt.Sprintf("%s (%s)", s.Kind, s.Reason)
	}
	return s.Kind.String()
}
