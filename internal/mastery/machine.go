// Package mastery tracks the drilling of one item during one appearance.
//
// Two tracks move forward through green, yellow and red: Primary is the
// outcome written to history when the item is solved, Reveal is how much of
// the solution the user has been shown. Neither ever moves backwards.
package mastery

import (
	"sync"

	"hanzidrill/internal/models"
)

// Command tells the drill widget what to render
type Command string

const (
	RevealPartial Command = "partial" // outline or first letters
	RevealFull    Command = "full"    // the whole solution
	Replay        Command = "replay"  // animate the solution again
)

// Recorder receives the history write made when an item is solved
type Recorder interface {
	UpdateHistory(character string, state models.MasteryState, sessionID string)
}

// SolvedEvent is emitted once per machine, when it completes
type SolvedEvent struct {
	Character string
	State     models.MasteryState
	SessionID string
}

// Context is the state of a machine at one instant
type Context struct {
	Primary   models.MasteryState
	Reveal    models.MasteryState
	Mistakes  int
	Completed bool
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Machine drives one DrillableItem. All methods are safe to call from
// several goroutines; each transition reads one Context and swaps in the next.
type Machine struct {
	item       models.DrillableItem
	sessionID  string
	thresholds Thresholds
	recorder   Recorder

	mu     sync.Mutex
	ctx    Context
	nextID int
	solved []subscription[SolvedEvent]
	hints  []subscription[Command]
}

// New returns a machine in the green, unrevealed state. recorder may be nil.
func New(item models.DrillableItem, sessionID string, th Thresholds, recorder Recorder) *Machine {
	return &Machine{
		item:       item,
		sessionID:  sessionID,
		thresholds: th,
		recorder:   recorder,
	}
}

func (m *Machine) Item() models.DrillableItem {
	return m.item
}

// State returns the current context
func (m *Machine) State() Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

// OnSolved registers cb for the solved event and returns its unsubscribe func
func (m *Machine) OnSolved(cb func(SolvedEvent)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.solved = append(m.solved, subscription[SolvedEvent]{id: id, fn: cb})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.solved = removeSub(m.solved, id)
	}
}

// OnHintShown registers cb for widget commands and returns its unsubscribe func
func (m *Machine) OnHintShown(cb func(Command)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.hints = append(m.hints, subscription[Command]{id: id, fn: cb})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.hints = removeSub(m.hints, id)
	}
}

func removeSub[T any](subs []subscription[T], id int) []subscription[T] {
	out := make([]subscription[T], 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// effects collects what a transition wants announced once the lock is released
type effects struct {
	command Command
	solved  bool
}

func (m *Machine) transition(step func(Context) (Context, effects)) {
	m.mu.Lock()
	next, fx := step(m.ctx)
	m.ctx = next
	hints := m.hints
	solved := m.solved
	m.mu.Unlock()

	if fx.command != "" {
		for _, s := range hints {
			s.fn(fx.command)
		}
	}
	if fx.solved {
		if m.recorder != nil {
			m.recorder.UpdateHistory(m.item.Character, next.Primary, m.sessionID)
		}
		ev := SolvedEvent{Character: m.item.Character, State: next.Primary, SessionID: m.sessionID}
		for _, s := range solved {
			s.fn(ev)
		}
	}
}

// OnMistake counts a wrong attempt and demotes Primary when a threshold is hit
func (m *Machine) OnMistake() {
	m.transition(func(c Context) (Context, effects) {
		if c.Completed {
			return c, effects{}
		}
		c.Mistakes++
		switch {
		case c.Primary == models.Green && c.Mistakes >= m.thresholds.ToYellow:
			c.Primary = models.Yellow
			c.Mistakes = 0
		case c.Primary == models.Yellow && c.Mistakes >= m.thresholds.ToRed:
			c.Primary = models.Red
			c.Mistakes = 0
		}
		return c, effects{}
	})
}

// OnRequestHint reveals part of the solution, then all of it. Asking again
// after the item is solved only replays the solution.
func (m *Machine) OnRequestHint() {
	m.transition(func(c Context) (Context, effects) {
		if c.Completed {
			return c, effects{command: Replay}
		}
		switch c.Reveal {
		case models.Green:
			c.Reveal = models.Yellow
			c.Primary = c.Primary.Max(models.Yellow)
			return c, effects{command: RevealPartial}
		default:
			c.Reveal = models.Red
			c.Primary = models.Red
			c.Completed = true
			return c, effects{command: RevealFull, solved: true}
		}
	})
}

// OnSolvedCorrectly completes the item with whatever Primary it has reached
func (m *Machine) OnSolvedCorrectly() {
	m.transition(func(c Context) (Context, effects) {
		if c.Completed {
			return c, effects{}
		}
		c.Completed = true
		return c, effects{solved: true}
	})
}
