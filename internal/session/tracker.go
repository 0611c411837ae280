// Package session coordinates one drill session: the sentence queue, the
// items completed in the current sentence and the per-character history.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hanzidrill/internal/logger"
	"hanzidrill/internal/mastery"
	"hanzidrill/internal/models"
)

// Queue supplies sentences. *catalog.Catalog satisfies it.
type Queue interface {
	ShuffledQueueFor(lessons []string) []models.Sentence
	AdvanceFor(queue []models.Sentence, lessons []string) []models.Sentence
}

type ChangeKind string

const (
	ChangeHistory ChangeKind = "history"
	ChangeSession ChangeKind = "session"
	ChangeAdvance ChangeKind = "advance"
	ChangeLessons ChangeKind = "lessons"
	ChangeReset   ChangeKind = "reset"
)

// Change is published after every mutation of the persistable state.
// Snapshot is shared between listeners and must not be modified.
type Change struct {
	Kind     ChangeKind
	Version  uint64
	Snapshot *models.Snapshot
}

// Stats counts history entries per state
type Stats struct {
	Green  int
	Yellow int
	Red    int
}

func (s Stats) Total() int {
	return s.Green + s.Yellow + s.Red
}

type listener struct {
	id int
	fn func(Change)
}

// Tracker is the single owner of the history, session and queue state.
// Every mutation builds a new snapshot and swaps it in; published snapshots
// are never written to again.
type Tracker struct {
	queue      Queue
	thresholds map[mastery.Mode]mastery.Thresholds
	now        func() time.Time
	newID      func() string
	log        *zap.Logger

	mu        sync.Mutex
	state     *models.Snapshot
	version   uint64
	completed int
	sessionID string
	nextSub   int
	listeners []listener
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

func WithThresholds(mode mastery.Mode, th mastery.Thresholds) Option {
	return func(t *Tracker) { t.thresholds[mode] = th }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// New returns a tracker holding the default state: empty history and
// sessions and a freshly shuffled queue.
func New(queue Queue, opts ...Option) *Tracker {
	t := &Tracker{
		queue: queue,
		thresholds: map[mastery.Mode]mastery.Thresholds{
			mastery.ModeCharacter: mastery.DefaultThresholds(mastery.ModeCharacter),
			mastery.ModePinyin:    mastery.DefaultThresholds(mastery.ModePinyin),
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = logger.OrNop(t.log).Named("session")

	t.state = models.NewSnapshot()
	t.state.Sentences = queue.ShuffledQueueFor(nil)
	return t
}

// Restore replaces the state with a loaded snapshot. The completed count
// always starts at zero, and an empty queue is refilled. A nil snapshot
// restores the default state.
func (t *Tracker) Restore(snap *models.Snapshot) {
	next := snap.Clone()
	if next == nil {
		next = models.NewSnapshot()
	}
	if len(next.Sentences) == 0 {
		next.Sentences = t.queue.ShuffledQueueFor(next.Lessons)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = next
	t.completed = 0
}

// Subscribe registers fn for every published change
func (t *Tracker) Subscribe(fn func(Change)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	t.listeners = append(t.listeners, listener{id: id, fn: fn})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.listeners = slices.DeleteFunc(slices.Clone(t.listeners), func(l listener) bool { return l.id == id })
	}
}

// mutate applies fn to a copy of the state under the lock. When fn reports a
// change the copy becomes the state and is published after the lock is released.
func (t *Tracker) mutate(kind ChangeKind, fn func(next *models.Snapshot) bool) {
	t.mu.Lock()
	next := t.state.Clone()
	if !fn(next) {
		t.mu.Unlock()
		return
	}
	t.state = next
	t.version++
	ch := Change{Kind: kind, Version: t.version, Snapshot: next}
	listeners := t.listeners
	t.mu.Unlock()

	for _, l := range listeners {
		l.fn(ch)
	}
}

// BeginSession mints a session id and records when it started
func (t *Tracker) BeginSession() string {
	id := t.newID()
	started := t.now()

	t.mutate(ChangeSession, func(next *models.Snapshot) bool {
		next.Sessions[id] = models.SessionRecord{StartedAt: started}
		t.sessionID = id
		return true
	})

	t.log.Debug("session started", zap.String("session", id))
	return id
}

// SessionID returns the id of the running session, empty before BeginSession
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// Current returns the head of the queue
func (t *Tracker) Current() (models.Sentence, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.state.Sentences) == 0 {
		return models.Sentence{}, false
	}
	return t.state.Sentences[0], true
}

// OnItemCompleted counts a finished item of the current sentence
func (t *Tracker) OnItemCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
}

func (t *Tracker) CompletedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// IsDone reports whether every item of the current sentence has completed
func (t *Tracker) IsDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.state.Sentences) == 0 {
		return false
	}
	return t.completed == len(t.state.Sentences[0].Words)
}

// AdvanceSentence moves to the next sentence. Skipping and continuing after
// completion are the same operation.
func (t *Tracker) AdvanceSentence(skip bool) {
	t.mutate(ChangeAdvance, func(next *models.Snapshot) bool {
		done := len(next.Sentences) > 0 && t.completed == len(next.Sentences[0].Words)
		t.log.Debug("advancing sentence", zap.Bool("skip", skip), zap.Bool("done", done))

		t.completed = 0
		next.Sentences = t.queue.AdvanceFor(next.Sentences, next.Lessons)
		return true
	})
}

// UpdateHistory records the outcome for a character. A record whose state is
// unchanged is left alone, session id included.
func (t *Tracker) UpdateHistory(character string, state models.MasteryState, sessionID string) {
	t.mutate(ChangeHistory, func(next *models.Snapshot) bool {
		if prev, ok := next.History[character]; ok && prev.State == state {
			return false
		}
		next.History[character] = models.MasteryRecord{State: state, LastSessionID: sessionID}
		return true
	})
}

// ResetHistory clears every history record and restarts the current
// sentence. Listeners of ChangeReset remount whatever they show.
func (t *Tracker) ResetHistory() {
	t.mutate(ChangeReset, func(next *models.Snapshot) bool {
		next.History = map[string]models.MasteryRecord{}
		t.completed = 0
		return true
	})
	t.log.Info("history cleared")
}

// SetLessons restricts the queue to the given lessons; nil selects all.
// Queued sentences outside the selection are dropped, and the queue is
// rebuilt when nothing selected is left in it.
func (t *Tracker) SetLessons(lessons []string) {
	lessons = slices.Compact(slices.Sorted(slices.Values(lessons)))

	t.mutate(ChangeLessons, func(next *models.Snapshot) bool {
		if slices.Equal(next.Lessons, lessons) {
			return false
		}
		next.Lessons = lessons
		if len(lessons) == 0 {
			return true
		}

		var head string
		if len(next.Sentences) > 0 {
			head = next.Sentences[0].ID
		}
		kept := slices.DeleteFunc(next.Sentences, func(s models.Sentence) bool {
			return !slices.Contains(lessons, s.Lesson)
		})
		if len(kept) == 0 {
			kept = t.queue.ShuffledQueueFor(lessons)
		}
		if len(kept) == 0 || kept[0].ID != head {
			t.completed = 0
		}
		next.Sentences = kept
		return true
	})
}

// Lessons returns the active lesson filter
func (t *Tracker) Lessons() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.state.Lessons)
}

// Snapshot returns a copy of the persistable state
func (t *Tracker) Snapshot() *models.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Stats counts the history by state
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s Stats
	for _, r := range t.state.History {
		switch r.State {
		case models.Green:
			s.Green++
		case models.Yellow:
			s.Yellow++
		case models.Red:
			s.Red++
		}
	}
	return s
}

// Mount prepares an item of the current sentence for drilling. Punctuation
// completes immediately and gets no machine.
func (t *Tracker) Mount(item models.DrillableItem, mode mastery.Mode) *mastery.Machine {
	if item.IsPunctuation() {
		t.OnItemCompleted()
		return nil
	}

	th, ok := t.thresholds[mode]
	if !ok {
		th = mastery.DefaultThresholds(mode)
	}

	m := mastery.New(item, t.SessionID(), th, t)
	m.OnSolved(func(mastery.SolvedEvent) { t.OnItemCompleted() })
	return m
}
