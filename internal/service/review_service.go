package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"hanzidrill/internal/logger"
	"hanzidrill/internal/mastery"
	"hanzidrill/internal/models"
	"hanzidrill/internal/persistence"
	"hanzidrill/internal/session"
	"hanzidrill/internal/storage"
)

// ErrNotStarted is returned by operations that need a running session
var ErrNotStarted = errors.New("review session not started")

// HistoryEntry is one row of the history view
type HistoryEntry struct {
	Character string
	State     models.MasteryState
	SessionID string
	StartedAt time.Time // zero when the session record is missing
	Relative  string    // "3 minutes ago", empty when StartedAt is zero
}

// ReviewService wires the catalog, the tracker and the persistence adapter
// into one drill.
type ReviewService struct {
	queue   session.Queue
	adapter *persistence.Adapter
	mode    mastery.Mode
	opts    []session.Option
	now     func() time.Time
	log     *zap.Logger

	mu      sync.Mutex
	tracker *session.Tracker
	detach  func()
}

type ReviewOption func(*ReviewService)

// WithSessionOptions passes options through to the tracker
func WithSessionOptions(opts ...session.Option) ReviewOption {
	return func(s *ReviewService) { s.opts = append(s.opts, opts...) }
}

// WithNow sets the clock the history view measures against
func WithNow(now func() time.Time) ReviewOption {
	return func(s *ReviewService) { s.now = now }
}

func WithReviewLogger(l *zap.Logger) ReviewOption {
	return func(s *ReviewService) { s.log = l }
}

// NewReviewService creates a review service reading and writing key in kv
func NewReviewService(queue session.Queue, kv storage.KV, key string, mode mastery.Mode, opts ...ReviewOption) *ReviewService {
	s := &ReviewService{
		queue: queue,
		mode:  mode,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log).Named("review")
	s.adapter = persistence.New(kv, key, s.log)
	return s
}

// Start restores the saved state, or the defaults when there is none, begins a
// new session and saves after every change from then on. Starting a stopped
// service saves its current state and resumes saving.
func (s *ReviewService) Start(ctx context.Context) *session.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracker != nil {
		if s.detach == nil {
			s.adapter.Save(ctx, s.tracker.Snapshot())
			s.detach = s.adapter.Attach(ctx, s.tracker)
			s.log.Info("review resumed", zap.String("session", s.tracker.SessionID()))
		}
		return s.tracker
	}

	tr := session.New(s.queue, append([]session.Option{session.WithLogger(s.log)}, s.opts...)...)
	if snap := s.adapter.Load(ctx); snap != nil {
		tr.Restore(snap)
	}
	s.detach = s.adapter.Attach(ctx, tr)
	id := tr.BeginSession()

	s.log.Info("review started",
		zap.String("session", id),
		zap.String("mode", string(s.mode)),
		zap.Int("history", len(tr.Snapshot().History)))

	s.tracker = tr
	return tr
}

// Stop detaches persistence. Later changes are not saved.
func (s *ReviewService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}

func (s *ReviewService) Tracker() *session.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker
}

func (s *ReviewService) Mode() mastery.Mode {
	return s.mode
}

// Round is the current sentence with a machine for each drillable item.
// Punctuation has already been completed and its machine is nil.
type Round struct {
	Sentence models.Sentence
	Machines []*mastery.Machine
}

// Next returns the item to drill, or -1 when every item has been solved
func (r *Round) Next() int {
	for i, m := range r.Machines {
		if m != nil && !m.State().Completed {
			return i
		}
	}
	return -1
}

// Mount mounts every item of the current sentence. Call it once per
// sentence: punctuation is counted as completed on every call.
func (s *ReviewService) Mount() (*Round, error) {
	tr := s.Tracker()
	if tr == nil {
		return nil, ErrNotStarted
	}
	sentence, ok := tr.Current()
	if !ok {
		return nil, errors.New("queue is empty")
	}

	round := &Round{Sentence: sentence, Machines: make([]*mastery.Machine, len(sentence.Words))}
	for i, item := range sentence.Words {
		round.Machines[i] = tr.Mount(item, s.mode)
	}
	return round, nil
}

// Answer checks an attempt against the machine's item. A match solves the
// item, anything else counts as a mistake.
func (s *ReviewService) Answer(m *mastery.Machine, attempt string) bool {
	if m == nil || m.State().Completed {
		return false
	}
	if Matches(s.mode, m.Item(), attempt) {
		m.OnSolvedCorrectly()
		return true
	}
	m.OnMistake()
	return false
}

// Matches compares trimmed answers. Pinyin is case-folded and tone marks are
// compared literally.
func Matches(mode mastery.Mode, item models.DrillableItem, attempt string) bool {
	attempt = strings.TrimSpace(attempt)
	if mode == mastery.ModeCharacter {
		return attempt == item.Character
	}
	return strings.EqualFold(attempt, strings.TrimSpace(item.Pinyin))
}

// Advance moves past the current sentence, completed or not
func (s *ReviewService) Advance(skip bool) error {
	tr := s.Tracker()
	if tr == nil {
		return ErrNotStarted
	}
	tr.AdvanceSentence(skip)
	return nil
}

func (s *ReviewService) SetLessons(lessons []string) error {
	tr := s.Tracker()
	if tr == nil {
		return ErrNotStarted
	}
	tr.SetLessons(lessons)
	return nil
}

// Reset clears the history and restarts the current sentence. Sessions and
// the queue are kept; rounds mounted before the call are stale.
func (s *ReviewService) Reset() error {
	tr := s.Tracker()
	if tr == nil {
		return ErrNotStarted
	}
	tr.ResetHistory()
	return nil
}

// HistoryEntries lists every recorded character, newest session first
func (s *ReviewService) HistoryEntries() ([]HistoryEntry, error) {
	tr := s.Tracker()
	if tr == nil {
		return nil, ErrNotStarted
	}
	return historyEntries(tr.Snapshot(), s.now()), nil
}

func historyEntries(snap *models.Snapshot, now time.Time) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(snap.History))
	for char, rec := range snap.History {
		e := HistoryEntry{Character: char, State: rec.State, SessionID: rec.LastSessionID}
		if sess, ok := snap.Sessions[rec.LastSessionID]; ok {
			e.StartedAt = sess.StartedAt
			e.Relative = humanize.RelTime(sess.StartedAt, now, "ago", "from now")
		}
		entries = append(entries, e)
	}

	slices.SortFunc(entries, func(a, b HistoryEntry) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Character, b.Character)
	})
	return entries
}

func (s *ReviewService) Stats() (session.Stats, error) {
	tr := s.Tracker()
	if tr == nil {
		return session.Stats{}, ErrNotStarted
	}
	return tr.Stats(), nil
}
