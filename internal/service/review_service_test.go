package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanzidrill/internal/catalog"
	"hanzidrill/internal/mastery"
	"hanzidrill/internal/models"
	"hanzidrill/internal/session"
	"hanzidrill/internal/storage"
)

const testKey = "hanzidrill"

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func helloCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Lesson{{
		ID: "L1",
		Sentences: []catalog.SourceSentence{{
			Translation: "Hello.",
			Words: []catalog.SourceWord{
				{Character: "你", Pinyin: "nǐ"},
				{Character: "好", Pinyin: "hǎo"},
				{Character: "。"},
			},
		}},
	}}, catalog.WithRand(rand.New(rand.NewSource(1))))
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestService(kv storage.KV, mode mastery.Mode) *ReviewService {
	return newTestServiceWithIDs(kv, mode, sequentialIDs("s"))
}

func newTestServiceWithIDs(kv storage.KV, mode mastery.Mode, ids func() string) *ReviewService {
	return NewReviewService(helloCatalog(), kv, testKey, mode,
		WithSessionOptions(
			session.WithClock(func() time.Time { return epoch }),
			session.WithIDGenerator(ids),
		),
		WithNow(func() time.Time { return epoch.Add(time.Hour) }),
	)
}

func TestReviewNotStarted(t *testing.T) {
	svc := newTestService(storage.NewMemory(), mastery.ModePinyin)

	_, err := svc.Mount()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, svc.Advance(true), ErrNotStarted)
	assert.ErrorIs(t, svc.Reset(), ErrNotStarted)
	assert.ErrorIs(t, svc.SetLessons(nil), ErrNotStarted)
	_, err = svc.HistoryEntries()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = svc.Stats()
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestReviewFreshStartSavesSession(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc := newTestService(kv, mastery.ModePinyin)

	tr := svc.Start(ctx)
	assert.Same(t, tr, svc.Start(ctx), "Start() should be idempotent")
	assert.Equal(t, "s1", tr.SessionID())
	assert.Equal(t, 1, kv.Writes())

	sentence, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, "L1", sentence.Lesson)
}

func TestReviewRoundAndReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	svc := newTestService(kv, mastery.ModePinyin)
	tr := svc.Start(ctx)

	round, err := svc.Mount()
	require.NoError(t, err)
	require.Len(t, round.Machines, 3)
	assert.Nil(t, round.Machines[2], "punctuation gets no machine")
	assert.Equal(t, 1, tr.CompletedCount())
	assert.Equal(t, 0, round.Next())

	for range 6 {
		assert.False(t, svc.Answer(round.Machines[0], "ni"))
	}
	assert.Equal(t, models.Yellow, round.Machines[0].State().Primary)
	assert.True(t, svc.Answer(round.Machines[0], " Nǐ "))
	assert.Equal(t, 1, round.Next())
	assert.True(t, svc.Answer(round.Machines[1], "hǎo"))
	assert.Equal(t, -1, round.Next())
	assert.False(t, svc.Answer(round.Machines[1], "hǎo"), "solved items ignore answers")

	assert.True(t, tr.IsDone())
	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, session.Stats{Green: 1, Yellow: 1}, stats)
	svc.Stop()

	reloaded := newTestServiceWithIDs(kv, mastery.ModePinyin, sequentialIDs("r"))
	tr2 := reloaded.Start(ctx)
	snap := tr2.Snapshot()

	assert.Equal(t, map[string]models.MasteryRecord{
		"你": {State: models.Yellow, LastSessionID: "s1"},
		"好": {State: models.Green, LastSessionID: "s1"},
	}, snap.History)
	assert.Len(t, snap.Sessions, 2)
	assert.Equal(t, 0, tr2.CompletedCount())
	assert.False(t, tr2.IsDone())
}

func TestReviewStopDetaches(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc := newTestService(kv, mastery.ModeCharacter)
	svc.Start(ctx)
	svc.Stop()

	writes := kv.Writes()
	require.NoError(t, svc.Reset())
	require.NoError(t, svc.Advance(true))
	assert.Equal(t, writes, kv.Writes())
}

func TestReviewRestartAfterStopPersists(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc := newTestService(kv, mastery.ModePinyin)
	tr := svc.Start(ctx)

	round, err := svc.Mount()
	require.NoError(t, err)
	require.True(t, svc.Answer(round.Machines[0], "nǐ"))
	svc.Stop()

	require.NoError(t, svc.Reset())
	writes := kv.Writes()

	assert.Same(t, tr, svc.Start(ctx))
	assert.Equal(t, writes+1, kv.Writes(), "restart saves the state changed while stopped")

	require.NoError(t, svc.Advance(true))
	assert.Equal(t, writes+2, kv.Writes())

	reloaded := newTestServiceWithIDs(kv, mastery.ModePinyin, sequentialIDs("r"))
	assert.Empty(t, reloaded.Start(ctx).Snapshot().History)
}

func TestReviewResetKeepsSessions(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc := newTestService(kv, mastery.ModeCharacter)
	tr := svc.Start(ctx)

	round, err := svc.Mount()
	require.NoError(t, err)
	require.True(t, svc.Answer(round.Machines[0], "你"))
	require.NoError(t, svc.Reset())

	assert.Empty(t, tr.Snapshot().History)
	assert.Len(t, tr.Snapshot().Sessions, 1)

	entries, err := svc.HistoryEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMatches(t *testing.T) {
	item := models.DrillableItem{Character: "好", Pinyin: "hǎo"}

	tests := []struct {
		name    string
		mode    mastery.Mode
		attempt string
		want    bool
	}{
		{name: "pinyin exact", mode: mastery.ModePinyin, attempt: "hǎo", want: true},
		{name: "pinyin case and space", mode: mastery.ModePinyin, attempt: "  HǍO ", want: true},
		{name: "pinyin without tone", mode: mastery.ModePinyin, attempt: "hao", want: false},
		{name: "character exact", mode: mastery.ModeCharacter, attempt: "好", want: true},
		{name: "character wrong", mode: mastery.ModeCharacter, attempt: "女", want: false},
		{name: "empty", mode: mastery.ModeCharacter, attempt: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.mode, item, tt.attempt); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestHistoryEntries(t *testing.T) {
	now := epoch.Add(3 * time.Hour)
	snap := models.NewSnapshot()
	snap.Sessions["recent"] = models.SessionRecord{StartedAt: now.Add(-3 * time.Minute)}
	snap.Sessions["older"] = models.SessionRecord{StartedAt: now.Add(-2 * time.Hour)}
	snap.History["好"] = models.MasteryRecord{State: models.Green, LastSessionID: "older"}
	snap.History["你"] = models.MasteryRecord{State: models.Red, LastSessionID: "recent"}
	snap.History["我"] = models.MasteryRecord{State: models.Yellow, LastSessionID: "recent"}
	snap.History["是"] = models.MasteryRecord{State: models.Yellow, LastSessionID: "gone"}

	got := historyEntries(snap, now)
	require.Len(t, got, 4)

	chars := make([]string, len(got))
	for i, e := range got {
		chars[i] = e.Character
	}
	assert.Equal(t, []string{"你", "我", "好", "是"}, chars)

	assert.Equal(t, "3 minutes ago", got[0].Relative)
	assert.Equal(t, "2 hours ago", got[2].Relative)
	assert.Equal(t, "", got[3].Relative)
	assert.True(t, got[3].StartedAt.IsZero())
	assert.Equal(t, models.Red, got[0].State)
}
