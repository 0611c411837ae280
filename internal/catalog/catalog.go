// Package catalog owns the static lesson material and the queue order it is
// drilled in.
package catalog

import (
	"math/rand"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hanzidrill/internal/logger"
	"hanzidrill/internal/models"
	"hanzidrill/internal/validation"
)

// IDStrategy decides how sentence ids are minted at load time
type IDStrategy string

const (
	// IDRandom mints a fresh uuid per sentence on every load
	IDRandom IDStrategy = "random"
	// IDStable derives the id from lesson and position, so it survives reloads
	IDStable IDStrategy = "stable"
)

var sentenceNamespace = uuid.MustParse("6f1c1b0e-6a43-4c1e-9a59-2b0d3c8f7e21")

// Catalog is the full, shuffleable set of sentences
type Catalog struct {
	lessons    []Lesson
	order      []string
	idStrategy IDStrategy
	log        *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Catalog)

// WithRand sets the source used for shuffling
func WithRand(r *rand.Rand) Option {
	return func(c *Catalog) { c.rng = r }
}

func WithIDStrategy(s IDStrategy) Option {
	return func(c *Catalog) { c.idStrategy = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) { c.log = l }
}

// New builds a catalog from parsed lessons. Invalid lessons and sentences are
// dropped here and never reach the queue.
func New(lessons []Lesson, opts ...Option) *Catalog {
	c := &Catalog{idStrategy: IDRandom}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log).Named("catalog")
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for _, l := range lessons {
		kept := c.clean(l)
		if len(kept.Sentences) == 0 {
			c.log.Debug("skipping empty lesson", zap.String("lesson", l.ID))
			continue
		}
		if !slices.Contains(c.order, kept.ID) {
			c.order = append(c.order, kept.ID)
		}
		c.lessons = append(c.lessons, kept)
	}

	return c
}

func (c *Catalog) clean(l Lesson) Lesson {
	if err := validation.ValidateLessonID(l.ID); err != nil {
		c.log.Debug("skipping lesson", zap.Error(err))
		return Lesson{}
	}

	out := Lesson{ID: l.ID}
	for i, s := range l.Sentences {
		if err := validateSentence(s); err != nil {
			c.log.Debug("skipping sentence",
				zap.String("lesson", l.ID), zap.Int("index", i), zap.Error(err))
			continue
		}
		out.Sentences = append(out.Sentences, s)
	}
	return out
}

func validateSentence(s SourceSentence) error {
	if err := validation.ValidateTranslation(s.Translation); err != nil {
		return err
	}
	if err := validation.ValidateWordCount(len(s.Words)); err != nil {
		return err
	}
	for _, w := range s.Words {
		if err := validation.ValidateWord(w.Character, w.Pinyin); err != nil {
			return err
		}
	}
	return nil
}

// Lessons returns the distinct lesson ids in source order
func (c *Catalog) Lessons() []string {
	return slices.Clone(c.order)
}

// Size is the number of sentences LoadAll returns
func (c *Catalog) Size() int {
	n := 0
	for _, l := range c.lessons {
		n += len(l.Sentences)
	}
	return n
}

// LoadAll materializes every sentence in source order. Content is identical
// across calls; ids are too only under IDStable.
func (c *Catalog) LoadAll() []models.Sentence {
	return c.load(nil)
}

func (c *Catalog) load(lessons []string) []models.Sentence {
	out := make([]models.Sentence, 0, c.Size())
	for _, l := range c.lessons {
		if len(lessons) > 0 && !slices.Contains(lessons, l.ID) {
			continue
		}
		for i, s := range l.Sentences {
			words := make([]models.DrillableItem, len(s.Words))
			for j, w := range s.Words {
				words[j] = models.DrillableItem{Character: w.Character, Pinyin: w.Pinyin}
			}
			out = append(out, models.Sentence{
				Lesson:      l.ID,
				Translation: s.Translation,
				Words:       words,
				ID:          c.sentenceID(l.ID, i),
			})
		}
	}
	return out
}

func (c *Catalog) sentenceID(lesson string, index int) string {
	if c.idStrategy == IDStable {
		return uuid.NewSHA1(sentenceNamespace, []byte(lesson+"#"+strconv.Itoa(index))).String()
	}
	return uuid.NewString()
}

// ShuffledQueue returns LoadAll in a uniformly random order
func (c *Catalog) ShuffledQueue() []models.Sentence {
	return c.ShuffledQueueFor(nil)
}

// ShuffledQueueFor shuffles the sentences of the selected lessons. An empty
// selection, or one that matches nothing, means every lesson.
func (c *Catalog) ShuffledQueueFor(lessons []string) []models.Sentence {
	queue := c.load(lessons)
	if len(queue) == 0 && len(lessons) > 0 {
		queue = c.load(nil)
	}

	c.mu.Lock()
	c.rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	c.mu.Unlock()

	return queue
}

// Advance drops the head sentence. An exhausted queue is refilled with a
// fresh shuffle, so drilling never runs out.
func (c *Catalog) Advance(queue []models.Sentence) []models.Sentence {
	return c.AdvanceFor(queue, nil)
}

// AdvanceFor is Advance with the refill restricted to the selected lessons
func (c *Catalog) AdvanceFor(queue []models.Sentence, lessons []string) []models.Sentence {
	if len(queue) > 1 {
		return slices.Clone(queue[1:])
	}
	return c.ShuffledQueueFor(lessons)
}
