package models

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// SessionRecord marks when a drill session began
type SessionRecord struct {
	StartedAt time.Time
}

// MarshalJSON encodes the record as a bare RFC 3339 timestamp
func (s SessionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.StartedAt.UTC().Format(time.RFC3339Nano))
}

func (s *SessionRecord) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return err
	}
	s.StartedAt = t
	return nil
}

// Snapshot is the state that survives a reload. The per-sentence completed
// count is not part of it.
type Snapshot struct {
	History   map[string]MasteryRecord `json:"history"`
	Sentences []Sentence               `json:"sentences"`
	Sessions  map[string]SessionRecord `json:"sessions"`
	Lessons   []string                 `json:"lessons,omitempty"`
}

// NewSnapshot returns an empty snapshot with non-nil maps
func NewSnapshot() *Snapshot {
	return &Snapshot{
		History:   map[string]MasteryRecord{},
		Sentences: []Sentence{},
		Sessions:  map[string]SessionRecord{},
	}
}

// Clone returns a copy that shares no mutable containers with s.
// Sentences are immutable once loaded, so their word slices are shared.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		History:   maps.Clone(s.History),
		Sentences: slices.Clone(s.Sentences),
		Sessions:  maps.Clone(s.Sessions),
		Lessons:   slices.Clone(s.Lessons),
	}
	if c.History == nil {
		c.History = map[string]MasteryRecord{}
	}
	if c.Sessions == nil {
		c.Sessions = map[string]SessionRecord{}
	}
	if c.Sentences == nil {
		c.Sentences = []Sentence{}
	}
	return c
}
