package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MasteryState is the outcome recorded for a character
type MasteryState int

const (
	Green  MasteryState = iota // solved with no hints or mistakes
	Yellow                     // solved after a hint
	Red                        // failed even after a hint
)

func (s MasteryState) String() string {
	switch s {
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	case Red:
		return "red"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether s is one of the three lattice states
func (s MasteryState) Valid() bool {
	return s >= Green && s <= Red
}

// Max returns the later of two states in the green, yellow, red order
func (s MasteryState) Max(other MasteryState) MasteryState {
	if other > s {
		return other
	}
	return s
}

// MasteryRecord is the history entry for one character
type MasteryRecord struct {
	State         MasteryState
	LastSessionID string
}

// MarshalJSON encodes the record as a [state, sessionId] pair
func (r MasteryRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{int(r.State), r.LastSessionID})
}

// UnmarshalJSON accepts the [state, sessionId] pair with state as a number or numeric string
func (r *MasteryRecord) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("history record: expected 2 elements, got %d", len(pair))
	}

	var state int
	if err := json.Unmarshal(pair[0], &state); err != nil {
		var s string
		if err2 := json.Unmarshal(pair[0], &s); err2 != nil {
			return fmt.Errorf("history record state: %w", err)
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("history record state: %w", err)
		}
		state = n
	}
	if !MasteryState(state).Valid() {
		return fmt.Errorf("history record state %d out of range", state)
	}

	var sessionID string
	if err := json.Unmarshal(pair[1], &sessionID); err != nil {
		return fmt.Errorf("history record session: %w", err)
	}

	r.State = MasteryState(state)
	r.LastSessionID = sessionID
	return nil
}
