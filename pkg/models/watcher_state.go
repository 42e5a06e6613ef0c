package models

import (
	"encoding/json"
	"time"
)

const (
	// ProcessedSetCap is the size at which the processed-id set is trimmed.
	ProcessedSetCap = 1000
	// ProcessedSetKeep is how many of the most recent ids survive a trim.
	ProcessedSetKeep = 500
)

// ProcessedSet is a bounded, insertion-ordered set of processed event ids.
// Eviction is deterministic oldest-first: when the set exceeds
// ProcessedSetCap entries, only the most recent ProcessedSetKeep remain.
// It serializes as a plain ordered id list.
type ProcessedSet struct {
	order  []string
	member map[string]struct{}
}

func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{member: make(map[string]struct{})}
}

// Add records an id. Re-adding an existing id is a no-op and does not
// refresh its position.
func (s *ProcessedSet) Add(id string) {
	if _, ok := s.member[id]; ok {
		return
	}

	s.member[id] = struct{}{}
	s.order = append(s.order, id)

	if len(s.order) > ProcessedSetCap {
		s.trim(ProcessedSetKeep)
	}
}

func (s *ProcessedSet) Contains(id string) bool {
	_, ok := s.member[id]

	return ok
}

func (s *ProcessedSet) Len() int {
	return len(s.order)
}

// IDs returns the ids oldest-first.
func (s *ProcessedSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

func (s *ProcessedSet) trim(keep int) {
	if len(s.order) <= keep {
		return
	}

	evicted := s.order[:len(s.order)-keep]
	for _, id := range evicted {
		delete(s.member, id)
	}

	kept := make([]string, keep)
	copy(kept, s.order[len(s.order)-keep:])
	s.order = kept
}

func (s *ProcessedSet) MarshalJSON() ([]byte, error) {
	if len(s.order) == 0 {
		return []byte("[]"), nil
	}

	return json.Marshal(s.order)
}

func (s *ProcessedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}

	s.order = nil
	s.member = make(map[string]struct{}, len(ids))

	for _, id := range ids {
		s.Add(id)
	}

	return nil
}

// WatcherState is the per-domain checkpoint that lets polling resume without
// re-processing or losing events across restarts. Owned exclusively by one
// watcher instance: read at cycle start, written at cycle end.
type WatcherState struct {
	LastCheck *time.Time    `json:"last_check,omitempty"`
	Processed *ProcessedSet `json:"processed_ids"`
}

func NewWatcherState() *WatcherState {
	return &WatcherState{Processed: NewProcessedSet()}
}
