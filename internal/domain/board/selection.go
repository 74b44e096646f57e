package board

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrDeleteInProgress = errors.New("bulk delete in progress")
	ErrNotSelecting     = errors.New("selection mode is not active")
)

// SelectionState is the phase of the bulk selection workflow.
type SelectionState int

const (
	Browsing SelectionState = iota
	Selecting
	Deleting
)

func (s SelectionState) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Selecting:
		return "selecting"
	case Deleting:
		return "deleting"
	}
	return "unknown"
}

// BulkDeleter removes ids atomically and returns how many were deleted.
type BulkDeleter func(ctx context.Context, ids []uuid.UUID) (int, error)

// Selection tracks the set of cards picked for bulk deletion.
type Selection struct {
	mu       sync.Mutex
	state    SelectionState
	selected map[uuid.UUID]struct{}
	order    []uuid.UUID
}

func NewSelection() *Selection {
	return &Selection{selected: make(map[uuid.UUID]struct{})}
}

func (s *Selection) State() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Selected returns the selected ids in the order they were picked.
func (s *Selection) Selected() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Selection) IsSelected(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[id]
	return ok
}

// ToggleMode switches between browsing and selecting and clears the
// selection either way.
func (s *Selection) ToggleMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Deleting:
		return ErrDeleteInProgress
	case Browsing:
		s.state = Selecting
	case Selecting:
		s.state = Browsing
	}
	s.clearLocked()
	return nil
}

// Toggle adds id to the selection or removes it if already present.
func (s *Selection) Toggle(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSelectingLocked(); err != nil {
		return err
	}
	if _, ok := s.selected[id]; ok {
		s.removeLocked(id)
		return nil
	}
	s.addLocked(id)
	return nil
}

// SelectAll clears the selection when it already covers as many cards as
// all holds, otherwise selects every id in all.
func (s *Selection) SelectAll(all []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSelectingLocked(); err != nil {
		return err
	}
	if len(s.order) == len(all) {
		s.clearLocked()
		return nil
	}
	s.clearLocked()
	for _, id := range all {
		if _, ok := s.selected[id]; !ok {
			s.addLocked(id)
		}
	}
	return nil
}

// ConfirmDelete hands the selection to del. An empty selection deletes
// nothing and returns 0. On success the workflow returns to browsing with
// an empty selection; on failure it returns to selecting and keeps it.
func (s *Selection) ConfirmDelete(ctx context.Context, del BulkDeleter) (int, error) {
	s.mu.Lock()
	if err := s.requireSelectingLocked(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	if len(s.order) == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	ids := make([]uuid.UUID, len(s.order))
	copy(ids, s.order)
	s.state = Deleting
	s.mu.Unlock()

	n, err := del(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Selecting
		return 0, err
	}
	s.state = Browsing
	s.clearLocked()
	return n, nil
}

func (s *Selection) requireSelectingLocked() error {
	switch s.state {
	case Deleting:
		return ErrDeleteInProgress
	case Browsing:
		return ErrNotSelecting
	}
	return nil
}

func (s *Selection) addLocked(id uuid.UUID) {
	s.selected[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection) removeLocked(id uuid.UUID) {
	delete(s.selected, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Selection) clearLocked() {
	s.selected = make(map[uuid.UUID]struct{})
	s.order = nil
}
