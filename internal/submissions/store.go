package submissions

import (
	"sync"
	"time"

	"oceanos.org/internal/ids"
)

// UpdateFields carries the caller-supplied mutations for a pending
// submission. Only these fields can change; everything else on the record is
// immutable through the update path.
type UpdateFields struct {
	Title       *string
	Description *string
	DataType    *DataType
	Data        map[string]any
	Attachments []string
}

// Store owns the in-memory submission collection. All state-machine
// transitions happen inside a single critical section so a record is reviewed
// at most once even under concurrent review attempts.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*Submission
	order []string
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID: make(map[string]*Submission),
		now:  time.Now,
	}
}

// WithClock overrides the time source, useful for tests.
func (s *Store) WithClock(fn func() time.Time) *Store {
	if fn != nil {
		s.now = fn
	}
	return s
}

// Create inserts a fresh pending record and returns it.
func (s *Store) Create(submitterID, title, description string, dataType DataType, data map[string]any, attachments []string) Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Submission{
		ID:          ids.New(),
		Title:       title,
		Description: description,
		DataType:    dataType,
		SubmittedBy: submitterID,
		SubmittedAt: s.now().UTC(),
		Status:      StatusPending,
		Data:        copyMap(data),
	}
	if attachments != nil {
		sub.Attachments = append([]string(nil), attachments...)
	}
	s.byID[sub.ID] = sub
	s.order = append(s.order, sub.ID)
	return sub.clone()
}

// Load inserts a pre-built record verbatim. Used for demo seeding only.
func (s *Store) Load(sub Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := sub.clone()
	s.byID[cp.ID] = &cp
	s.order = append(s.order, cp.ID)
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.byID[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return sub.clone(), nil
}

// All returns every record in insertion order.
func (s *Store) All() []Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Submission, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].clone())
	}
	return out
}

// Pending returns the records still awaiting review, in insertion order.
func (s *Store) Pending() []Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Submission
	for _, id := range s.order {
		if sub := s.byID[id]; sub.Status == StatusPending {
			out = append(out, sub.clone())
		}
	}
	return out
}

// Counts reports the total and still-pending record counts.
func (s *Store) Counts() (total, pending int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.byID {
		if sub.Status == StatusPending {
			pending++
		}
	}
	return len(s.byID), pending
}

// Update applies the whitelisted fields to a pending record owned by
// actorID. The ownership and state checks share the write lock with the
// mutation, acting as the record's optimistic lock.
func (s *Store) Update(id, actorID string, fields UpdateFields) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.byID[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	if sub.SubmittedBy != actorID {
		return Submission{}, ErrNotOwner
	}
	if sub.Status != StatusPending {
		return Submission{}, ErrInvalidState
	}

	if fields.Title != nil {
		sub.Title = *fields.Title
	}
	if fields.Description != nil {
		sub.Description = *fields.Description
	}
	if fields.DataType != nil {
		sub.DataType = *fields.DataType
	}
	if fields.Data != nil {
		sub.Data = copyMap(fields.Data)
	}
	if fields.Attachments != nil {
		sub.Attachments = append([]string(nil), fields.Attachments...)
	}
	return sub.clone(), nil
}

// Review performs the terminal transition pending -> approved|rejected.
// Read-check-write is one critical section: the second of two concurrent
// reviews fails with ErrInvalidState and leaves the first outcome intact.
func (s *Store) Review(id, reviewerID string, action Action, notes string) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.byID[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	if sub.Status != StatusPending {
		return Submission{}, ErrInvalidState
	}

	if action == ActionApprove {
		sub.Status = StatusApproved
	} else {
		sub.Status = StatusRejected
	}
	now := s.now().UTC()
	sub.ReviewedBy = reviewerID
	sub.ReviewedAt = &now
	sub.ReviewNotes = notes
	return sub.clone(), nil
}
