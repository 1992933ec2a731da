package submissions

import (
	"fmt"
	"strings"

	"oceanos.org/internal/auth"
)

// Service applies role and ownership policy on top of the store: government
// accounts see and review everything, researchers see their own records plus
// anything approved.
type Service struct {
	store *Store
}

// NewService wraps a store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Counts reports the total and still-pending record counts.
func (s *Service) Counts() (total, pending int) {
	return s.store.Counts()
}

// CreateInput is the validated payload for a new submission.
type CreateInput struct {
	Title       string
	Description string
	DataType    string
	Data        map[string]any
	Attachments []string
}

// Create validates the input and inserts a pending record submitted by the
// given account.
func (s *Service) Create(acc auth.Account, in CreateInput) (Submission, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Submission{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	dataType, err := ParseDataType(strings.TrimSpace(in.DataType))
	if err != nil {
		return Submission{}, err
	}
	return s.store.Create(acc.ID, title, strings.TrimSpace(in.Description), dataType, in.Data, in.Attachments), nil
}

// List returns the submissions visible to the account. A researcher never
// sees another researcher's pending or rejected records.
func (s *Service) List(acc auth.Account) []Submission {
	all := s.store.All()
	switch acc.Role {
	case auth.RoleGovernment:
		return all
	default:
		visible := make([]Submission, 0, len(all))
		for _, sub := range all {
			if sub.SubmittedBy == acc.ID || sub.Status == StatusApproved {
				visible = append(visible, sub)
			}
		}
		return visible
	}
}

// ListPending returns the review queue. Government only.
func (s *Service) ListPending(acc auth.Account) ([]Submission, error) {
	if acc.Role != auth.RoleGovernment {
		return nil, ErrForbidden
	}
	return s.store.Pending(), nil
}

// Get returns a single record, applying the same confidentiality boundary as
// List.
func (s *Service) Get(acc auth.Account, id string) (Submission, error) {
	sub, err := s.store.Get(id)
	if err != nil {
		return Submission{}, err
	}
	if acc.Role != auth.RoleGovernment && sub.SubmittedBy != acc.ID && sub.Status != StatusApproved {
		return Submission{}, ErrForbidden
	}
	return sub, nil
}

// Update mutates a pending record on behalf of its submitter.
func (s *Service) Update(acc auth.Account, id string, fields UpdateFields) (Submission, error) {
	if fields.DataType != nil {
		if _, err := ParseDataType(string(*fields.DataType)); err != nil {
			return Submission{}, err
		}
	}
	sub, err := s.store.Update(id, acc.ID, fields)
	if err == ErrNotOwner {
		return Submission{}, ErrForbidden
	}
	return sub, err
}

// Review applies the terminal approve/reject transition as the given
// government reviewer. Notes are stored verbatim.
func (s *Service) Review(acc auth.Account, id string, action Action, notes string) (Submission, error) {
	if acc.Role != auth.RoleGovernment {
		return Submission{}, ErrForbidden
	}
	return s.store.Review(id, acc.ID, action, notes)
}
