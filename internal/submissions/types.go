package submissions

import (
	"errors"
	"fmt"
	"time"
)

// DataType is the declared kind of a submission's payload.
type DataType string

const (
	DataTypeObservation DataType = "observation"
	DataTypeSensor      DataType = "sensor"
	DataTypeSpecies     DataType = "species"
	DataTypeOther       DataType = "other"
)

// ParseDataType validates a wire-level data type. Unrecognized values are
// rejected rather than stored.
func ParseDataType(raw string) (DataType, error) {
	switch DataType(raw) {
	case DataTypeObservation, DataTypeSensor, DataTypeSpecies, DataTypeOther:
		return DataType(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown data type %q", ErrValidation, raw)
	}
}

// Status is the review state of a submission. pending is initial; approved
// and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Action is a review decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction validates a wire-level review action.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionApprove, ActionReject:
		return Action(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, raw)
	}
}

// Submission is a unit of researcher-submitted data awaiting government
// approval. Id, submitter, submission timestamp and status never change
// through the update path.
type Submission struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DataType    DataType       `json:"dataType"`
	SubmittedBy string         `json:"submittedBy"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Status      Status         `json:"status"`
	ReviewedBy  string         `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time     `json:"reviewedAt,omitempty"`
	ReviewNotes string         `json:"reviewNotes,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Attachments []string       `json:"attachments,omitempty"`
}

var (
	ErrNotFound     = errors.New("submissions: not found")
	ErrNotOwner     = errors.New("submissions: not the submitter")
	ErrForbidden    = errors.New("submissions: access denied")
	ErrInvalidState = errors.New("submissions: already reviewed")
	ErrValidation   = errors.New("submissions: invalid input")
)

// clone returns a copy whose payload and attachments do not alias store
// memory.
func (s Submission) clone() Submission {
	out := s
	out.Data = copyMap(s.Data)
	if s.Attachments != nil {
		out.Attachments = append([]string(nil), s.Attachments...)
	}
	if s.ReviewedAt != nil {
		t := *s.ReviewedAt
		out.ReviewedAt = &t
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
