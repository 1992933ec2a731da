package api

import "time"

// Submission mirrors a data submission record on the wire.
type Submission struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	DataType    string         `json:"dataType"`
	SubmittedBy string         `json:"submittedBy"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Status      string         `json:"status"`
	ReviewedBy  string         `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time     `json:"reviewedAt,omitempty"`
	ReviewNotes string         `json:"reviewNotes,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Attachments []string       `json:"attachments,omitempty"`
}

type CreateSubmissionRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	DataType    string         `json:"dataType"`
	Data        map[string]any `json:"data,omitempty"`
	Attachments []string       `json:"attachments,omitempty"`
}

// UpdateSubmissionRequest applies a partial update. Absent fields are
// left unchanged.
type UpdateSubmissionRequest struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	DataType    *string        `json:"dataType,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Attachments []string       `json:"attachments,omitempty"`
}

type ReviewRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes,omitempty"`
}

type SubmissionResponse struct {
	Submission Submission `json:"submission"`
	Message    string     `json:"message,omitempty"`
}

type ListMeta struct {
	Total int `json:"total"`
}

type SubmissionListResponse struct {
	Submissions []Submission `json:"submissions"`
	Meta        ListMeta     `json:"meta"`
}
