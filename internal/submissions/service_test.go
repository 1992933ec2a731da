package submissions

import (
	"errors"
	"testing"

	"oceanos.org/internal/auth"
)

var (
	gov = auth.Account{ID: "gov-1", Role: auth.RoleGovernment}
	r1  = auth.Account{ID: "res-1", Role: auth.RoleResearcher}
	r2  = auth.Account{ID: "res-2", Role: auth.RoleResearcher}
)

func newTestService() *Service {
	return NewService(NewStore())
}

func TestCreateValidatesDataType(t *testing.T) {
	svc := newTestService()

	sub, err := svc.Create(r1, CreateInput{Title: "Coral Survey", DataType: "species"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sub.DataType != DataTypeSpecies || sub.Status != StatusPending {
		t.Fatalf("unexpected submission: %+v", sub)
	}

	if _, err := svc.Create(r1, CreateInput{Title: "x", DataType: "satellite"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown data type, got %v", err)
	}
	if _, err := svc.Create(r1, CreateInput{Title: "  ", DataType: "species"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank title, got %v", err)
	}
}

func TestListConfidentialityBoundary(t *testing.T) {
	svc := newTestService()

	mine, err := svc.Create(r1, CreateInput{Title: "r1 pending", DataType: "observation"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := svc.Create(r2, CreateInput{Title: "r2 pending", DataType: "observation"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	approvedR2, err := svc.Create(r2, CreateInput{Title: "r2 approved", DataType: "sensor"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Review(gov, approvedR2.ID, ActionApprove, ""); err != nil {
		t.Fatalf("Review: %v", err)
	}
	rejectedR2, err := svc.Create(r2, CreateInput{Title: "r2 rejected", DataType: "sensor"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Review(gov, rejectedR2.ID, ActionReject, "incomplete"); err != nil {
		t.Fatalf("Review: %v", err)
	}

	// Government sees everything.
	if got := svc.List(gov); len(got) != 4 {
		t.Fatalf("government should see 4, got %d", len(got))
	}

	// r1 sees their own plus approved, never r2's pending or rejected.
	visible := svc.List(r1)
	for _, sub := range visible {
		if sub.SubmittedBy != r1.ID && sub.Status != StatusApproved {
			t.Fatalf("leaked submission %q (%s) to r1", sub.Title, sub.Status)
		}
	}
	if len(visible) != 2 {
		t.Fatalf("r1 should see 2 submissions, got %d", len(visible))
	}

	// Same boundary on point reads.
	if _, err := svc.Get(r1, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for r2's pending record, got %v", err)
	}
	if _, err := svc.Get(r1, approvedR2.ID); err != nil {
		t.Fatalf("approved record must be readable: %v", err)
	}
	if _, err := svc.Get(r1, mine.ID); err != nil {
		t.Fatalf("own record must be readable: %v", err)
	}
	if _, err := svc.Get(gov, other.ID); err != nil {
		t.Fatalf("government read: %v", err)
	}
	if _, err := svc.Get(r1, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPendingIsGovernmentOnly(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Create(r1, CreateInput{Title: "pending", DataType: "other"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	queue, err := svc.ListPending(gov)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(queue))
	}

	if _, err := svc.ListPending(r1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReviewPolicy(t *testing.T) {
	svc := newTestService()
	sub, err := svc.Create(r1, CreateInput{Title: "Coral Survey", DataType: "species"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A researcher cannot review, not even their own record.
	if _, err := svc.Review(r1, sub.ID, ActionApprove, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	reviewed, err := svc.Review(gov, sub.ID, ActionApprove, "looks good")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != StatusApproved || reviewed.ReviewedBy != gov.ID || reviewed.ReviewNotes != "looks good" {
		t.Fatalf("unexpected review outcome: %+v", reviewed)
	}

	if _, err := svc.Review(gov, sub.ID, ActionReject, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on re-review, got %v", err)
	}
}

func TestUpdatePolicy(t *testing.T) {
	svc := newTestService()
	sub, err := svc.Create(r1, CreateInput{Title: "draft", DataType: "other"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "final"
	if _, err := svc.Update(r2, sub.ID, UpdateFields{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	bad := DataType("satellite")
	if _, err := svc.Update(r1, sub.ID, UpdateFields{DataType: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	updated, err := svc.Update(r1, sub.ID, UpdateFields{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "final" {
		t.Fatalf("unexpected title: %s", updated.Title)
	}

	if _, err := svc.Review(gov, sub.ID, ActionApprove, ""); err != nil {
		t.Fatalf("Review: %v", err)
	}
	if _, err := svc.Update(r1, sub.ID, UpdateFields{Title: &title}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after review, got %v", err)
	}
}
