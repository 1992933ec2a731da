package submissions

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestCreateAndGetRoundTrip(t *testing.T) {
	store := NewStore()

	payload := map[string]any{
		"species": "Acropora cervicornis",
		"location": map[string]any{
			"lat": -16.2839,
			"lng": 145.7781,
		},
		"depth": 15.0,
	}
	created := store.Create("acc-1", "Coral Survey", "Reef section A-7", DataTypeSpecies, payload, []string{"/uploads/coral-1.jpg"})

	if created.Status != StatusPending {
		t.Fatalf("new submission must be pending, got %s", created.Status)
	}
	if created.SubmittedBy != "acc-1" {
		t.Fatalf("unexpected submitter: %s", created.SubmittedBy)
	}
	if created.ID == "" || created.SubmittedAt.IsZero() {
		t.Fatalf("missing id or timestamp: %+v", created)
	}

	got, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got.Data, payload) {
		t.Fatalf("payload round trip mismatch: %#v", got.Data)
	}

	// Mutating the returned copy must not leak into the store.
	got.Data["species"] = "tampered"
	again, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Data["species"] != "Acropora cervicornis" {
		t.Fatal("store payload aliased by returned copy")
	}
}

func TestGetUnknownID(t *testing.T) {
	store := NewStore()
	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReviewHappensAtMostOnce(t *testing.T) {
	store := NewStore()
	sub := store.Create("acc-1", "Coral Survey", "", DataTypeSpecies, nil, nil)

	first, err := store.Review(sub.ID, "gov-1", ActionApprove, "looks good")
	if err != nil {
		t.Fatalf("first review: %v", err)
	}
	if first.Status != StatusApproved || first.ReviewedBy != "gov-1" || first.ReviewNotes != "looks good" {
		t.Fatalf("unexpected review result: %+v", first)
	}
	if first.ReviewedAt == nil {
		t.Fatal("review timestamp not set")
	}

	if _, err := store.Review(sub.ID, "gov-2", ActionReject, "changed my mind"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// The failed second review must not disturb the first outcome.
	got, err := store.Get(sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusApproved || got.ReviewedBy != "gov-1" || got.ReviewNotes != "looks good" {
		t.Fatalf("first review outcome disturbed: %+v", got)
	}
	if !got.ReviewedAt.Equal(*first.ReviewedAt) {
		t.Fatalf("review timestamp changed: %v vs %v", got.ReviewedAt, first.ReviewedAt)
	}
}

func TestConcurrentReviewsYieldOneWinner(t *testing.T) {
	store := NewStore()
	sub := store.Create("acc-1", "Coral Survey", "", DataTypeSpecies, nil, nil)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := ActionApprove
			if i%2 == 1 {
				action = ActionReject
			}
			_, errs[i] = store.Review(sub.ID, "gov", action, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning review, got %d", wins)
	}
}

func TestUpdateGuards(t *testing.T) {
	store := NewStore()
	sub := store.Create("acc-1", "Coral Survey", "draft", DataTypeSpecies, nil, nil)

	title := "Coral Survey v2"
	updated, err := store.Update(sub.ID, "acc-1", UpdateFields{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title || updated.Description != "draft" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.Status != StatusPending || updated.SubmittedBy != "acc-1" || updated.ID != sub.ID {
		t.Fatal("immutable fields changed through update")
	}

	if _, err := store.Update("missing", "acc-1", UpdateFields{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Update(sub.ID, "acc-2", UpdateFields{Title: &title}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	if _, err := store.Review(sub.ID, "gov-1", ActionReject, ""); err != nil {
		t.Fatalf("Review: %v", err)
	}
	// Post-review the submitter is locked out too.
	if _, err := store.Update(sub.ID, "acc-1", UpdateFields{Title: &title}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestPendingKeepsInsertionOrder(t *testing.T) {
	store := NewStore()
	a := store.Create("acc-1", "A", "", DataTypeOther, nil, nil)
	b := store.Create("acc-1", "B", "", DataTypeOther, nil, nil)
	c := store.Create("acc-1", "C", "", DataTypeOther, nil, nil)

	if _, err := store.Review(b.ID, "gov-1", ActionApprove, ""); err != nil {
		t.Fatalf("Review: %v", err)
	}

	pending := store.Pending()
	if len(pending) != 2 || pending[0].ID != a.ID || pending[1].ID != c.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
}
