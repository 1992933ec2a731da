package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"oceanos.org/pkg/api"
	"oceanos.org/pkg/client"
)

// Drives a running API through the public client: submit a record as a
// researcher, approve it as a reviewer, and confirm the outcome.
func main() {
	baseURL := os.Getenv("OCEANOS_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	researcher := client.New(baseURL, client.WithApp("smoke-api", "smoke"))
	if _, err := researcher.Login(ctx, "researcher@university.edu", "demo1234"); err != nil {
		log.Fatalf("researcher login: %v", err)
	}

	sub, err := researcher.CreateSubmission(ctx, api.CreateSubmissionRequest{
		Title:    fmt.Sprintf("smoke submission %d", time.Now().Unix()),
		DataType: "observation",
		Data:     map[string]any{"source": "smoke"},
	})
	if err != nil {
		log.Fatalf("create submission: %v", err)
	}
	if sub.Status != "pending" {
		log.Fatalf("new submission not pending: %s", sub.Status)
	}

	reviewer := client.New(baseURL, client.WithApp("smoke-api", "smoke"))
	if _, err := reviewer.Login(ctx, "government@example.com", "demo1234"); err != nil {
		log.Fatalf("reviewer login: %v", err)
	}

	queue, err := reviewer.PendingSubmissions(ctx)
	if err != nil {
		log.Fatalf("pending queue: %v", err)
	}
	found := false
	for _, q := range queue {
		if q.ID == sub.ID {
			found = true
			break
		}
	}
	if !found {
		log.Fatalf("submission %s missing from pending queue", sub.ID)
	}

	approved, err := reviewer.ReviewSubmission(ctx, sub.ID, api.ReviewRequest{
		Action: "approve",
		Notes:  "smoke approval",
	})
	if err != nil {
		log.Fatalf("review: %v", err)
	}
	if approved.Status != "approved" {
		log.Fatalf("unexpected status after review: %s", approved.Status)
	}

	// The decision must be final.
	if _, err := reviewer.ReviewSubmission(ctx, sub.ID, api.ReviewRequest{Action: "reject"}); err == nil {
		log.Fatalf("second review unexpectedly succeeded")
	}

	// The researcher sees the approved record.
	got, err := researcher.Submission(ctx, sub.ID)
	if err != nil {
		log.Fatalf("read back: %v", err)
	}
	if got.Status != "approved" || got.ReviewNotes != "smoke approval" {
		log.Fatalf("unexpected read back: %+v", got)
	}

	stats, err := researcher.Stats(ctx)
	if err != nil {
		log.Fatalf("stats: %v", err)
	}

	if err := researcher.Logout(ctx); err != nil {
		log.Fatalf("logout: %v", err)
	}

	fmt.Printf("✅ api smoke test passed: submission=%s submissions_total=%d\n", sub.ID, stats.Totals.Submissions)
}
