package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"oceanos.org/pkg/api"
)

// fakeAPI is a scripted server: it issues "access-1"/"refresh-1" on
// login, serves /api/submissions only for the expected access token,
// and rotates the expectation when asked.
type fakeAPI struct {
	mu             sync.Mutex
	expectedAccess string
	refreshDelay   time.Duration
	refreshCalls   atomic.Int64
	listCalls      atomic.Int64
	refreshFails   bool
	refreshUseless bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.expectedAccess = "access-1"
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, api.SessionResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			User:         api.Account{ID: "acct-1", Role: "researcher"},
		})
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		time.Sleep(f.refreshDelay)
		var req api.RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if f.refreshFails || req.RefreshToken != "refresh-1" {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "invalid refresh token", Code: api.CodeUnauthorized})
			return
		}
		if f.refreshUseless {
			// Grant a token the data endpoints will still reject.
			writeJSON(w, http.StatusOK, api.RefreshResponse{AccessToken: "useless"})
			return
		}
		f.mu.Lock()
		f.expectedAccess = "access-2"
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, api.RefreshResponse{AccessToken: "access-2"})
	})
	mux.HandleFunc("/api/submissions", func(w http.ResponseWriter, r *http.Request) {
		f.listCalls.Add(1)
		f.mu.Lock()
		want := "Bearer " + f.expectedAccess
		f.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token", Code: api.CodeUnauthorized})
			return
		}
		writeJSON(w, http.StatusOK, api.SubmissionListResponse{Submissions: []api.Submission{}, Meta: api.ListMeta{Total: 0}})
	})
	return mux
}

// expire invalidates the current access token without touching the
// refresh token, as the server does when the access TTL passes.
func (f *fakeAPI) expire() {
	f.mu.Lock()
	f.expectedAccess = "expired"
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, f *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client()))
}

func TestLoginStoresSession(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f)

	sess, err := c.Login(context.Background(), "researcher@university.edu", "demo1234")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.User.ID != "acct-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	access, refresh := c.Store().Tokens()
	if access != "access-1" || refresh != "refresh-1" {
		t.Fatalf("tokens not stored: %q %q", access, refresh)
	}

	if _, err := c.Submissions(context.Background()); err != nil {
		t.Fatalf("Submissions: %v", err)
	}
}

func TestExpiredAccessTokenIsRefreshedOnce(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f)
	if _, err := c.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.expire()
	f.listCalls.Store(0)

	if _, err := c.Submissions(context.Background()); err != nil {
		t.Fatalf("Submissions after expiry: %v", err)
	}
	if got := f.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected 1 refresh, got %d", got)
	}
	// One failed attempt, one retry.
	if got := f.listCalls.Load(); got != 2 {
		t.Fatalf("expected 2 list calls, got %d", got)
	}
	if access, _ := c.Store().Tokens(); access != "access-2" {
		t.Fatalf("access token not replaced: %q", access)
	}
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	f := &fakeAPI{refreshDelay: 200 * time.Millisecond}
	c := newTestClient(t, f)
	if _, err := c.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.expire()
	f.listCalls.Store(0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Submissions(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if got := f.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected a single shared refresh, got %d", got)
	}
	// Each caller: one 401 attempt plus one retry.
	if got := f.listCalls.Load(); got != 4 {
		t.Fatalf("expected 4 list calls, got %d", got)
	}
}

func TestRetryHappensAtMostOnce(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f)
	if _, err := c.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// The server refuses the new token too: the client must give up
	// after one retry instead of looping.
	f.refreshUseless = true
	f.expire()
	f.listCalls.Store(0)

	_, err := c.Submissions(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if got := f.listCalls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", got)
	}
}

func TestRefreshFailureClearsSession(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f)
	if _, err := c.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.expire()
	f.refreshFails = true

	// The caller sees its own request's 401, not the refresh error.
	_, err := c.Submissions(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected the original 401, got %v", err)
	}
	if apiErr.Message != "invalid token" {
		t.Fatalf("refresh error leaked to the caller: %v", apiErr)
	}
	access, refresh := c.Store().Tokens()
	if access != "" || refresh != "" {
		t.Fatalf("session not cleared: %q %q", access, refresh)
	}
}

func TestCanceledCallerDoesNotKillSharedRefresh(t *testing.T) {
	f := &fakeAPI{refreshDelay: 200 * time.Millisecond}
	c := newTestClient(t, f)
	if _, err := c.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.expire()

	// First caller starts the refresh and is canceled mid-flight.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Submissions(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	// A second caller joining the same window must still succeed.
	if _, err := c.Submissions(context.Background()); err != nil {
		t.Fatalf("Submissions after canceled initiator: %v", err)
	}
	if access, _ := c.Store().Tokens(); access != "access-2" {
		t.Fatalf("refresh did not complete: %q", access)
	}
}

func TestProvenanceHeadersAreSent(t *testing.T) {
	var gotClient, gotProv string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClient = r.Header.Get("X-Client")
		gotProv = r.Header.Get("X-Provenance")
		writeJSON(w, http.StatusOK, api.SessionResponse{AccessToken: "a", RefreshToken: "r"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithApp("survey-uploader", "staging"))
	if _, err := c.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotClient != "survey-uploader" {
		t.Fatalf("unexpected X-Client: %q", gotClient)
	}
	var prov map[string]string
	if err := json.Unmarshal([]byte(gotProv), &prov); err != nil {
		t.Fatalf("X-Provenance not JSON: %q", gotProv)
	}
	if prov["app"] != "survey-uploader" || prov["environment"] != "staging" || prov["sent_at"] == "" {
		t.Fatalf("unexpected provenance: %v", prov)
	}
}
