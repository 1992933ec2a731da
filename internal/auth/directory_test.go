package auth

import (
	"sync"
	"testing"
)

func TestDirectoryCreateAndLookup(t *testing.T) {
	dir := NewDirectory()

	acc, err := dir.Create("r1@example.com", "secret1", "Researcher One", RoleResearcher, "Ocean Lab")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if acc.ID == "" || !acc.Active {
		t.Fatalf("unexpected account: %+v", acc)
	}

	byEmail, err := dir.FindByEmail("r1@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	byID, err := dir.FindByID(acc.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byEmail.ID != byID.ID || byEmail.ID != acc.ID {
		t.Fatal("lookups disagree on account identity")
	}
}

func TestDirectoryRejectsDuplicateEmail(t *testing.T) {
	dir := NewDirectory()
	if _, err := dir.Create("r1@example.com", "secret1", "Researcher One", RoleResearcher, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := dir.Create("r1@example.com", "other", "Impostor", RoleResearcher, ""); err != ErrDuplicateAccount {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestVerifyCredential(t *testing.T) {
	dir := NewDirectory()
	acc, err := dir.Create("r1@example.com", "secret1", "Researcher One", RoleResearcher, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !dir.VerifyCredential("r1@example.com", "secret1") {
		t.Fatal("correct credential rejected")
	}
	if dir.VerifyCredential("r1@example.com", "wrong") {
		t.Fatal("wrong password accepted")
	}
	if dir.VerifyCredential("nobody@example.com", "secret1") {
		t.Fatal("unknown account accepted")
	}

	// Inactive accounts fail closed even with the correct secret.
	if err := dir.SetActive(acc.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if dir.VerifyCredential("r1@example.com", "secret1") {
		t.Fatal("inactive account accepted")
	}
}

func TestVerifyCredentialConcurrentWithSetActive(t *testing.T) {
	dir := NewDirectory()
	acc, err := dir.Create("r1@example.com", "secret1", "Researcher One", RoleResearcher, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			dir.VerifyCredential("r1@example.com", "secret1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			_ = dir.SetActive(acc.ID, i%2 == 0)
		}
	}()
	wg.Wait()
}

func TestParseRole(t *testing.T) {
	if _, err := ParseRole("government"); err != nil {
		t.Fatalf("government must parse: %v", err)
	}
	if _, err := ParseRole("researcher"); err != nil {
		t.Fatalf("researcher must parse: %v", err)
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Fatal("unknown role must be rejected")
	}
	if _, err := ParseRole(""); err == nil {
		t.Fatal("empty role must be rejected")
	}
}
