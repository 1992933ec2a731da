package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"oceanos.org/internal/ids"
)

// Account is an identity record. Accounts are never deleted; deactivation
// flips the Active flag.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Organization string    `json:"organization,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Active       bool      `json:"active"`
}

// Directory is the in-memory account set. Every account with a login has
// exactly one credential entry keyed by the same email.
type Directory struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]*Account
	creds   map[string]string // email -> bcrypt hash
	now     func() time.Time
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]*Account),
		creds:   make(map[string]string),
		now:     time.Now,
	}
}

// Create registers an account with its credential. Fails with
// ErrDuplicateAccount when the email is already taken.
func (d *Directory) Create(email, password, name string, role Role, organization string) (Account, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return Account{}, fmt.Errorf("%w: email, password and name are required", ErrInvalidInput)
	}
	if !role.Valid() {
		return Account{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Account{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byEmail[email]; exists {
		return Account{}, ErrDuplicateAccount
	}
	acc := &Account{
		ID:           ids.New(),
		Email:        email,
		Name:         name,
		Role:         role,
		Organization: strings.TrimSpace(organization),
		CreatedAt:    d.now().UTC(),
		Active:       true,
	}
	d.byID[acc.ID] = acc
	d.byEmail[email] = acc
	d.creds[email] = hash
	return *acc, nil
}

// FindByEmail returns the account stored under the exact email key.
func (d *Directory) FindByEmail(email string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acc, ok := d.byEmail[email]
	if !ok {
		return Account{}, ErrNotFound
	}
	return *acc, nil
}

// FindByID returns the account with the given id.
func (d *Directory) FindByID(id string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acc, ok := d.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return *acc, nil
}

// VerifyCredential reports whether the secret matches the stored credential.
// Fails closed for unknown or inactive accounts.
func (d *Directory) VerifyCredential(email, password string) bool {
	d.mu.RLock()
	acc, ok := d.byEmail[email]
	var active bool
	if ok {
		active = acc.Active
	}
	hash := d.creds[email]
	d.mu.RUnlock()
	if !ok || !active {
		return false
	}
	return VerifyPassword(hash, password) == nil
}

// Count reports the number of registered accounts.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

// SetActive toggles the active flag. Unknown ids return ErrNotFound.
func (d *Directory) SetActive(id string, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	acc, ok := d.byID[id]
	if !ok {
		return ErrNotFound
	}
	acc.Active = active
	return nil
}

// SeedDemo loads the local-development accounts. The passwords below are
// scaffolding only and must never reach a real deployment.
func SeedDemo(d *Directory) error {
	demo := []struct {
		email, password, name, org string
		role                       Role
	}{
		{"government@example.com", "demo1234", "Ministry Reviewer", "Ministry of Earth Sciences", RoleGovernment},
		{"researcher@university.edu", "demo1234", "Dr. Marine Biologist", "National Institute of Oceanography", RoleResearcher},
		{"researcher2@lab.org", "demo1234", "Dr. Reef Ecologist", "Coastal Research Lab", RoleResearcher},
	}
	for _, u := range demo {
		if _, err := d.Create(u.email, u.password, u.name, u.role, u.org); err != nil {
			return err
		}
	}
	return nil
}
