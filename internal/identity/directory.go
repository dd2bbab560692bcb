package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/solterra-club/backoffice/internal/shared"
)

// Directory defines read-only identity lookups. Absence is reported as
// shared.ErrNotFound; callers treat it as a normal outcome.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
}

// CredentialVerifier checks a login credential against the credential set of
// an identity. Several credentials may be valid for the same identity (shared
// demo accounts).
type CredentialVerifier interface {
	Verify(ctx context.Context, identityID, credential string) bool
}

// StaticDirectory serves a fixed identity catalog seeded at process start.
type StaticDirectory struct {
	mu      sync.RWMutex
	byID    map[string]Identity
	byEmail map[string]string
}

// NewStaticDirectory builds a directory from the given catalog. Email lookup
// is case-insensitive.
func NewStaticDirectory(catalog []Identity) *StaticDirectory {
	d := &StaticDirectory{
		byID:    make(map[string]Identity, len(catalog)),
		byEmail: make(map[string]string, len(catalog)),
	}
	for _, id := range catalog {
		d.byID[id.ID] = id
		d.byEmail[strings.ToLower(id.Email)] = id.ID
	}
	return d
}

// FindByEmail resolves an identity by email.
func (d *StaticDirectory) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, shared.ErrNotFound
	}
	record := d.byID[id]
	return &record, nil
}

// FindByID resolves an identity by its opaque ID.
func (d *StaticDirectory) FindByID(ctx context.Context, id string) (*Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	record, ok := d.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &record, nil
}

// TouchLogin records a successful login time on the catalog entry.
func (d *StaticDirectory) TouchLogin(ctx context.Context, id string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	record, ok := d.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	record.LastLogin = at
	d.byID[id] = record
	return nil
}

// StaticCredentials verifies credentials against seeded bcrypt hashes.
type StaticCredentials struct {
	hashes map[string][][]byte
}

// NewStaticCredentials hashes the given plain credential sets. Intended for
// the demo catalog only.
func NewStaticCredentials(plain map[string][]string) *StaticCredentials {
	hashes := make(map[string][][]byte, len(plain))
	for id, credentials := range plain {
		for _, credential := range credentials {
			hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.MinCost)
			if err != nil {
				continue
			}
			hashes[id] = append(hashes[id], hash)
		}
	}
	return &StaticCredentials{hashes: hashes}
}

// Verify reports whether the credential matches any hash in the identity's
// credential set.
func (c *StaticCredentials) Verify(ctx context.Context, identityID, credential string) bool {
	for _, hash := range c.hashes[identityID] {
		if bcrypt.CompareHashAndPassword(hash, []byte(credential)) == nil {
			return true
		}
	}
	return false
}

var (
	_ Directory          = (*StaticDirectory)(nil)
	_ CredentialVerifier = (*StaticCredentials)(nil)
)
