package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/shared"
)

// Store key prefixes. The impersonation snapshot lives under its own key so
// rehydration can prefer it over the plain session record.
const (
	sessionKeyPrefix       = "session:"
	impersonationKeyPrefix = "impersonate:"
)

// Session is the authentication state for one signed-in actor. Original is
// set exactly while impersonating.
type Session struct {
	ID       string             `json:"id"`
	Current  identity.Identity  `json:"current"`
	Original *identity.Identity `json:"original,omitempty"`
}

// Impersonating reports whether the session carries an impersonation record.
func (s *Session) Impersonating() bool {
	return s != nil && s.Original != nil
}

// impersonationRecord is the persisted combined snapshot written when an
// impersonation starts.
type impersonationRecord struct {
	OriginalUser identity.Identity `json:"originalUser"`
	TargetUser   identity.Identity `json:"targetUser"`
}

// Policy carries externally supplied impersonation rights.
type Policy struct {
	// AdminCanImpersonate grants admins the right to impersonate roles
	// ranked below admin. Super admins always hold the right.
	AdminCanImpersonate bool
}

// Engine drives the login/logout/impersonation state machine and persists
// every transition to the session store.
type Engine struct {
	store       shared.Store
	directory   identity.Directory
	credentials identity.CredentialVerifier
	policy      Policy
	logger      *slog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(store shared.Store, directory identity.Directory, credentials identity.CredentialVerifier, policy Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, directory: directory, credentials: credentials, policy: policy, logger: logger}
}

// Login authenticates the email/credential pair and opens a new session.
// Unknown emails and wrong credentials both surface as
// shared.ErrInvalidCredentials so responses never reveal which part failed.
func (e *Engine) Login(ctx context.Context, email, credential string) (*Session, error) {
	record, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !e.credentials.Verify(ctx, record.ID, credential) {
		return nil, shared.ErrInvalidCredentials
	}

	current := *record
	current.LastLogin = time.Now().UTC()
	sess := &Session{ID: uuid.NewString(), Current: current}
	e.persistSession(ctx, sess)
	if toucher, ok := e.directory.(interface {
		TouchLogin(ctx context.Context, id string, at time.Time) error
	}); ok {
		if err := toucher.TouchLogin(ctx, current.ID, current.LastLogin); err != nil {
			e.logger.Warn("touch last login", slog.Any("error", err))
		}
	}
	return sess, nil
}

// Logout tears the session down unconditionally: both the plain session
// record and any impersonation snapshot are removed so no orphaned
// impersonation state survives.
func (e *Engine) Logout(ctx context.Context, sess *Session) {
	if sess == nil {
		return
	}
	if err := e.store.Remove(ctx, impersonationKeyPrefix+sess.ID); err != nil {
		e.logger.Warn("remove impersonation snapshot", slog.Any("error", err))
	}
	if err := e.store.Remove(ctx, sessionKeyPrefix+sess.ID); err != nil {
		e.logger.Warn("remove session", slog.Any("error", err))
	}
	sess.Original = nil
}

// CanImpersonate reports whether the acting identity may start an
// impersonation. Always false for anonymous callers.
func (e *Engine) CanImpersonate(sess *Session) bool {
	if sess == nil {
		return false
	}
	return e.canImpersonateRole(sess.Current.Role)
}

func (e *Engine) canImpersonateRole(role identity.Role) bool {
	switch role {
	case identity.RoleSuperAdmin:
		return true
	case identity.RoleAdmin:
		return e.policy.AdminCanImpersonate
	}
	return false
}

// StartImpersonation switches the session to the target identity, keeping the
// actor as Original. Impersonation is single-level: an active impersonation is
// collapsed back to the original before the new one starts. The persisted
// snapshot overwrites any prior record.
func (e *Engine) StartImpersonation(ctx context.Context, sess *Session, targetID string) error {
	if sess == nil {
		return shared.ErrNotAuthenticated
	}
	// Single-level only: the acting identity is always the original one, so
	// starting a new impersonation while impersonating collapses to it.
	actor := sess.Current
	if sess.Impersonating() {
		actor = *sess.Original
	}
	if !e.canImpersonateRole(actor.Role) {
		e.logger.Warn("impersonation denied",
			slog.String("actor", actor.ID),
			slog.String("role", string(actor.Role)))
		return shared.ErrUnauthorized
	}

	target, err := e.directory.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	// A non-super_admin actor may only step down: impersonating a peer
	// admin or a super_admin is refused.
	if actor.Role != identity.RoleSuperAdmin && target.Role.Rank() >= identity.RoleAdmin.Rank() {
		e.logger.Warn("impersonation target above policy",
			slog.String("actor", actor.ID),
			slog.String("target", target.ID))
		return shared.ErrUnauthorized
	}

	original := actor
	sess.Original = &original
	sess.Current = *target

	record := impersonationRecord{OriginalUser: original, TargetUser: *target}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("session: marshal impersonation record: %w", err)
	}
	if err := e.store.Set(ctx, impersonationKeyPrefix+sess.ID, string(data)); err != nil {
		e.logger.Warn("persist impersonation snapshot", slog.Any("error", err))
	}
	return nil
}

// StopImpersonation restores the original identity. Calling it while not
// impersonating is a no-op.
func (e *Engine) StopImpersonation(ctx context.Context, sess *Session) error {
	if sess == nil || !sess.Impersonating() {
		return nil
	}
	sess.Current = *sess.Original
	sess.Original = nil
	if err := e.store.Remove(ctx, impersonationKeyPrefix+sess.ID); err != nil {
		e.logger.Warn("remove impersonation snapshot", slog.Any("error", err))
	}
	e.persistSession(ctx, sess)
	return nil
}

// Restore rehydrates a session by ID. The impersonation snapshot is read
// first; a stale plain-session record never overrides an active
// impersonation. Returns shared.ErrNotFound when neither record exists.
func (e *Engine) Restore(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := e.store.Get(ctx, impersonationKeyPrefix+sessionID)
	if err == nil {
		var record impersonationRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("session: corrupt impersonation record: %w", err)
		}
		original := record.OriginalUser
		return &Session{ID: sessionID, Current: record.TargetUser, Original: &original}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	raw, err = e.store.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("session: corrupt session record: %w", err)
	}
	sess.ID = sessionID
	return &sess, nil
}

// persistSession writes the plain session record. Store failures are logged
// and not surfaced; persistence is fire-and-forget by design of the store.
func (e *Engine) persistSession(ctx context.Context, sess *Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		e.logger.Error("marshal session", slog.Any("error", err))
		return
	}
	if err := e.store.Set(ctx, sessionKeyPrefix+sess.ID, string(data)); err != nil {
		e.logger.Warn("persist session", slog.Any("error", err))
	}
}
