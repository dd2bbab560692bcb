package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/session"
	"github.com/solterra-club/backoffice/internal/shared"
	_ "github.com/solterra-club/backoffice/testing"
)

func newEngine(t *testing.T, policy session.Policy) (*session.Engine, shared.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := shared.NewRedisStore(client, "test", time.Hour)
	directory, credentials := identity.SeedDirectory()
	return session.NewEngine(store, directory, credentials, policy, nil), store
}

func login(t *testing.T, engine *session.Engine, email, credential string) *session.Session {
	t.Helper()
	sess, err := engine.Login(context.Background(), email, credential)
	require.NoError(t, err)
	return sess
}

func TestLoginSuccess(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess, err := engine.Login(ctx, "customer@example.com", "customer123")
	require.NoError(t, err)
	require.Equal(t, identity.RoleCustomer, sess.Current.Role)
	require.Equal(t, identity.SeedCustomerID, sess.Current.ID)
	require.Nil(t, sess.Original)
	require.NotEmpty(t, sess.ID)

	// The second shared demo credential works for the same account.
	sess, err = engine.Login(ctx, "customer@example.com", "demo2024")
	require.NoError(t, err)
	require.Equal(t, identity.SeedCustomerID, sess.Current.ID)
}

func TestLoginFailureIsGeneric(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	_, err := engine.Login(ctx, "customer@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Unknown emails fail with the same sentinel as wrong credentials.
	_, err = engine.Login(ctx, "nobody@example.com", "customer123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginPersistsSession(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess := login(t, engine, "manager@example.com", "manager123")

	restored, err := engine.Restore(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.Current.ID, restored.Current.ID)
	require.Nil(t, restored.Original)
}

func TestLogoutClearsEverything(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess := login(t, engine, "superadmin@example.com", "superadmin123")
	require.NoError(t, engine.StartImpersonation(ctx, sess, identity.SeedCustomerID))
	require.True(t, sess.Impersonating())

	engine.Logout(ctx, sess)
	require.False(t, sess.Impersonating())

	_, err := engine.Restore(ctx, sess.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCanImpersonate(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{AdminCanImpersonate: true})

	require.False(t, engine.CanImpersonate(nil))

	superAdmin := login(t, engine, "superadmin@example.com", "superadmin123")
	require.True(t, engine.CanImpersonate(superAdmin))

	admin := login(t, engine, "admin@example.com", "admin123")
	require.True(t, engine.CanImpersonate(admin))

	manager := login(t, engine, "manager@example.com", "manager123")
	require.False(t, engine.CanImpersonate(manager))
}

func TestAdminImpersonationPolicyOff(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{AdminCanImpersonate: false})

	admin := login(t, engine, "admin@example.com", "admin123")
	require.False(t, engine.CanImpersonate(admin))

	err := engine.StartImpersonation(context.Background(), admin, identity.SeedCustomerID)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	require.Nil(t, admin.Original)
}

func TestStartImpersonation(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess := login(t, engine, "superadmin@example.com", "superadmin123")
	before := sess.Current.ID

	require.NoError(t, engine.StartImpersonation(ctx, sess, identity.SeedCustomerID))
	require.Equal(t, identity.SeedCustomerID, sess.Current.ID)
	require.NotNil(t, sess.Original)
	require.Equal(t, before, sess.Original.ID)
}

func TestStartImpersonationDeniedForManager(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{AdminCanImpersonate: true})
	ctx := context.Background()

	sess := login(t, engine, "manager@example.com", "manager123")
	err := engine.StartImpersonation(ctx, sess, identity.SeedAdminID)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	require.Equal(t, identity.SeedManagerID, sess.Current.ID)
	require.Nil(t, sess.Original)
}

func TestAdminCannotImpersonatePeersOrAbove(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{AdminCanImpersonate: true})
	ctx := context.Background()

	sess := login(t, engine, "admin@example.com", "admin123")

	err := engine.StartImpersonation(ctx, sess, identity.SeedSuperAdminID)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	require.Nil(t, sess.Original)

	// Stepping down is allowed.
	require.NoError(t, engine.StartImpersonation(ctx, sess, identity.SeedAffiliateID))
	require.Equal(t, identity.SeedAffiliateID, sess.Current.ID)
}

func TestStartImpersonationUnknownTarget(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess := login(t, engine, "superadmin@example.com", "superadmin123")
	err := engine.StartImpersonation(ctx, sess, "usr-9999")
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Nil(t, sess.Original)
}

func TestImpersonationIsSingleLevel(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess := login(t, engine, "superadmin@example.com", "superadmin123")
	require.NoError(t, engine.StartImpersonation(ctx, sess, identity.SeedCustomerID))
	require.NoError(t, engine.StartImpersonation(ctx, sess, identity.SeedManagerID))

	// The original stays the real actor, never the first target.
	require.Equal(t, identity.SeedManagerID, sess.Current.ID)
	require.Equal(t, identity.SeedSuperAdminID, sess.Original.ID)

	require.NoError(t, engine.StopImpersonation(ctx, sess))
	require.Equal(t, identity.SeedSuperAdminID, sess.Current.ID)
	require.Nil(t, sess.Original)
}

func TestStopImpersonationIdempotent(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess := login(t, engine, "superadmin@example.com", "superadmin123")
	require.NoError(t, engine.StartImpersonation(ctx, sess, identity.SeedCustomerID))
	require.NoError(t, engine.StopImpersonation(ctx, sess))
	require.Equal(t, identity.SeedSuperAdminID, sess.Current.ID)

	require.NoError(t, engine.StopImpersonation(ctx, sess))
	require.Equal(t, identity.SeedSuperAdminID, sess.Current.ID)
	require.Nil(t, sess.Original)
}

func TestRestorePrefersImpersonationSnapshot(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess := login(t, engine, "superadmin@example.com", "superadmin123")
	require.NoError(t, engine.StartImpersonation(ctx, sess, identity.SeedCustomerID))

	// The plain session record still holds the pre-impersonation identity;
	// rehydration must pick the snapshot over it.
	restored, err := engine.Restore(ctx, sess.ID)
	require.NoError(t, err)
	require.True(t, restored.Impersonating())
	require.Equal(t, identity.SeedCustomerID, restored.Current.ID)
	require.Equal(t, identity.SeedSuperAdminID, restored.Original.ID)
}

func TestRestoreAfterStopFallsBackToSession(t *testing.T) {
	engine, _ := newEngine(t, session.Policy{})
	ctx := context.Background()

	sess := login(t, engine, "superadmin@example.com", "superadmin123")
	require.NoError(t, engine.StartImpersonation(ctx, sess, identity.SeedCustomerID))
	require.NoError(t, engine.StopImpersonation(ctx, sess))

	restored, err := engine.Restore(ctx, sess.ID)
	require.NoError(t, err)
	require.False(t, restored.Impersonating())
	require.Equal(t, identity.SeedSuperAdminID, restored.Current.ID)
}

func TestRestoreCorruptRecord(t *testing.T) {
	engine, store := newEngine(t, session.Policy{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session:broken", "{not json"))
	_, err := engine.Restore(ctx, "broken")
	require.Error(t, err)
	require.NotErrorIs(t, err, shared.ErrNotFound)
}
