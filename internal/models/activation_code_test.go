package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestActivationCodeStatusPrecedence(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	fresh := ActivationCode{ExpiresAt: future}
	require.Equal(t, CodeStatusActive, fresh.Status(now))
	require.False(t, fresh.IsLocked())
	require.False(t, fresh.IsExpired(now))

	expired := ActivationCode{ExpiresAt: past}
	require.Equal(t, CodeStatusExpired, expired.Status(now))

	locked := ActivationCode{ExpiresAt: future, ActivationAttempts: MaxActivationAttempts}
	require.Equal(t, CodeStatusLocked, locked.Status(now))

	// Locked wins over expired; used wins over everything.
	lockedAndExpired := ActivationCode{ExpiresAt: past, ActivationAttempts: MaxActivationAttempts}
	require.Equal(t, CodeStatusLocked, lockedAndExpired.Status(now))

	used := ActivationCode{ExpiresAt: past, ActivationAttempts: RevokedAttempts, IsUsed: true}
	require.Equal(t, CodeStatusUsed, used.Status(now))
}

func TestActivationCodeRevokedIsLocked(t *testing.T) {
	revoked := ActivationCode{ExpiresAt: time.Now().Add(time.Hour), ActivationAttempts: RevokedAttempts}
	require.True(t, revoked.IsLocked())
	require.Equal(t, CodeStatusLocked, revoked.Status(time.Now()))
}

func TestActivationCodeAttemptsBelowThreshold(t *testing.T) {
	code := ActivationCode{ExpiresAt: time.Now().Add(time.Hour), ActivationAttempts: MaxActivationAttempts - 1}
	require.False(t, code.IsLocked())
	require.Equal(t, CodeStatusActive, code.Status(time.Now()))
}

func TestRoleCanSupervise(t *testing.T) {
	require.True(t, RoleAdmin.CanSupervise())
	require.True(t, RoleEncargado.CanSupervise())
	require.False(t, RoleBrigadista.CanSupervise())
	require.False(t, Role("guest").Valid())
	require.True(t, RoleBrigadista.Valid())
}
