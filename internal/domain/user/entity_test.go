package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("  Coach@Gym.IO ")
	require.NoError(t, err)
	assert.Equal(t, "coach@gym.io", email)

	for _, bad := range []string{"", "nope", "Name <a@b.c>", "a@"} {
		_, err := NormalizeEmail(bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleBoxer, r)

	r, err = ParseRole("gym_owner")
	require.NoError(t, err)
	assert.Equal(t, RoleGymOwner, r)
	assert.True(t, r.CanManageClubs())
	assert.False(t, RoleBoxer.CanManageClubs())

	_, err = ParseRole("referee")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("u-1", "Ali@Example.com", "hash", RoleAdmin, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ali@example.com", u.Email)
	assert.True(t, u.Active)
	assert.True(t, u.IsAdmin())
}
