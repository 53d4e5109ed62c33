package boxer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
)

func TestExperienceLevel_Adjacency(t *testing.T) {
	for i, level := range ExperienceLevels {
		assert.Equal(t, i, level.Rank())
		for j, other := range ExperienceLevels {
			diff := i - j
			if diff < 0 {
				diff = -diff
			}
			assert.Equal(t, diff <= 1, level.IsCompatibleWith(other), "%s vs %s", level, other)
			assert.Equal(t, level.IsCompatibleWith(other), other.IsCompatibleWith(level))
		}
	}
	assert.Equal(t, -1, ExperienceLevel("CHAMPION").Rank())
}

func TestParseExperienceLevel(t *testing.T) {
	level, err := ParseExperienceLevel(" intermediate ")
	require.NoError(t, err)
	assert.Equal(t, ExperienceIntermediate, level)

	_, err = ParseExperienceLevel("legend")
	assert.ErrorIs(t, err, ErrInvalidExperience)
	assert.True(t, shared.IsValidation(err))
}

func TestNewBoxer(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	kg := 72.5

	b, err := NewBoxer(NewBoxerParams{
		ID: "b-1", UserID: "u-1", Name: "  Ali  ", WeightKg: &kg,
		Wins: 3, Losses: 1, Draws: 1, Experience: ExperienceAmateur, Now: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ali", b.Name)
	assert.Equal(t, 5, b.TotalFights())
	assert.Equal(t, "3-1-1", b.Record())
	assert.True(t, b.IsMatchable())
	assert.Equal(t, now, b.CreatedAt)

	bad := 250.0
	_, err = NewBoxer(NewBoxerParams{ID: "b-2", UserID: "u-2", Name: "X", WeightKg: &bad, Experience: ExperienceAmateur})
	assert.ErrorIs(t, err, ErrInvalidWeight)

	_, err = NewBoxer(NewBoxerParams{ID: "b-3", UserID: "u-3", Name: "X", Wins: -1, Experience: ExperienceAmateur})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestBoxer_ApplyIsAtomic(t *testing.T) {
	now := time.Now()
	b, err := NewBoxer(NewBoxerParams{ID: "b-1", UserID: "u-1", Name: "Ali", Experience: ExperienceAmateur, Now: now})
	require.NoError(t, err)

	name := "Muhammad"
	losses := -2
	err = b.Apply(ProfilePatch{Name: &name, Losses: &losses}, now)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Equal(t, "Ali", b.Name)

	kg := 81.0
	off := false
	require.NoError(t, b.Apply(ProfilePatch{Name: &name, WeightKg: &kg, Searchable: &off}, now))
	assert.Equal(t, "Muhammad", b.Name)
	assert.Equal(t, 81.0, *b.WeightKg)
	assert.False(t, b.IsMatchable())

	require.NoError(t, b.Apply(ProfilePatch{ClearWeight: true}, now))
	assert.False(t, b.HasWeight())
}

func TestSearchFilter(t *testing.T) {
	lo, hi := 60.0, 70.0
	f := SearchFilter{ExcludeIDs: []string{"x"}, MinWeightKg: &lo}
	assert.False(t, f.HasWeightWindow())
	f.MaxWeightKg = &hi
	assert.True(t, f.HasWeightWindow())
	assert.True(t, f.Excludes("x"))
	assert.False(t, f.Excludes("y"))
}
