// Package boxer contains the domain model of a matchable boxer profile.
// A boxer is distinct from the user account that owns it.
package boxer

import (
	"fmt"
	"strings"
	"time"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ExperienceLevel is the ordered experience tier of a boxer.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "BEGINNER"
	ExperienceAmateur      ExperienceLevel = "AMATEUR"
	ExperienceIntermediate ExperienceLevel = "INTERMEDIATE"
	ExperienceAdvanced     ExperienceLevel = "ADVANCED"
	ExperienceProfessional ExperienceLevel = "PROFESSIONAL"
)

// ExperienceLevels lists all tiers from lowest to highest.
var ExperienceLevels = []ExperienceLevel{
	ExperienceBeginner,
	ExperienceAmateur,
	ExperienceIntermediate,
	ExperienceAdvanced,
	ExperienceProfessional,
}

// experienceCompatibility is the fixed adjacency table: every tier may be
// matched with itself and its immediate neighbours.
var experienceCompatibility = map[ExperienceLevel][]ExperienceLevel{
	ExperienceBeginner:     {ExperienceBeginner, ExperienceAmateur},
	ExperienceAmateur:      {ExperienceBeginner, ExperienceAmateur, ExperienceIntermediate},
	ExperienceIntermediate: {ExperienceAmateur, ExperienceIntermediate, ExperienceAdvanced},
	ExperienceAdvanced:     {ExperienceIntermediate, ExperienceAdvanced, ExperienceProfessional},
	ExperienceProfessional: {ExperienceAdvanced, ExperienceProfessional},
}

// ParseExperienceLevel parses a tier name, case-insensitively.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	level := ExperienceLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !level.IsValid() {
		return "", ErrInvalidExperience.WithMessage("unknown experience level %q", s)
	}
	return level, nil
}

// IsValid reports whether the tier is one of the known levels.
func (e ExperienceLevel) IsValid() bool {
	_, ok := experienceCompatibility[e]
	return ok
}

// Rank returns the position of the tier on the ordered scale, or -1.
func (e ExperienceLevel) Rank() int {
	for i, l := range ExperienceLevels {
		if l == e {
			return i
		}
	}
	return -1
}

// CompatibleLevels returns the tiers this tier may be matched with.
func (e ExperienceLevel) CompatibleLevels() []ExperienceLevel {
	levels := experienceCompatibility[e]
	out := make([]ExperienceLevel, len(levels))
	copy(out, levels)
	return out
}

// IsCompatibleWith reports whether other is in this tier's adjacency set.
func (e ExperienceLevel) IsCompatibleWith(other ExperienceLevel) bool {
	for _, l := range experienceCompatibility[e] {
		if l == other {
			return true
		}
	}
	return false
}

// String returns the tier name.
func (e ExperienceLevel) String() string {
	return string(e)
}

// Limits for profile validation.
const (
	MaxWeightKg   = 200.0
	MaxNameLength = 100
	MaxBioLength  = 2000
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrBoxerNotFound        = shared.NewDomainError("boxer", "Find", shared.ErrNotFound, "boxer not found")
	ErrProfileAlreadyExists = shared.NewDomainError("boxer", "Create", shared.ErrAlreadyExists, "user already has a boxer profile")
	ErrInvalidExperience    = shared.NewDomainError("boxer", "Validate", shared.ErrInvalidInput, "invalid experience level")
	ErrInvalidWeight        = shared.NewDomainError("boxer", "Validate", shared.ErrValueOutOfRange, "weight must be between 0 and 200 kg")
	ErrInvalidRecord        = shared.NewDomainError("boxer", "Validate", shared.ErrNegativeValue, "wins, losses and draws cannot be negative")
	ErrInvalidName          = shared.NewDomainError("boxer", "Validate", shared.ErrEmptyValue, "name is required")
	ErrProfileEditForbidden = shared.NewDomainError("boxer", "Update", shared.ErrForbidden, "not allowed to edit this boxer profile")
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: BOXER
// ══════════════════════════════════════════════════════════════════════════════

// Boxer is a matchable boxer profile.
type Boxer struct {
	ID     string
	UserID string
	Name   string

	// WeightKg is nil when the boxer has not specified a weight.
	WeightKg *float64

	Wins   int
	Losses int
	Draws  int

	Experience ExperienceLevel

	City    string
	Country string
	Bio     string

	// Searchable boxers take part in matching; clearing it is a soft deactivation.
	Searchable bool

	// Active mirrors the owning account's active flag.
	Active bool

	ClubID         *string
	GymAffiliation string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBoxerParams holds the input for a new profile.
type NewBoxerParams struct {
	ID         string
	UserID     string
	Name       string
	WeightKg   *float64
	Wins       int
	Losses     int
	Draws      int
	Experience ExperienceLevel
	City       string
	Country    string
	Bio        string
	Now        time.Time
}

// NewBoxer validates the params and builds a searchable, active profile.
func NewBoxer(p NewBoxerParams) (*Boxer, error) {
	if p.ID == "" || p.UserID == "" {
		return nil, shared.NewDomainError("boxer", "Create", shared.ErrInvalidID, "boxer and user ids are required")
	}

	b := &Boxer{
		ID:         p.ID,
		UserID:     p.UserID,
		Name:       strings.TrimSpace(p.Name),
		WeightKg:   p.WeightKg,
		Wins:       p.Wins,
		Losses:     p.Losses,
		Draws:      p.Draws,
		Experience: p.Experience,
		City:       strings.TrimSpace(p.City),
		Country:    strings.TrimSpace(p.Country),
		Bio:        p.Bio,
		Searchable: true,
		Active:     true,
		CreatedAt:  p.Now.UTC(),
		UpdatedAt:  p.Now.UTC(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the profile invariants.
func (b *Boxer) Validate() error {
	if b.Name == "" || len(b.Name) > MaxNameLength {
		return ErrInvalidName
	}
	if b.WeightKg != nil && (*b.WeightKg <= 0 || *b.WeightKg > MaxWeightKg) {
		return ErrInvalidWeight
	}
	if b.Wins < 0 || b.Losses < 0 || b.Draws < 0 {
		return ErrInvalidRecord
	}
	if !b.Experience.IsValid() {
		return ErrInvalidExperience
	}
	if len(b.Bio) > MaxBioLength {
		return shared.NewDomainError("boxer", "Validate", shared.ErrValueOutOfRange, "bio is too long")
	}
	return nil
}

// TotalFights is wins + losses + draws.
func (b *Boxer) TotalFights() int {
	return b.Wins + b.Losses + b.Draws
}

// HasWeight reports whether the weight is specified.
func (b *Boxer) HasWeight() bool {
	return b.WeightKg != nil
}

// IsMatchable reports whether the boxer can appear in matching results.
func (b *Boxer) IsMatchable() bool {
	return b.Searchable && b.Active
}

// Record returns the W-L-D string.
func (b *Boxer) Record() string {
	return fmt.Sprintf("%d-%d-%d", b.Wins, b.Losses, b.Draws)
}

// AssignClub sets the club and the gym affiliation label.
func (b *Boxer) AssignClub(clubID, gymAffiliation string, now time.Time) {
	b.ClubID = &clubID
	b.GymAffiliation = gymAffiliation
	b.UpdatedAt = now.UTC()
}

// Clone returns a deep copy of the boxer.
func (b *Boxer) Clone() *Boxer {
	if b == nil {
		return nil
	}
	clone := *b
	if b.WeightKg != nil {
		w := *b.WeightKg
		clone.WeightKg = &w
	}
	if b.ClubID != nil {
		c := *b.ClubID
		clone.ClubID = &c
	}
	return &clone
}

// String returns a string representation for logging.
func (b *Boxer) String() string {
	return fmt.Sprintf("Boxer{ID: %s, Name: %s, Record: %s, Experience: %s}", b.ID, b.Name, b.Record(), b.Experience)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE PATCH
// ══════════════════════════════════════════════════════════════════════════════

// ProfilePatch holds a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name        *string
	WeightKg    *float64
	ClearWeight bool
	Wins        *int
	Losses      *int
	Draws       *int
	Experience  *ExperienceLevel
	City        *string
	Country     *string
	Bio         *string
	Searchable  *bool
}

// Apply applies the patch and re-validates the profile. On error the boxer is left unchanged.
func (b *Boxer) Apply(p ProfilePatch, now time.Time) error {
	next := b.Clone()
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.ClearWeight {
		next.WeightKg = nil
	} else if p.WeightKg != nil {
		w := *p.WeightKg
		next.WeightKg = &w
	}
	if p.Wins != nil {
		next.Wins = *p.Wins
	}
	if p.Losses != nil {
		next.Losses = *p.Losses
	}
	if p.Draws != nil {
		next.Draws = *p.Draws
	}
	if p.Experience != nil {
		next.Experience = *p.Experience
	}
	if p.City != nil {
		next.City = strings.TrimSpace(*p.City)
	}
	if p.Country != nil {
		next.Country = strings.TrimSpace(*p.Country)
	}
	if p.Bio != nil {
		next.Bio = *p.Bio
	}
	if p.Searchable != nil {
		next.Searchable = *p.Searchable
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = now.UTC()
	*b = *next
	return nil
}
