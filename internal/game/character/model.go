package character

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by character lookups that yield no results.
// Stores return errors satisfying errors.Is against this sentinel so
// callers can distinguish an absent character from an infrastructure
// failure.
var ErrNotFound = errors.New("character not found")

// Character represents a player character's persistent sheet state.
//
// ID is set by the persistence layer; a zero UUID indicates an unsaved
// character.
type Character struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CampaignID uuid.UUID

	Name  string
	Level int

	Abilities AbilityScores

	HPCurrent int
	HPMax     int
	HPTemp    int
	AC        int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InitiativeModifier returns the dexterity-derived initiative modifier.
//
// Postcondition: Returns Modifier(dexterity score).
func (c *Character) InitiativeModifier() int {
	return Modifier(c.Abilities.Score(Dexterity))
}
