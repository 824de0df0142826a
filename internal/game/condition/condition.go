// Package condition defines the status conditions a DM can apply to
// characters mid-session.
package condition

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Types lists the recognised condition types.
var Types = []string{
	"blinded",
	"charmed",
	"deafened",
	"frightened",
	"grappled",
	"incapacitated",
	"invisible",
	"paralyzed",
	"petrified",
	"poisoned",
	"prone",
	"restrained",
	"stunned",
	"unconscious",
}

// ErrUnknownType is returned when a condition type is not in Types.
var ErrUnknownType = errors.New("unknown condition type")

// ParseType normalises and validates a condition type string.
//
// Postcondition: Returns the canonical lowercase type or an error wrapping
// ErrUnknownType.
func ParseType(s string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownType, s, strings.Join(Types, ", "))
}

// Condition is one active condition on a character.
type Condition struct {
	ID          uuid.UUID
	CharacterID uuid.UUID
	Type        string
	// DurationRounds is the remaining duration in combat rounds; nil means
	// indefinite (until removed).
	DurationRounds *int
	// Source describes what inflicted the condition, e.g. "Hold Person".
	Source    string
	CreatedAt time.Time
}
