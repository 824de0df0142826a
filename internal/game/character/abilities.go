// Package character defines the character domain model shared by the combat
// coordinator, forced checks, and persistence.
package character

import (
	"errors"
	"fmt"
	"strings"
)

// Ability identifies one of the six fixed ability scores.
type Ability string

const (
	Strength     Ability = "str"
	Dexterity    Ability = "dex"
	Constitution Ability = "con"
	Intelligence Ability = "int"
	Wisdom       Ability = "wis"
	Charisma     Ability = "cha"
)

// Abilities lists the six abilities in canonical order.
var Abilities = []Ability{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// ErrUnknownAbility is returned when an ability key is not one of the six
// fixed abilities.
var ErrUnknownAbility = errors.New("unknown ability")

// ParseAbility converts a lowercase ability key into an Ability.
//
// Postcondition: Returns an error wrapping ErrUnknownAbility for any key
// outside the six fixed abilities.
func ParseAbility(key string) (Ability, error) {
	a := Ability(strings.ToLower(strings.TrimSpace(key)))
	for _, known := range Abilities {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAbility, key)
}

// AbilityScores maps the six abilities to integer scores in [1, 30].
type AbilityScores map[Ability]int

// DefaultAbilityScores returns a score block with every ability at 10.
func DefaultAbilityScores() AbilityScores {
	scores := make(AbilityScores, len(Abilities))
	for _, a := range Abilities {
		scores[a] = 10
	}
	return scores
}

// Score returns the score for a, defaulting to 10 when absent.
func (s AbilityScores) Score(a Ability) int {
	if v, ok := s[a]; ok {
		return v
	}
	return 10
}

// Modifier computes the ability modifier for score using floor division
// toward negative infinity: floor((score - 10) / 2). A score of 8 yields -1,
// not 0.
//
// Postcondition: Returns floor((score - 10) / 2).
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}
