// Package combat implements the encounter lifecycle and turn-order engine:
// initiative rolling, deterministic turn advancement, round counting, and
// participant ordering within a campaign's single active encounter.
package combat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrCombatAlreadyActive is returned when starting combat in a campaign that
// already has an active encounter.
var ErrCombatAlreadyActive = errors.New("combat already active")

// ErrNoActiveCombat is returned when advancing or ending combat in a campaign
// with no active encounter.
var ErrNoActiveCombat = errors.New("no active combat")

// ErrNoParticipants is returned when starting combat with an empty
// participant list. An encounter always has at least one participant.
var ErrNoParticipants = errors.New("combat requires at least one participant")

// Encounter is one active combat session scoped to a campaign. A campaign
// owns at most one Encounter at any time.
//
// Invariant: CurrentRound >= 1 and is monotonically non-decreasing;
// CurrentTurnIndex is in [0, len(Participants)).
type Encounter struct {
	ID               uuid.UUID
	CampaignID       uuid.UUID
	CurrentRound     int
	CurrentTurnIndex int
	IsActive         bool
	StartedAt        time.Time

	// Participants is ordered by TurnOrder ascending.
	Participants []Participant
}

// CurrentParticipant returns the participant whose turn it currently is.
//
// Precondition: the encounter has at least one participant.
func (e *Encounter) CurrentParticipant() Participant {
	return e.Participants[e.CurrentTurnIndex]
}

// Participant is one combatant in an encounter with a fixed turn-order slot.
type Participant struct {
	ID          uuid.UUID
	EncounterID uuid.UUID
	// CharacterID references the backing character sheet; nil for
	// DM-controlled NPCs.
	CharacterID *uuid.UUID
	Name        string
	Initiative  int
	// TurnOrder is the 0-based rank assigned by descending initiative,
	// ties broken by submission order.
	TurnOrder int
	IsNPC     bool
}

// ParticipantSpec describes one combatant to register when starting combat.
// Build specs with CharacterRef or BareNPC; the HTTP boundary resolves loose
// request payloads into this form before they reach the coordinator.
type ParticipantSpec struct {
	// CharacterID is set when the spec references an existing character.
	CharacterID *uuid.UUID
	// Name is the fallback display name when no character name resolves.
	Name string
	// NPC marks a DM-controlled combatant.
	NPC bool
}

// CharacterRef returns a spec referencing an existing character. The
// character's sheet supplies the display name and initiative modifier.
func CharacterRef(id uuid.UUID) ParticipantSpec {
	return ParticipantSpec{CharacterID: &id}
}

// BareNPC returns a spec for a DM-controlled combatant with no character
// sheet. Initiative modifier is 0.
func BareNPC(name string) ParticipantSpec {
	return ParticipantSpec{Name: name, NPC: true}
}

// TurnState reports the encounter position after a turn advance.
type TurnState struct {
	Round       int
	TurnIndex   int
	Participant string
}

// sortByInitiativeDesc sorts participants in place, highest initiative first.
// The insertion sort is stable: ties keep their original submission order,
// which makes turn-order assignment reproducible.
func sortByInitiativeDesc(participants []*Participant) {
	n := len(participants)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && participants[j].Initiative > participants[j-1].Initiative; j-- {
			participants[j], participants[j-1] = participants[j-1], participants[j]
		}
	}
}
