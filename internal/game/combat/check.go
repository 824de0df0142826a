package combat

import (
	"context"

	"github.com/google/uuid"

	"github.com/jmorland/gametable/internal/game/character"
	"github.com/jmorland/gametable/internal/game/dice"
	"github.com/jmorland/gametable/internal/game/event"
)

// CheckKind distinguishes the two DM-forced d20 checks.
type CheckKind int

const (
	SavingThrow CheckKind = iota
	AbilityCheck
)

// eventType maps the check kind to its game-log entry type.
func (k CheckKind) eventType() string {
	if k == SavingThrow {
		return event.TypeSavingThrow
	}
	return event.TypeAbilityCheck
}

// CheckResult is the full breakdown of one forced check. A single
// authoritative roll per invocation; no retries.
type CheckResult struct {
	CharacterID   uuid.UUID
	CharacterName string
	Ability       character.Ability
	Roll          int
	Modifier      int
	Total         int
	DC            int
	Success       bool
}

// ForcedCheck rolls a DM-forced saving throw or ability check for the given
// character: 1d20 + ability modifier against dc.
//
// Precondition: the caller has already verified DM authority over campaignID.
// Postcondition: Returns the breakdown with Success == (Total >= dc), or the
// character store's not-found error. The full breakdown is logged regardless
// of outcome.
func (c *Coordinator) ForcedCheck(ctx context.Context, campaignID, actorUserID, characterID uuid.UUID, ability character.Ability, dc int, kind CheckKind) (CheckResult, error) {
	ch, err := c.chars.GetByID(ctx, characterID)
	if err != nil {
		return CheckResult{}, err
	}

	modifier := character.Modifier(ch.Abilities.Score(ability))
	roll := dice.Roll(d20, c.src)[0]
	total := roll + modifier

	result := CheckResult{
		CharacterID:   characterID,
		CharacterName: ch.Name,
		Ability:       ability,
		Roll:          roll,
		Modifier:      modifier,
		Total:         total,
		DC:            dc,
		Success:       total >= dc,
	}

	c.emit(ctx, event.Entry{
		CampaignID: campaignID,
		UserID:     &actorUserID,
		Type:       kind.eventType(),
		Data: map[string]any{
			"character": ch.Name,
			"ability":   string(ability),
			"roll":      roll,
			"modifier":  modifier,
			"total":     total,
			"dc":        dc,
			"success":   result.Success,
		},
	})

	return result, nil
}
