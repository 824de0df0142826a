// Package event defines the structured game-log entries appended by the
// combat coordinator and DM control surface.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Recognised entry types for the append-only game log.
const (
	TypeDiceRoll         = "dice_roll"
	TypeCombatStart      = "combat_start"
	TypeCombatEnd        = "combat_end"
	TypeInitiativeRoll   = "initiative_roll"
	TypeSavingThrow      = "saving_throw"
	TypeAbilityCheck     = "ability_check"
	TypeTurnStart        = "turn_start"
	TypeConditionApplied = "condition_applied"
	TypeConditionRemoved = "condition_removed"
	TypeCharacterUpdate  = "character_update"
)

// Entry is one append-only game-log record.
type Entry struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	// UserID is the acting user; nil for system-generated entries.
	UserID    *uuid.UUID
	Type      string
	Data      map[string]any
	CreatedAt time.Time
}
