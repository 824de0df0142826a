package combat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/game/character"
	"github.com/jmorland/gametable/internal/game/dice"
	"github.com/jmorland/gametable/internal/game/event"
)

// d20 backs every initiative and forced-check roll.
var d20 = dice.MustParse("1d20")

// CharacterLookup resolves character sheets for initiative modifiers and
// forced checks.
type CharacterLookup interface {
	// GetByID returns the character, an error satisfying errors.Is against
	// character.ErrNotFound when no such character exists, or any other
	// error on infrastructure failure.
	GetByID(ctx context.Context, id uuid.UUID) (*character.Character, error)
}

// EncounterStore persists encounter state.
type EncounterStore interface {
	// Create persists enc and its participants atomically. Returns
	// ErrCombatAlreadyActive when the campaign already has an encounter.
	Create(ctx context.Context, enc *Encounter) error
	// GetByCampaign returns the campaign's encounter with participants
	// ordered by turn order, or ErrNoActiveCombat.
	GetByCampaign(ctx context.Context, campaignID uuid.UUID) (*Encounter, error)
	// UpdateTurn persists a new round and turn index for the encounter.
	UpdateTurn(ctx context.Context, encounterID uuid.UUID, round, turnIndex int) error
	// Delete removes the encounter and all its participants atomically.
	Delete(ctx context.Context, encounterID uuid.UUID) error
}

// EventSink accepts append-only game-log entries.
type EventSink interface {
	Append(ctx context.Context, entry event.Entry) error
}

// Coordinator owns the encounter lifecycle for all campaigns. All methods are
// safe for concurrent use; operations on the same campaign are serialised,
// operations on different campaigns never contend.
//
// Event logging is best-effort: a failed append is logged and never rolls
// back the combat mutation it describes.
type Coordinator struct {
	store  EncounterStore
	chars  CharacterLookup
	events EventSink
	src    dice.Source
	logger *zap.Logger
	locks  *campaignLocks
}

// NewCoordinator creates a Coordinator.
//
// Precondition: all arguments must be non-nil.
func NewCoordinator(store EncounterStore, chars CharacterLookup, events EventSink, src dice.Source, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		chars:  chars,
		events: events,
		src:    src,
		logger: logger,
		locks:  newCampaignLocks(),
	}
}

// StartCombat creates the campaign's encounter, rolling initiative for every
// spec and assigning turn order by descending initiative (ties keep
// submission order).
//
// Initiative = 1d20 + floor((dex-10)/2) for character-backed participants,
// 1d20 + 0 for bare NPCs. A spec whose character does not exist falls back
// to the spec name, then to "Participant {i+1}"; any other lookup failure
// aborts the whole operation.
//
// Precondition: the caller has already verified DM authority over campaignID.
// Postcondition: Returns the encounter at round 1, turn index 0, or
// ErrNoParticipants, or ErrCombatAlreadyActive; on failure no partial
// participant set is persisted.
func (c *Coordinator) StartCombat(ctx context.Context, campaignID, actorUserID uuid.UUID, specs []ParticipantSpec) (*Encounter, error) {
	if len(specs) == 0 {
		return nil, ErrNoParticipants
	}

	unlock := c.locks.lock(campaignID)
	defer unlock()

	enc := &Encounter{
		ID:               uuid.New(),
		CampaignID:       campaignID,
		CurrentRound:     1,
		CurrentTurnIndex: 0,
		IsActive:         true,
	}

	participants := make([]*Participant, 0, len(specs))
	for i, spec := range specs {
		name := spec.Name
		dexMod := 0

		if spec.CharacterID != nil {
			ch, err := c.chars.GetByID(ctx, *spec.CharacterID)
			switch {
			case err == nil:
				name = ch.Name
				dexMod = ch.InitiativeModifier()
			case errors.Is(err, character.ErrNotFound):
				// An absent character keeps the spec name and a zero
				// modifier.
			default:
				return nil, fmt.Errorf("resolving participant %d: %w", i+1, err)
			}
		}
		if name == "" {
			name = fmt.Sprintf("Participant %d", i+1)
		}

		roll := dice.Roll(d20, c.src)[0]
		participants = append(participants, &Participant{
			ID:          uuid.New(),
			EncounterID: enc.ID,
			CharacterID: spec.CharacterID,
			Name:        name,
			Initiative:  roll + dexMod,
			IsNPC:       spec.NPC,
		})
	}

	sortByInitiativeDesc(participants)
	enc.Participants = make([]Participant, len(participants))
	for i, p := range participants {
		p.TurnOrder = i
		enc.Participants[i] = *p
	}

	if err := c.store.Create(ctx, enc); err != nil {
		return nil, err
	}

	order := make([]map[string]any, len(enc.Participants))
	for i, p := range enc.Participants {
		order[i] = map[string]any{"name": p.Name, "initiative": p.Initiative}
	}
	c.emit(ctx, event.Entry{
		CampaignID: campaignID,
		UserID:     &actorUserID,
		Type:       event.TypeCombatStart,
		Data:       map[string]any{"participants": order},
	})

	return enc, nil
}

// AdvanceTurn moves the campaign's encounter to the next participant,
// wrapping to turn index 0 and incrementing the round when the order is
// exhausted. Exactly one advance happens per call.
//
// Postcondition: Returns the new turn state or ErrNoActiveCombat.
func (c *Coordinator) AdvanceTurn(ctx context.Context, campaignID, actorUserID uuid.UUID) (TurnState, error) {
	unlock := c.locks.lock(campaignID)
	defer unlock()

	enc, err := c.store.GetByCampaign(ctx, campaignID)
	if err != nil {
		return TurnState{}, err
	}

	enc.CurrentTurnIndex++
	if enc.CurrentTurnIndex >= len(enc.Participants) {
		enc.CurrentTurnIndex = 0
		enc.CurrentRound++
	}

	if err := c.store.UpdateTurn(ctx, enc.ID, enc.CurrentRound, enc.CurrentTurnIndex); err != nil {
		return TurnState{}, fmt.Errorf("advancing turn: %w", err)
	}

	current := enc.CurrentParticipant()
	c.emit(ctx, event.Entry{
		CampaignID: campaignID,
		UserID:     &actorUserID,
		Type:       event.TypeTurnStart,
		Data:       map[string]any{"round": enc.CurrentRound, "participant": current.Name},
	})

	return TurnState{
		Round:       enc.CurrentRound,
		TurnIndex:   enc.CurrentTurnIndex,
		Participant: current.Name,
	}, nil
}

// EndCombat tears down the campaign's encounter, deleting all participants
// and the encounter row in one atomic step.
//
// Postcondition: Returns nil and the campaign can start a new encounter
// immediately, or ErrNoActiveCombat.
func (c *Coordinator) EndCombat(ctx context.Context, campaignID, actorUserID uuid.UUID) error {
	unlock := c.locks.lock(campaignID)
	defer unlock()

	enc, err := c.store.GetByCampaign(ctx, campaignID)
	if err != nil {
		return err
	}

	if err := c.store.Delete(ctx, enc.ID); err != nil {
		return fmt.Errorf("ending combat: %w", err)
	}

	c.emit(ctx, event.Entry{
		CampaignID: campaignID,
		UserID:     &actorUserID,
		Type:       event.TypeCombatEnd,
		Data:       map[string]any{},
	})
	return nil
}

// emit appends entry to the event sink, logging and swallowing any failure.
func (c *Coordinator) emit(ctx context.Context, entry event.Entry) {
	if err := c.events.Append(ctx, entry); err != nil {
		c.logger.Warn("appending game log entry",
			zap.String("campaign_id", entry.CampaignID.String()),
			zap.String("type", entry.Type),
			zap.Error(err),
		)
	}
}
