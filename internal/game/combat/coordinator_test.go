package combat_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/game/character"
	"github.com/jmorland/gametable/internal/game/combat"
	"github.com/jmorland/gametable/internal/game/event"
)

// fakeSource returns a scripted sequence of Intn results, then falls back to
// zero. The values are the raw Intn returns, so a d20 roll of R is scripted
// as R-1.
type fakeSource struct {
	mu     sync.Mutex
	values []int
	next   int
}

func (f *fakeSource) Intn(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.values) {
		return 0
	}
	v := f.values[f.next]
	f.next++
	return v % n
}

// fakeStore is an in-memory EncounterStore enforcing the one-encounter-per-
// campaign invariant the way the database unique constraint does.
type fakeStore struct {
	mu         sync.Mutex
	byCampaign map[uuid.UUID]*combat.Encounter
}

func newFakeStore() *fakeStore {
	return &fakeStore{byCampaign: make(map[uuid.UUID]*combat.Encounter)}
}

func (s *fakeStore) Create(_ context.Context, enc *combat.Encounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byCampaign[enc.CampaignID]; exists {
		return combat.ErrCombatAlreadyActive
	}
	clone := *enc
	clone.Participants = append([]combat.Participant(nil), enc.Participants...)
	s.byCampaign[enc.CampaignID] = &clone
	return nil
}

func (s *fakeStore) GetByCampaign(_ context.Context, campaignID uuid.UUID) (*combat.Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc, ok := s.byCampaign[campaignID]
	if !ok {
		return nil, combat.ErrNoActiveCombat
	}
	clone := *enc
	clone.Participants = append([]combat.Participant(nil), enc.Participants...)
	return &clone, nil
}

func (s *fakeStore) UpdateTurn(_ context.Context, encounterID uuid.UUID, round, turnIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, enc := range s.byCampaign {
		if enc.ID == encounterID {
			enc.CurrentRound = round
			enc.CurrentTurnIndex = turnIndex
			return nil
		}
	}
	return combat.ErrNoActiveCombat
}

func (s *fakeStore) Delete(_ context.Context, encounterID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for campaignID, enc := range s.byCampaign {
		if enc.ID == encounterID {
			delete(s.byCampaign, campaignID)
			return nil
		}
	}
	return combat.ErrNoActiveCombat
}

// fakeLookup serves characters from a map.
type fakeLookup struct {
	chars map[uuid.UUID]*character.Character
}

func (l *fakeLookup) GetByID(_ context.Context, id uuid.UUID) (*character.Character, error) {
	if c, ok := l.chars[id]; ok {
		return c, nil
	}
	return nil, character.ErrNotFound
}

// failingLookup simulates an unreachable character store.
type failingLookup struct{}

var errLookupDown = errors.New("connection refused")

func (failingLookup) GetByID(context.Context, uuid.UUID) (*character.Character, error) {
	return nil, errLookupDown
}

// fakeSink records appended entries; failing toggles append errors.
type fakeSink struct {
	mu      sync.Mutex
	entries []event.Entry
	failing bool
}

func (s *fakeSink) Append(_ context.Context, entry event.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("sink unavailable")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeSink) ofType(t string) []event.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.Entry
	for _, e := range s.entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store *fakeStore
	chars *fakeLookup
	sink  *fakeSink
	src   *fakeSource
	coord *combat.Coordinator
}

func newFixture(rolls ...int) *fixture {
	f := &fixture{
		store: newFakeStore(),
		chars: &fakeLookup{chars: make(map[uuid.UUID]*character.Character)},
		sink:  &fakeSink{},
		src:   &fakeSource{values: rolls},
	}
	f.coord = combat.NewCoordinator(f.store, f.chars, f.sink, f.src, zap.NewNop())
	return f
}

// TestStartCombat_TurnOrderStableDescending verifies initiatives
// [12, 18, 18, 5] in submission order produce turn order idx1, idx2, idx0,
// idx3: stable descending sort, ties resolved by submission order.
func TestStartCombat_TurnOrderStableDescending(t *testing.T) {
	f := newFixture(11, 17, 17, 4) // d20 rolls 12, 18, 18, 5
	campaignID, userID := uuid.New(), uuid.New()

	enc, err := f.coord.StartCombat(context.Background(), campaignID, userID, []combat.ParticipantSpec{
		combat.BareNPC("a"), combat.BareNPC("b"), combat.BareNPC("c"), combat.BareNPC("d"),
	})
	require.NoError(t, err)

	require.Len(t, enc.Participants, 4)
	var names []string
	var initiatives []int
	for i, p := range enc.Participants {
		assert.Equal(t, i, p.TurnOrder, "TurnOrder must be the 0-based rank")
		names = append(names, p.Name)
		initiatives = append(initiatives, p.Initiative)
	}
	assert.Equal(t, []string{"b", "c", "a", "d"}, names, "ties keep submission order")
	assert.Equal(t, []int{18, 18, 12, 5}, initiatives)

	assert.Equal(t, 1, enc.CurrentRound)
	assert.Equal(t, 0, enc.CurrentTurnIndex)
	assert.True(t, enc.IsActive)
}

// TestStartCombat_AlreadyActive verifies a second StartCombat for the same
// campaign fails regardless of the participant list.
func TestStartCombat_AlreadyActive(t *testing.T) {
	f := newFixture()
	campaignID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := f.coord.StartCombat(ctx, campaignID, userID, []combat.ParticipantSpec{combat.BareNPC("goblin")})
	require.NoError(t, err)

	_, err = f.coord.StartCombat(ctx, campaignID, userID, []combat.ParticipantSpec{combat.BareNPC("ogre")})
	assert.ErrorIs(t, err, combat.ErrCombatAlreadyActive)
}

// TestStartCombat_DexModifierFloors verifies a character with dexterity 8
// contributes -1 to its rolled initiative, not 0.
func TestStartCombat_DexModifierFloors(t *testing.T) {
	f := newFixture(9) // d20 roll 10
	charID := uuid.New()
	f.chars.chars[charID] = &character.Character{
		ID:        charID,
		Name:      "Fenwick",
		Abilities: character.AbilityScores{character.Dexterity: 8},
	}

	enc, err := f.coord.StartCombat(context.Background(), uuid.New(), uuid.New(), []combat.ParticipantSpec{
		combat.CharacterRef(charID),
	})
	require.NoError(t, err)

	require.Len(t, enc.Participants, 1)
	assert.Equal(t, 9, enc.Participants[0].Initiative, "initiative must be 10 + (-1)")
	assert.Equal(t, "Fenwick", enc.Participants[0].Name, "character name wins")
	assert.False(t, enc.Participants[0].IsNPC)
}

// TestStartCombat_NameFallbacks verifies the display-name chain: character
// name, then spec name, then the synthetic 1-based placeholder.
func TestStartCombat_NameFallbacks(t *testing.T) {
	f := newFixture()
	missing := uuid.New()

	enc, err := f.coord.StartCombat(context.Background(), uuid.New(), uuid.New(), []combat.ParticipantSpec{
		{CharacterID: &missing, Name: "Mystery Knight"},
		{CharacterID: &missing},
		combat.BareNPC("Goblin"),
	})
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, p := range enc.Participants {
		names[p.Name] = true
	}
	assert.True(t, names["Mystery Knight"], "unresolvable character falls back to spec name")
	assert.True(t, names["Participant 2"], "empty name falls back to 1-based placeholder")
	assert.True(t, names["Goblin"])
}

// TestStartCombat_EmitsOrderedEvent verifies the combat_start event carries
// the ordered (name, initiative) pairs.
func TestStartCombat_EmitsOrderedEvent(t *testing.T) {
	f := newFixture(4, 14) // rolls 5, 15
	campaignID := uuid.New()

	_, err := f.coord.StartCombat(context.Background(), campaignID, uuid.New(), []combat.ParticipantSpec{
		combat.BareNPC("slow"), combat.BareNPC("fast"),
	})
	require.NoError(t, err)

	starts := f.sink.ofType(event.TypeCombatStart)
	require.Len(t, starts, 1)
	assert.Equal(t, campaignID, starts[0].CampaignID)
	pairs, ok := starts[0].Data["participants"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, pairs, 2)
	assert.Equal(t, "fast", pairs[0]["name"], "event order must match turn order")
	assert.Equal(t, 15, pairs[0]["initiative"])
}

// TestAdvanceTurn_WrapsAndIncrementsRound verifies advancing
// participantCount times returns to index 0 with the round incremented by
// exactly 1.
func TestAdvanceTurn_WrapsAndIncrementsRound(t *testing.T) {
	f := newFixture(19, 10, 5) // distinct initiatives 20, 11, 6
	campaignID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := f.coord.StartCombat(ctx, campaignID, userID, []combat.ParticipantSpec{
		combat.BareNPC("a"), combat.BareNPC("b"), combat.BareNPC("c"),
	})
	require.NoError(t, err)

	var state combat.TurnState
	for i := 0; i < 3; i++ {
		state, err = f.coord.AdvanceTurn(ctx, campaignID, userID)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, state.TurnIndex, "index must wrap to 0")
	assert.Equal(t, 2, state.Round, "round must increment by exactly 1")
	assert.Equal(t, "a", state.Participant, "index 0 is the highest initiative")

	turnEvents := f.sink.ofType(event.TypeTurnStart)
	assert.Len(t, turnEvents, 3, "one turn_start event per advance")
}

// TestAdvanceTurn_NoActiveCombat verifies the lifecycle error when no
// encounter exists.
func TestAdvanceTurn_NoActiveCombat(t *testing.T) {
	f := newFixture()
	_, err := f.coord.AdvanceTurn(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, combat.ErrNoActiveCombat)
}

// TestAdvanceTurn_Concurrent verifies exactly one advance happens per call
// under concurrent requests against the same encounter: no lost updates.
func TestAdvanceTurn_Concurrent(t *testing.T) {
	f := newFixture(19, 10) // initiatives 20, 11
	campaignID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := f.coord.StartCombat(ctx, campaignID, userID, []combat.ParticipantSpec{
		combat.BareNPC("a"), combat.BareNPC("b"),
	})
	require.NoError(t, err)

	const advances = 20
	var wg sync.WaitGroup
	for i := 0; i < advances; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.AdvanceTurn(ctx, campaignID, userID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	enc, err := f.store.GetByCampaign(ctx, campaignID)
	require.NoError(t, err)
	// 20 advances over 2 participants: 10 full cycles from round 1.
	assert.Equal(t, 11, enc.CurrentRound)
	assert.Equal(t, 0, enc.CurrentTurnIndex)
}

// TestEndCombat_ThenRestart verifies EndCombat removes the encounter so an
// immediate StartCombat succeeds with no lingering uniqueness conflict.
func TestEndCombat_ThenRestart(t *testing.T) {
	f := newFixture()
	campaignID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := f.coord.StartCombat(ctx, campaignID, userID, []combat.ParticipantSpec{combat.BareNPC("a")})
	require.NoError(t, err)

	require.NoError(t, f.coord.EndCombat(ctx, campaignID, userID))
	assert.Len(t, f.sink.ofType(event.TypeCombatEnd), 1)

	_, err = f.coord.StartCombat(ctx, campaignID, userID, []combat.ParticipantSpec{combat.BareNPC("b")})
	assert.NoError(t, err, "restart after end must succeed")
}

// TestEndCombat_NoActiveCombat verifies the lifecycle error when no
// encounter exists.
func TestEndCombat_NoActiveCombat(t *testing.T) {
	f := newFixture()
	err := f.coord.EndCombat(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, combat.ErrNoActiveCombat)
}

// TestStartCombat_EventSinkFailureDoesNotAbort verifies event logging is
// best-effort: a failing sink never rolls back the combat mutation.
func TestStartCombat_EventSinkFailureDoesNotAbort(t *testing.T) {
	f := newFixture()
	f.sink.failing = true
	campaignID := uuid.New()
	ctx := context.Background()

	_, err := f.coord.StartCombat(ctx, campaignID, uuid.New(), []combat.ParticipantSpec{combat.BareNPC("a")})
	require.NoError(t, err, "sink failure must not abort the mutation")

	_, err = f.store.GetByCampaign(ctx, campaignID)
	assert.NoError(t, err, "encounter must be persisted despite sink failure")
}

// TestForcedCheck_Breakdown verifies the full saving-throw breakdown and the
// floor-division modifier.
func TestForcedCheck_Breakdown(t *testing.T) {
	f := newFixture(14) // d20 roll 15
	charID := uuid.New()
	f.chars.chars[charID] = &character.Character{
		ID:        charID,
		Name:      "Sable",
		Abilities: character.AbilityScores{character.Wisdom: 8},
	}

	result, err := f.coord.ForcedCheck(context.Background(), uuid.New(), uuid.New(), charID,
		character.Wisdom, 15, combat.SavingThrow)
	require.NoError(t, err)

	assert.Equal(t, 15, result.Roll)
	assert.Equal(t, -1, result.Modifier, "wis 8 must contribute -1")
	assert.Equal(t, 14, result.Total)
	assert.False(t, result.Success, "14 against DC 15 fails")
	assert.Equal(t, "Sable", result.CharacterName)

	saves := f.sink.ofType(event.TypeSavingThrow)
	require.Len(t, saves, 1, "event emitted regardless of outcome")
	assert.Equal(t, false, saves[0].Data["success"])
}

// TestForcedCheck_AbilityCheckSuccess verifies total >= dc succeeds and logs
// an ability_check entry.
func TestForcedCheck_AbilityCheckSuccess(t *testing.T) {
	f := newFixture(9) // d20 roll 10
	charID := uuid.New()
	f.chars.chars[charID] = &character.Character{
		ID:        charID,
		Name:      "Brix",
		Abilities: character.AbilityScores{character.Strength: 14},
	}

	result, err := f.coord.ForcedCheck(context.Background(), uuid.New(), uuid.New(), charID,
		character.Strength, 12, combat.AbilityCheck)
	require.NoError(t, err)

	assert.Equal(t, 12, result.Total, "10 + 2")
	assert.True(t, result.Success, "total equal to DC succeeds")
	assert.Len(t, f.sink.ofType(event.TypeAbilityCheck), 1)
}

// TestForcedCheck_UnknownCharacter verifies the lookup error is propagated
// unchanged.
func TestForcedCheck_UnknownCharacter(t *testing.T) {
	f := newFixture()
	_, err := f.coord.ForcedCheck(context.Background(), uuid.New(), uuid.New(), uuid.New(),
		character.Dexterity, 10, combat.SavingThrow)
	assert.ErrorIs(t, err, character.ErrNotFound)
}

// TestStartCombat_LookupFailureAborts verifies an infrastructure failure in
// the character lookup aborts the whole operation instead of degrading the
// participant to its spec name. Only a not-found miss falls back.
func TestStartCombat_LookupFailureAborts(t *testing.T) {
	f := newFixture()
	f.coord = combat.NewCoordinator(f.store, failingLookup{}, f.sink, f.src, zap.NewNop())
	campaignID := uuid.New()
	charID := uuid.New()

	_, err := f.coord.StartCombat(context.Background(), campaignID, uuid.New(), []combat.ParticipantSpec{
		{CharacterID: &charID, Name: "Mystery Knight"},
	})
	require.ErrorIs(t, err, errLookupDown)

	_, err = f.store.GetByCampaign(context.Background(), campaignID)
	assert.ErrorIs(t, err, combat.ErrNoActiveCombat, "nothing may be persisted")
	assert.Empty(t, f.sink.ofType(event.TypeCombatStart))
}

// TestStartCombat_EmptyParticipants verifies an encounter can never be
// created without combatants.
func TestStartCombat_EmptyParticipants(t *testing.T) {
	f := newFixture()
	campaignID := uuid.New()
	ctx := context.Background()

	_, err := f.coord.StartCombat(ctx, campaignID, uuid.New(), nil)
	assert.ErrorIs(t, err, combat.ErrNoParticipants)

	_, err = f.coord.StartCombat(ctx, campaignID, uuid.New(), []combat.ParticipantSpec{})
	assert.ErrorIs(t, err, combat.ErrNoParticipants)

	_, err = f.store.GetByCampaign(ctx, campaignID)
	assert.ErrorIs(t, err, combat.ErrNoActiveCombat)
}
