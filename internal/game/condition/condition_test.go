package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorland/gametable/internal/game/condition"
)

// TestParseType verifies normalisation of case and whitespace.
func TestParseType(t *testing.T) {
	got, err := condition.ParseType("  Poisoned ")
	require.NoError(t, err)
	assert.Equal(t, "poisoned", got)
}

// TestParseType_Unknown verifies unknown types are rejected with the
// sentinel.
func TestParseType_Unknown(t *testing.T) {
	_, err := condition.ParseType("sleepy")
	assert.ErrorIs(t, err, condition.ErrUnknownType)
}

// TestParseType_AllKnownTypes verifies every listed type round-trips.
func TestParseType_AllKnownTypes(t *testing.T) {
	for _, typ := range condition.Types {
		got, err := condition.ParseType(typ)
		require.NoError(t, err, "type %q", typ)
		assert.Equal(t, typ, got)
	}
}
