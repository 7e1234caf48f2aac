package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationSession_Outcome(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		succeeded int
		expected  GenerationStatus
	}{
		{"all sheets succeeded", 3, 3, GenerationStatusSuccess},
		{"some sheets succeeded", 3, 1, GenerationStatusPartialSuccess},
		{"no sheets succeeded", 3, 0, GenerationStatusError},
		{"no sheets at all", 0, 0, GenerationStatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewGenerationSession(uuid.New(), "JF25058", "Acme", nil)
			for i := 0; i < tt.total; i++ {
				s.RecordSheet(i < tt.succeeded)
			}
			assert.Equal(t, tt.expected, s.Outcome())
		})
	}
}

func TestGenerationSession_Finish(t *testing.T) {
	s := NewGenerationSession(uuid.New(), "JF25058", "Acme", map[string]interface{}{"k": "v"})
	require.Equal(t, GenerationStatusPending, s.Status)
	require.Nil(t, s.CompletedAt)

	s.Finish(GenerationStatusFatal, errors.New("footer boundary not found"))

	assert.Equal(t, GenerationStatusFatal, s.Status)
	assert.True(t, s.Error.Valid)
	assert.Contains(t, s.Error.String, "footer boundary")
	require.NotNil(t, s.CompletedAt)
	assert.False(t, s.CompletedAt.Before(s.StartedAt))
}

func TestBundleMeta_IsBundled(t *testing.T) {
	assert.True(t, BundleMeta{ConfigVersion: "2.1"}.IsBundled())
	assert.True(t, BundleMeta{ConfigVersion: "2.1.3"}.IsBundled())
	assert.False(t, BundleMeta{ConfigVersion: "1.0"}.IsBundled())
	assert.False(t, BundleMeta{}.IsBundled())
}

func TestProcessingConfig_LegacyAliases(t *testing.T) {
	legacy := ProcessingConfig{
		ProcessingOrder:      []string{"Invoice", "Packing list"},
		SheetProcessingTypes: map[string]string{"Invoice": "aggregation"},
	}
	assert.Equal(t, []string{"Invoice", "Packing list"}, legacy.SheetOrder())
	assert.Equal(t, "aggregation", legacy.DataSource("Invoice"))

	modern := ProcessingConfig{
		Sheets:          []string{"Packing list"},
		ProcessingOrder: []string{"ignored"},
		DataSources:     map[string]string{"Packing list": "processed_tables_multi"},
	}
	assert.Equal(t, []string{"Packing list"}, modern.SheetOrder())
	assert.Equal(t, "processed_tables_multi", modern.DataSource("Packing list"))
}

func TestJSONBMap_Scan(t *testing.T) {
	var m JSONBMap
	require.NoError(t, m.Scan([]byte(`{"rows": 12}`)))
	assert.Equal(t, float64(12), m["rows"])

	var empty JSONBMap
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
