package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraft(t *testing.T) {
	draft, err := ParseDraft(`{
		"time_type_code": "montage",
		"project_number": "PRJ-2026-00001",
		"date": "2026-03-07",
		"duration_minutes": 240,
		"work_location": "baustelle",
		"surcharges": ["samstag"],
		"description": "Geländer montiert",
		"confidence": 0.92,
		"reasoning": "Saturday site work",
		"clarification": ""
	}`)
	require.NoError(t, err)
	assert.Equal(t, "MONTAGE", draft.TimeTypeCode)
	assert.Equal(t, "BAUSTELLE", draft.WorkLocation)
	assert.Equal(t, []string{"SAMSTAG"}, draft.Surcharges)
	assert.False(t, draft.NeedsClarification())
	assert.Equal(t, 2026, draft.ParsedDate().Year())
}

func TestParseDraft_Clarification(t *testing.T) {
	draft, err := ParseDraft(`{"time_type_code":"","project_number":"","date":"","duration_minutes":0,
		"work_location":"","surcharges":[],"description":"","confidence":0.2,"reasoning":"",
		"clarification":"Which project did you work on?"}`)
	require.NoError(t, err)
	assert.True(t, draft.NeedsClarification())
}

func TestParseDraft_Invalid(t *testing.T) {
	_, err := ParseDraft(`{"time_type_code":"PROJEKT","duration_minutes":-5,"work_location":"WERKSTATT"}`)
	assert.Error(t, err)

	_, err = ParseDraft(`not json`)
	assert.Error(t, err)
}

func TestDraftSchema_IsStrictObject(t *testing.T) {
	schema, err := draftSchema()
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "duration_minutes")
	assert.Contains(t, props, "clarification")
}
