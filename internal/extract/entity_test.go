package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxline/internal/domain"
)

const twoPersonText = `Form W-2 Wage and Tax Statement

Taylor Quinn
88 Oak Ave
Centerville, OH 45459
Social security number 212-33-4444


Jordan Blake
123 Main St
Springfield, IL 62704
Social security number 123-45-6789

1 Wages, tips, other comp. 50000.00
2 Federal income tax withheld 6000.00
`

func TestDetectEntitiesFindsPersonBlocks(t *testing.T) {
	entities := DetectEntities(twoPersonText)
	require.Len(t, entities, 2)

	assert.Equal(t, "Taylor Quinn", entities[0].Name)
	assert.Equal(t, "212-33-4444", entities[0].Identifier)
	assert.Equal(t, "88 Oak Ave", entities[0].Address.Street)
	assert.Equal(t, "OH", entities[0].Address.State)

	assert.Equal(t, "Jordan Blake", entities[1].Name)
	assert.Equal(t, "123-45-6789", entities[1].Identifier)
	assert.Equal(t, "Springfield", entities[1].Address.City)
	assert.Equal(t, "62704", entities[1].Address.PostalCode)
}

func TestDetectEntitiesCompletenessScoring(t *testing.T) {
	entities := DetectEntities(twoPersonText)
	require.Len(t, entities, 2)
	// Both blocks carry name, SSN, and address.
	for _, e := range entities {
		assert.InDelta(t, 0.8, e.Confidence, 0.001)
	}

	partial := DetectEntities("Taylor Quinn\n88 Oak Ave\nCenterville, OH 45459\n")
	require.Len(t, partial, 1)
	assert.Empty(t, partial[0].Identifier)
	assert.InDelta(t, 0.5, partial[0].Confidence, 0.001)
}

func TestSelectPrimaryTargetNameWinsOverOrder(t *testing.T) {
	entities := DetectEntities(twoPersonText)
	require.Len(t, entities, 2)

	assert.Equal(t, 1, SelectPrimary(entities, "Jordan Blake"))
	assert.Equal(t, 1, SelectPrimary(entities, "MR JORDAN BLAKE"))
	assert.Equal(t, 1, SelectPrimary(entities, "Blake Jordan"))
	assert.Equal(t, 0, SelectPrimary(entities, "Taylor Quinn"))
}

func TestSelectPrimaryFallsBackToScore(t *testing.T) {
	entities := []domain.EntityRecord{
		{Name: "Pat Doe", Confidence: 0.5},
		{Name: "Alex Roe", Confidence: 0.8},
	}
	assert.Equal(t, 1, SelectPrimary(entities, ""))
	assert.Equal(t, 1, SelectPrimary(entities, "Chris Poe"))
}

func TestSelectPrimaryEmptyArena(t *testing.T) {
	assert.Equal(t, -1, SelectPrimary(nil, "Jordan Blake"))
}

func TestSelectPrimarySimilarityBonusBreaksScoreGap(t *testing.T) {
	entities := []domain.EntityRecord{
		{Name: "Alex Roe", Confidence: 0.8},
		{Name: "Jordan B Blake", Confidence: 0.7},
	}
	// The middle initial does not block the match: the target's words are
	// a subset of the candidate's, which satisfies the name-match path
	// despite the lower confidence.
	assert.Equal(t, 1, SelectPrimary(entities, "Jordan Blake"))
}

func TestReadTextPatternsUsesSelectedEntityForIdentity(t *testing.T) {
	fields, entities, primary := ReadTextPatterns(twoPersonText, domain.CategoryW2, "Jordan Blake")
	require.Len(t, entities, 2)
	assert.Equal(t, 1, primary)

	require.Contains(t, fields, FieldEmployeeName)
	assert.Equal(t, "Jordan Blake", fields[FieldEmployeeName].Text)
	require.Contains(t, fields, FieldEmployeeSSN)
	assert.Equal(t, "123-45-6789", fields[FieldEmployeeSSN].Text)
	require.Contains(t, fields, FieldEmployeeAddress)
	assert.Contains(t, fields[FieldEmployeeAddress].Text, "123 Main St")

	require.Contains(t, fields, FieldWages)
	assert.True(t, fields[FieldWages].Amount.Equal(decimalFromString(t, "50000.00")))
}
