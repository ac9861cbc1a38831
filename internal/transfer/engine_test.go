package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/linguamem/pkg/models"
)

type fakeFetcher struct {
	profs      []models.LanguageProficiency
	concepts   []models.ConceptSummary
	profErr    error
	askedFor   []string
	conceptFor []string
}

func (f *fakeFetcher) GetSiblingProficiency(_ context.Context, _ string, codes []string, _ float64) ([]models.LanguageProficiency, error) {
	f.askedFor = codes
	return f.profs, f.profErr
}

func (f *fakeFetcher) GetMasteredConceptsAcrossLanguages(_ context.Context, _ string, codes []string, _ []string, _ float64) ([]models.ConceptSummary, error) {
	f.conceptFor = codes
	return f.concepts, nil
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultFamilies())
	require.NoError(t, err)
	return e
}

func grammar(code, id string, mastery float64) models.ConceptSummary {
	return models.ConceptSummary{
		ConceptID:    id,
		LanguageCode: code,
		Kind:         models.ConceptGrammar,
		MasteryLevel: mastery,
	}
}

func TestRelated(t *testing.T) {
	e := newTestEngine(t)

	rel := e.Related("spa", "fra")
	assert.True(t, rel.Related)
	assert.Equal(t, "Romance", rel.Family)
	assert.Equal(t, rel, e.Related("fra", "spa"))

	assert.Equal(t, rel, e.Related("es", "fr"), "ISO 639-1 aliases")
	assert.Equal(t, rel, e.Related("pt-BR", "ita"), "regional tags")

	assert.False(t, e.Related("spa", "deu").Related)
	assert.False(t, e.Related("spa", "xyz").Related)
	assert.Equal(t, e.Related("deu", "spa"), e.Related("spa", "deu"))
}

func TestFamilyOf(t *testing.T) {
	e := newTestEngine(t)

	f, ok := e.FamilyOf("jpn")
	require.True(t, ok)
	assert.Equal(t, "East Asian", f.Name)

	_, ok = e.FamilyOf("eus")
	assert.False(t, ok)
}

func TestSharedConcepts(t *testing.T) {
	e := newTestEngine(t)

	shared := e.SharedConcepts("rus", "pol")
	assert.Contains(t, shared, "grammatical_cases")
	assert.Contains(t, shared, "verbal_aspect")

	assert.Empty(t, e.SharedConcepts("rus", "spa"))
	assert.NotNil(t, e.SharedConcepts("rus", "spa"))
}

func TestTransferableKnowledge(t *testing.T) {
	e := newTestEngine(t)
	fetcher := &fakeFetcher{
		profs: []models.LanguageProficiency{
			{LanguageCode: "es", ProficiencyScore: 65, ProficiencyLevel: "intermediate"},
			{LanguageCode: "ita", ProficiencyScore: 30, ProficiencyLevel: "beginner"},
		},
		concepts: []models.ConceptSummary{
			grammar("es", "subjunctive_mood", 0.9),
			grammar("es", "gendered_nouns", 0.85),
			grammar("es", "reflexive_verbs", 0.7),
			grammar("es", "passive_voice", 0.95),
			{ConceptID: "definite_articles", LanguageCode: "es", Kind: models.ConceptVocabulary, MasteryLevel: 0.9},
		},
	}

	k, err := e.TransferableKnowledge(context.Background(), fetcher, "learner-1", "fr")
	require.NoError(t, err)
	require.NotNil(t, k)

	assert.Equal(t, "fra", k.TargetLanguage)
	assert.Equal(t, "Romance", k.Family)
	require.Len(t, k.RelatedLanguages, 1, "score of exactly 30 does not qualify")
	assert.Equal(t, "spa", k.RelatedLanguages[0].Code)
	assert.Equal(t, "Spanish", k.RelatedLanguages[0].Name)

	// ordered by the family's shared-concept list; 0.7 and non-shared ids excluded
	assert.Equal(t, []string{"gendered_nouns", "subjunctive_mood"}, k.AccelerationOpportunities)
	require.Len(t, k.Evidence, 2)
	assert.Equal(t, "spa", k.Evidence[0].LanguageCode)

	assert.NotContains(t, fetcher.askedFor, "fra")
	assert.NotContains(t, fetcher.askedFor, "fr")
	assert.Contains(t, fetcher.askedFor, "spa")
	assert.Contains(t, fetcher.askedFor, "es")
	assert.Equal(t, []string{"es"}, fetcher.conceptFor)
}

func TestTransferableKnowledge_NoQualifyingSibling(t *testing.T) {
	e := newTestEngine(t)
	fetcher := &fakeFetcher{
		profs: []models.LanguageProficiency{{LanguageCode: "spa", ProficiencyScore: 12}},
	}

	k, err := e.TransferableKnowledge(context.Background(), fetcher, "learner-1", "fra")
	require.NoError(t, err)
	assert.Nil(t, k)
}

func TestTransferableKnowledge_UnknownFamily(t *testing.T) {
	e := newTestEngine(t)

	k, err := e.TransferableKnowledge(context.Background(), &fakeFetcher{}, "learner-1", "eus")
	require.NoError(t, err)
	assert.Nil(t, k)
}

func TestTransferableKnowledge_NoMasteredConcepts(t *testing.T) {
	e := newTestEngine(t)
	fetcher := &fakeFetcher{
		profs: []models.LanguageProficiency{{LanguageCode: "deu", ProficiencyScore: 80}},
	}

	k, err := e.TransferableKnowledge(context.Background(), fetcher, "learner-1", "nld")
	require.NoError(t, err)
	require.NotNil(t, k)
	assert.Empty(t, k.AccelerationOpportunities)
	assert.Equal(t, "", RenderTransferPrompt(k))
}

func TestTransferableKnowledge_FetchError(t *testing.T) {
	e := newTestEngine(t)
	boom := errors.New("connection refused")

	_, err := e.TransferableKnowledge(context.Background(), &fakeFetcher{profErr: boom}, "learner-1", "spa")
	assert.ErrorIs(t, err, boom)
}

func TestNewEngine_RejectsDuplicateCodes(t *testing.T) {
	families := []models.LanguageFamily{
		{Name: "A", Languages: []models.Language{{Code: "spa", Name: "Spanish"}}},
		{Name: "B", Languages: []models.Language{{Code: "xxx", Name: "Other", Aliases: []string{"SPA"}}}},
	}

	_, err := NewEngine(families)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"spa"`)
}
