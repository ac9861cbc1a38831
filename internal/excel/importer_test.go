package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/pkg/models"
)

type importedConcept struct {
	kind models.ConceptKind
	name string
}

type fakeImporter struct {
	concepts map[models.ConceptKey]importedConcept
	err      error
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{concepts: map[models.ConceptKey]importedConcept{}}
}

func (f *fakeImporter) ImportConcept(_ context.Context, key models.ConceptKey, kind models.ConceptKind, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.concepts[key]; ok {
		return false, nil
	}
	f.concepts[key] = importedConcept{kind: kind, name: name}
	return true, nil
}

func spa(id string) models.ConceptKey {
	return models.ConceptKey{LearnerID: "u1", LanguageCode: "spa", ConceptID: id}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "concepts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportConcepts_CSV(t *testing.T) {
	path := writeCSV(t, "concept,kind,name\n"+
		"gustar,vocabulary,gustar (to like)\n"+
		"Ser vs Estar (to be),grammar,\n"+
		"\n"+
		",grammar,missing id\n"+
		"comer,idiom,comer\n"+
		"gustar,vocabulary,duplicate\n")
	store := newFakeImporter()

	res, err := ImportConcepts(context.Background(), store, ImportConfig{
		FilePath:     path,
		LearnerID:    "u1",
		LanguageCode: "SPA",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalProcessed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, res.Errors, 2)

	assert.Equal(t, importedConcept{kind: models.ConceptVocabulary, name: "gustar (to like)"}, store.concepts[spa("gustar")])
	assert.Equal(t, importedConcept{kind: models.ConceptGrammar, name: "Ser vs Estar (to be)"}, store.concepts[spa("ser_vs_estar")])
}

func TestImportConcepts_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]string{
		{"hablar", "vocabulary", "hablar"},
		{"preterite", "grammar", "Preterite tense"},
	}
	for i, row := range rows {
		for j, v := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, axis, v))
		}
	}
	path := filepath.Join(t.TempDir(), "concepts.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	store := newFakeImporter()
	res, err := ImportConcepts(context.Background(), store, ImportConfig{
		FilePath:     path,
		LearnerID:    "u1",
		LanguageCode: "spa",
	})
	require.NoError(t, err)

	// no header row here, the first row is data
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Errors)
	assert.Equal(t, models.ConceptGrammar, store.concepts[spa("preterite")].kind)
}

func TestImportConcepts_Validation(t *testing.T) {
	_, err := ImportConcepts(context.Background(), newFakeImporter(), ImportConfig{LanguageCode: "spa"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ImportConcepts(context.Background(), newFakeImporter(), ImportConfig{LearnerID: "u1", LanguageCode: "??"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestImportConcepts_StoreFailureAborts(t *testing.T) {
	path := writeCSV(t, "gustar,vocabulary,gustar\n")
	store := newFakeImporter()
	store.err = errors.New("locked")

	_, err := ImportConcepts(context.Background(), store, ImportConfig{FilePath: path, LearnerID: "u1", LanguageCode: "spa"})
	assert.ErrorIs(t, err, store.err)
}

func TestImportConcepts_MissingFile(t *testing.T) {
	_, err := ImportConcepts(context.Background(), newFakeImporter(), ImportConfig{
		FilePath:     filepath.Join(t.TempDir(), "missing.xlsx"),
		LearnerID:    "u1",
		LanguageCode: "spa",
	})
	assert.Error(t, err)
}

func TestConceptIDFrom(t *testing.T) {
	assert.Equal(t, "ser_vs_estar", conceptIDFrom("  Ser  vs Estar (to be)"))
	assert.Equal(t, "gustar", conceptIDFrom("gustar"))
	assert.Equal(t, "", conceptIDFrom("   "))
	assert.Equal(t, 27, columnToIndex("AB"))
}
