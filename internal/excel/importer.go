package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/internal/lessoncontext"
	"github.com/example/linguamem/internal/logger"
	"github.com/example/linguamem/pkg/models"
)

// ConceptImporter creates concepts that do not exist yet
type ConceptImporter interface {
	ImportConcept(ctx context.Context, key models.ConceptKey, kind models.ConceptKind, displayName string) (bool, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	LearnerID     string
	LanguageCode  string
	ConceptColumn string // Column with the concept id
	KindColumn    string // Column with vocabulary or grammar
	NameColumn    string // Column with the display name
	SheetName     string // Sheet to import; the first sheet when empty
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		ConceptColumn: "A",
		KindColumn:    "B",
		NameColumn:    "C",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportConcepts imports a learner's concept catalog from an Excel or CSV file.
// The first row is treated as a header when its kind cell is not a known kind.
func ImportConcepts(ctx context.Context, store ConceptImporter, config ImportConfig) (*ImportResult, error) {
	learnerID := strings.TrimSpace(config.LearnerID)
	if learnerID == "" {
		return nil, apperrors.Invalid("learner_id", config.LearnerID, "must not be empty")
	}
	code, err := lessoncontext.NormalizeLanguageCode(config.LanguageCode)
	if err != nil {
		return nil, err
	}
	config.LearnerID, config.LanguageCode = learnerID, code
	defaults := DefaultImportConfig()
	if config.ConceptColumn == "" {
		config.ConceptColumn = defaults.ConceptColumn
	}
	if config.KindColumn == "" {
		config.KindColumn = defaults.KindColumn
	}
	if config.NameColumn == "" {
		config.NameColumn = defaults.NameColumn
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i == 0 && isHeader(row, config) {
			continue
		}
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++
		if err := processRow(ctx, store, row, config, result); err != nil {
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				return result, fmt.Errorf("row %d: %w", i+1, err)
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, verr.Reason))
		}
	}

	logger.Infof(ctx, "Imported %s: %d processed, %d created, %d skipped, %d errors",
		config.FilePath, result.TotalProcessed, result.Created, result.Skipped, len(result.Errors))
	return result, nil
}

// readExcel reads all rows of a sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV reads all records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processRow creates one concept. Bad rows come back as validation errors.
func processRow(ctx context.Context, store ConceptImporter, row []string, config ImportConfig, result *ImportResult) error {
	raw := cell(row, config.ConceptColumn)
	conceptID := conceptIDFrom(raw)
	if conceptID == "" {
		return apperrors.Invalid("concept_id", raw, "concept cannot be empty")
	}

	kind, err := parseKind(cell(row, config.KindColumn))
	if err != nil {
		return err
	}

	name := strings.TrimSpace(cell(row, config.NameColumn))
	if name == "" {
		name = strings.TrimSpace(raw)
	}

	key := models.ConceptKey{LearnerID: config.LearnerID, LanguageCode: config.LanguageCode, ConceptID: conceptID}
	created, err := store.ImportConcept(ctx, key, kind, name)
	if err != nil {
		return err
	}
	if created {
		result.Created++
	} else {
		result.Skipped++
	}
	return nil
}

func isHeader(row []string, config ImportConfig) bool {
	kind := strings.TrimSpace(cell(row, config.KindColumn))
	if kind == "" {
		return strings.EqualFold(strings.TrimSpace(cell(row, config.ConceptColumn)), "concept")
	}
	_, err := parseKind(kind)
	return err != nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseKind accepts vocabulary or grammar; an empty cell means vocabulary
func parseKind(s string) (models.ConceptKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vocabulary", "vocab", "word":
		return models.ConceptVocabulary, nil
	case "grammar":
		return models.ConceptGrammar, nil
	}
	return "", apperrors.Invalid("kind", s, fmt.Sprintf("unknown kind %q", s))
}

// conceptIDFrom turns "Ser vs Estar (to be)" into "ser_vs_estar"
func conceptIDFrom(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(cleanWord(raw)), "_"))
}

// cleanWord removes the parenthesized note after a word
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func cell(row []string, column string) string {
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
