package lessoncontext

import (
	"context"
	"errors"
	"time"

	"github.com/example/linguamem/pkg/models"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore serves every port from in-memory fixtures. Setting a method's
// error field makes that query fail.
type fakeStore struct {
	profile  *models.LearnerProfile
	progress *models.LanguageProgress

	mastered   map[models.ConceptKind][]models.ConceptSummary
	due        map[models.ConceptKind][]models.ConceptSummary
	struggling map[models.ConceptKind][]models.ConceptSummary
	sessions   []models.SessionSummary

	proficiency []models.LanguageProficiency
	crossLang   []models.ConceptSummary

	profileErr    error
	progressErr   error
	masteredErr   error
	dueErr        error
	strugglingErr error
	sessionsErr   error
	siblingErr    error
}

func (f *fakeStore) GetLearnerProfile(_ context.Context, _ string) (*models.LearnerProfile, error) {
	return f.profile, f.profileErr
}

func (f *fakeStore) GetLanguageProgress(_ context.Context, _, _ string) (*models.LanguageProgress, error) {
	return f.progress, f.progressErr
}

func (f *fakeStore) GetMasteredConcepts(_ context.Context, _, _ string, kind models.ConceptKind, limit int) ([]models.ConceptSummary, error) {
	if f.masteredErr != nil {
		return nil, f.masteredErr
	}
	return truncate(f.mastered[kind], limit), nil
}

func (f *fakeStore) GetDueConcepts(_ context.Context, _, _ string, kind models.ConceptKind, _ time.Time, limit int) ([]models.ConceptSummary, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	return truncate(f.due[kind], limit), nil
}

func (f *fakeStore) GetStrugglingConcepts(_ context.Context, _, _ string, kind models.ConceptKind, limit int) ([]models.ConceptSummary, error) {
	if f.strugglingErr != nil {
		return nil, f.strugglingErr
	}
	return truncate(f.struggling[kind], limit), nil
}

func (f *fakeStore) GetRecentSessions(_ context.Context, _, _ string, limit int) ([]models.SessionSummary, error) {
	if f.sessionsErr != nil {
		return nil, f.sessionsErr
	}
	if len(f.sessions) > limit {
		return f.sessions[:limit], nil
	}
	return f.sessions, nil
}

func (f *fakeStore) GetSiblingProficiency(_ context.Context, _ string, _ []string, _ float64) ([]models.LanguageProficiency, error) {
	return f.proficiency, f.siblingErr
}

func (f *fakeStore) GetMasteredConceptsAcrossLanguages(_ context.Context, _ string, _ []string, _ []string, _ float64) ([]models.ConceptSummary, error) {
	return f.crossLang, nil
}

func truncate(items []models.ConceptSummary, limit int) []models.ConceptSummary {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
