package lessoncontext

import (
	"context"
	"time"

	"github.com/example/linguamem/internal/transfer"
	"github.com/example/linguamem/pkg/models"
)

// ProfileFetcher loads learner identity and preferences. A missing learner is (nil, nil).
type ProfileFetcher interface {
	GetLearnerProfile(ctx context.Context, learnerID string) (*models.LearnerProfile, error)
}

// ProgressFetcher loads aggregate counters. A language never studied is (nil, nil).
type ProgressFetcher interface {
	GetLanguageProgress(ctx context.Context, learnerID, languageCode string) (*models.LanguageProgress, error)
}

// ConceptFetcher runs the three store-side concept filters
type ConceptFetcher interface {
	GetMasteredConcepts(ctx context.Context, learnerID, languageCode string, kind models.ConceptKind, limit int) ([]models.ConceptSummary, error)
	GetDueConcepts(ctx context.Context, learnerID, languageCode string, kind models.ConceptKind, asOf time.Time, limit int) ([]models.ConceptSummary, error)
	GetStrugglingConcepts(ctx context.Context, learnerID, languageCode string, kind models.ConceptKind, limit int) ([]models.ConceptSummary, error)
}

// SessionFetcher loads recent session summaries, newest first
type SessionFetcher interface {
	GetRecentSessions(ctx context.Context, learnerID, languageCode string, limit int) ([]models.SessionSummary, error)
}

// Ports groups every read dependency of the Builder.
// Proficiency may be nil, in which case no transfer block is produced.
type Ports struct {
	Profiles    ProfileFetcher
	Progress    ProgressFetcher
	Concepts    ConceptFetcher
	Sessions    SessionFetcher
	Proficiency transfer.ProficiencyFetcher
}

// Store is satisfied by anything that can serve every port at once
type Store interface {
	ProfileFetcher
	ProgressFetcher
	ConceptFetcher
	SessionFetcher
	transfer.ProficiencyFetcher
}

// PortsFrom wires every port to the same store
func PortsFrom(s Store) Ports {
	return Ports{
		Profiles:    s,
		Progress:    s,
		Concepts:    s,
		Sessions:    s,
		Proficiency: s,
	}
}
