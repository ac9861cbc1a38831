package lessoncontext

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/internal/config"
	"github.com/example/linguamem/internal/logger"
	"github.com/example/linguamem/internal/spaced_repetition"
	"github.com/example/linguamem/internal/transfer"
	"github.com/example/linguamem/pkg/models"
)

// Branch names reported in LessonContext.DegradedSources
const (
	BranchProfile              = "profile"
	BranchProgress             = "progress"
	BranchMasteredVocabulary   = "mastered_vocabulary"
	BranchMasteredGrammar      = "mastered_grammar"
	BranchDueVocabulary        = "due_vocabulary"
	BranchDueGrammar           = "due_grammar"
	BranchStrugglingVocabulary = "struggling_vocabulary"
	BranchStrugglingGrammar    = "struggling_grammar"
	BranchRecentSessions       = "recent_sessions"
	BranchTransfer             = "transfer"
)

var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})*$`)

const tracerName = "github.com/example/linguamem/internal/lessoncontext"

// BuildOptions are the optional caller inputs of BuildContext
type BuildOptions struct {
	CustomTopic string
}

// Builder assembles lesson contexts from the read ports
type Builder struct {
	ports  Ports
	engine *transfer.Engine
	clock  clock.Clock
	limits config.ContextLimits
	tracer trace.Tracer
}

// NewBuilder creates a new Builder. Every port except Proficiency is required.
// Zero limits fall back to the defaults.
func NewBuilder(ports Ports, engine *transfer.Engine, clk clock.Clock, limits config.ContextLimits) (*Builder, error) {
	required := []struct {
		name    string
		missing bool
	}{
		{"profiles_port", ports.Profiles == nil},
		{"progress_port", ports.Progress == nil},
		{"concepts_port", ports.Concepts == nil},
		{"sessions_port", ports.Sessions == nil},
	}
	for _, r := range required {
		if r.missing {
			return nil, apperrors.Invalid(r.name, nil, "must not be nil")
		}
	}

	defaults := config.DefaultContextLimits()
	fields := []struct {
		name string
		val  *int
		def  int
	}{
		{"mastered_limit", &limits.Mastered, defaults.Mastered},
		{"due_limit", &limits.Due, defaults.Due},
		{"struggling_limit", &limits.Struggling, defaults.Struggling},
		{"recent_sessions_limit", &limits.RecentSessions, defaults.RecentSessions},
		{"highlights_limit", &limits.Highlights, defaults.Highlights},
	}
	for _, f := range fields {
		if *f.val < 0 {
			return nil, apperrors.Invalid(f.name, *f.val, "must not be negative")
		}
		if *f.val == 0 {
			*f.val = f.def
		}
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}

	return &Builder{
		ports:  ports,
		engine: engine,
		clock:  clk,
		limits: limits,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// NormalizeLanguageCode lower-cases and validates a BCP-47 style language code
func NormalizeLanguageCode(code string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if !languageCodePattern.MatchString(normalized) {
		return "", apperrors.Invalid("language_code", code, "expected a code like \"spa\" or \"pt-br\"")
	}
	return normalized, nil
}

// degradedSet records branches that fell back to their default
type degradedSet struct {
	mu       sync.Mutex
	branches []string
}

func (d *degradedSet) add(branch string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.branches = append(d.branches, branch)
}

func (d *degradedSet) sorted() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.branches) == 0 {
		return nil
	}
	out := append([]string(nil), d.branches...)
	sort.Strings(out)
	return out
}

// BuildContext assembles the lesson context for a learner in one language.
// Store failures never fail the build: the affected branch falls back to its
// empty default and is listed in DegradedSources.
func (b *Builder) BuildContext(ctx context.Context, learnerID, languageCode string, opts BuildOptions) (*models.LessonContext, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return nil, apperrors.Invalid("learner_id", learnerID, "must not be empty")
	}
	code, err := NormalizeLanguageCode(languageCode)
	if err != nil {
		return nil, err
	}

	ctx, span := b.tracer.Start(ctx, "lessoncontext.BuildContext", trace.WithAttributes(
		attribute.String("learner.id", learnerID),
		attribute.String("language.code", code),
	))
	defer span.End()
	ctx = logger.WithFields(ctx, logrus.Fields{"learner_id": learnerID, "language": code})

	now := b.clock.Now()

	var (
		profile   *models.LearnerProfile
		progress  *models.LanguageProgress
		sessions  []models.SessionSummary
		crossLang *models.TransferableKnowledge
		g         errgroup.Group
	)
	mastered := models.NewConceptLists()
	due := models.NewConceptLists()
	struggling := models.NewConceptLists()
	degraded := &degradedSet{}

	b.spawn(ctx, &g, degraded, BranchProfile, func(ctx context.Context) error {
		p, err := b.ports.Profiles.GetLearnerProfile(ctx, learnerID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})

	b.spawn(ctx, &g, degraded, BranchProgress, func(ctx context.Context) error {
		p, err := b.ports.Progress.GetLanguageProgress(ctx, learnerID, code)
		if err != nil {
			return err
		}
		progress = p
		return nil
	})

	b.spawnConcepts(ctx, &g, degraded, BranchMasteredVocabulary, &mastered.Vocabulary, func(ctx context.Context) ([]models.ConceptSummary, error) {
		return b.mastered(ctx, learnerID, code, models.ConceptVocabulary)
	})
	b.spawnConcepts(ctx, &g, degraded, BranchMasteredGrammar, &mastered.Grammar, func(ctx context.Context) ([]models.ConceptSummary, error) {
		return b.mastered(ctx, learnerID, code, models.ConceptGrammar)
	})
	b.spawnConcepts(ctx, &g, degraded, BranchDueVocabulary, &due.Vocabulary, func(ctx context.Context) ([]models.ConceptSummary, error) {
		return b.due(ctx, learnerID, code, models.ConceptVocabulary, now)
	})
	b.spawnConcepts(ctx, &g, degraded, BranchDueGrammar, &due.Grammar, func(ctx context.Context) ([]models.ConceptSummary, error) {
		return b.due(ctx, learnerID, code, models.ConceptGrammar, now)
	})
	b.spawnConcepts(ctx, &g, degraded, BranchStrugglingVocabulary, &struggling.Vocabulary, func(ctx context.Context) ([]models.ConceptSummary, error) {
		return b.struggling(ctx, learnerID, code, models.ConceptVocabulary)
	})
	b.spawnConcepts(ctx, &g, degraded, BranchStrugglingGrammar, &struggling.Grammar, func(ctx context.Context) ([]models.ConceptSummary, error) {
		return b.struggling(ctx, learnerID, code, models.ConceptGrammar)
	})

	b.spawn(ctx, &g, degraded, BranchRecentSessions, func(ctx context.Context) error {
		s, err := b.ports.Sessions.GetRecentSessions(ctx, learnerID, code, b.limits.RecentSessions)
		if err != nil {
			return err
		}
		sessions = s
		return nil
	})

	if b.engine != nil && b.ports.Proficiency != nil {
		b.spawn(ctx, &g, degraded, BranchTransfer, func(ctx context.Context) error {
			k, err := b.engine.TransferableKnowledge(ctx, b.ports.Proficiency, learnerID, code)
			if err != nil {
				return err
			}
			crossLang = k
			return nil
		})
	}

	// branches never return errors; Wait is only the join point
	_ = g.Wait()

	lc := &models.LessonContext{
		LearnerID:        learnerID,
		LanguageCode:     code,
		GeneratedAt:      now,
		Profile:          profile,
		LanguageProgress: progressOrDefault(progress, code),
		MasteredContent:  mastered,
		DueForReview:     due,
		StrugglingAreas:  struggling,
		RecentContext:    summarizeSessions(sessions, b.limits.Highlights),
		RecommendedFocus: recommendFocus(struggling, due, opts.CustomTopic),
		DegradedSources:  degraded.sorted(),
	}
	if crossLang != nil && len(crossLang.AccelerationOpportunities) > 0 {
		lc.CrossLanguage = crossLang
	}

	span.SetAttributes(
		attribute.Int("focus.items", len(lc.RecommendedFocus.ReviewPriority)),
		attribute.StringSlice("degraded.sources", lc.DegradedSources),
	)
	logger.GetLogger(ctx).WithFields(logrus.Fields{
		"focus_items": len(lc.RecommendedFocus.ReviewPriority),
		"degraded":    lc.DegradedSources,
	}).Debug("lesson context built")

	return lc, nil
}

// spawn runs one branch in the group. A failing branch is logged, traced and
// marked degraded; its result slot keeps the default.
func (b *Builder) spawn(ctx context.Context, g *errgroup.Group, degraded *degradedSet, branch string, fn func(ctx context.Context) error) {
	g.Go(func() error {
		ctx, span := b.tracer.Start(ctx, "lessoncontext."+branch)
		defer span.End()

		if err := fn(ctx); err != nil {
			cerr := &apperrors.CollaboratorError{Branch: branch, Err: err}
			span.RecordError(cerr)
			span.SetStatus(codes.Error, cerr.Error())
			logger.GetLogger(ctx).WithField("branch", branch).WithError(err).Warn("lesson context branch degraded to default")
			degraded.add(branch)
		}
		return nil
	})
}

func (b *Builder) spawnConcepts(ctx context.Context, g *errgroup.Group, degraded *degradedSet, branch string, slot *[]models.ConceptSummary, fetch func(ctx context.Context) ([]models.ConceptSummary, error)) {
	b.spawn(ctx, g, degraded, branch, func(ctx context.Context) error {
		items, err := fetch(ctx)
		if err != nil {
			return err
		}
		if items != nil {
			*slot = items
		}
		return nil
	})
}

func (b *Builder) mastered(ctx context.Context, learnerID, code string, kind models.ConceptKind) ([]models.ConceptSummary, error) {
	items, err := b.ports.Concepts.GetMasteredConcepts(ctx, learnerID, code, kind, b.limits.Mastered)
	if err != nil {
		return nil, err
	}
	return filterConcepts(items, func(c models.ConceptSummary) bool {
		return spaced_repetition.IsMastered(c.MasteryLevel)
	}), nil
}

func (b *Builder) due(ctx context.Context, learnerID, code string, kind models.ConceptKind, now time.Time) ([]models.ConceptSummary, error) {
	items, err := b.ports.Concepts.GetDueConcepts(ctx, learnerID, code, kind, now, b.limits.Due)
	if err != nil {
		return nil, err
	}
	return spaced_repetition.Prioritize(items, now, spaced_repetition.DefaultMaxReviewItems)
}

func (b *Builder) struggling(ctx context.Context, learnerID, code string, kind models.ConceptKind) ([]models.ConceptSummary, error) {
	items, err := b.ports.Concepts.GetStrugglingConcepts(ctx, learnerID, code, kind, b.limits.Struggling)
	if err != nil {
		return nil, err
	}
	return filterConcepts(items, func(c models.ConceptSummary) bool {
		return spaced_repetition.IsStruggling(c.MasteryLevel, c.TimesSeen)
	}), nil
}

func filterConcepts(items []models.ConceptSummary, keep func(models.ConceptSummary) bool) []models.ConceptSummary {
	out := make([]models.ConceptSummary, 0, len(items))
	for _, c := range items {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func progressOrDefault(p *models.LanguageProgress, code string) models.LanguageProgress {
	if p == nil {
		return models.DefaultLanguageProgress(code)
	}
	out := *p
	if out.LanguageCode == "" {
		out.LanguageCode = code
	}
	if out.ProficiencyLevel == "" {
		out.ProficiencyLevel = models.ProficiencyBeginner
	}
	return out
}
