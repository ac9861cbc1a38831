package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/internal/clock"
	"github.com/example/linguamem/internal/config"
	"github.com/example/linguamem/internal/logger"
	"github.com/example/linguamem/internal/spaced_repetition"
	"github.com/example/linguamem/pkg/models"
)

// dueFetchLimit bounds how many due concepts are loaded per learner and language
const dueFetchLimit = 200

// Source is the store surface the reminder job reads
type Source interface {
	ListReminderTargets(ctx context.Context, hour int) ([]models.ReminderTarget, error)
	ListDueConcepts(ctx context.Context, learnerID, languageCode string, asOf time.Time, limit int) ([]models.ConceptSummary, error)
	GetLearnerProfile(ctx context.Context, learnerID string) (*models.LearnerProfile, error)
}

// Reminder tells a learner that reviews are waiting
type Reminder struct {
	Target   models.ReminderTarget
	DueCount int
	// Concepts are the highest priority due concepts, most urgent first
	Concepts []models.ConceptSummary
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// Options control when reminders go out
type Options struct {
	StartHour int
	EndHour   int
	Interval  time.Duration
}

// OptionsFromConfig reads the reminder window and interval from the configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		StartHour: cfg.NotificationStartHour,
		EndHour:   cfg.NotificationEndHour,
		Interval:  cfg.ReminderInterval,
	}
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    Source
	notifier  Notifier
	clock     clock.Clock
	opts      Options
}

// New creates a new scheduler instance
func New(source Source, notifier Notifier, clk clock.Clock, opts Options) *Scheduler {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if opts.Interval <= 0 {
		opts.Interval = config.DefaultReminderInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		notifier:  notifier,
		clock:     clk,
		opts:      opts,
	}
}

// Start begins running the reminder job in the background
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.opts.Interval).Do(func() {
		if _, err := s.CheckAndSendReminders(ctx); err != nil {
			logger.Errorf(ctx, "Reminder check failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	s.scheduler.StartAsync()
	logger.Infof(ctx, "Reminders scheduled every %s between %02d:00 and %02d:59 UTC",
		s.opts.Interval, s.opts.StartHour, s.opts.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether hour falls inside the notification window
func (s *Scheduler) InWindow(hour int) bool {
	return hour >= s.opts.StartHour && hour <= s.opts.EndHour
}

// CheckAndSendReminders notifies every learner due for a reminder at the
// current hour and returns how many reminders were sent. A failure for one
// learner is logged and does not stop the others.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC()
	hour := now.Hour()
	if !s.InWindow(hour) {
		logger.Debugf(ctx, "Current hour %d is outside notification hours (%d-%d), skipping reminders",
			hour, s.opts.StartHour, s.opts.EndHour)
		return 0, nil
	}

	targets, err := s.source.ListReminderTargets(ctx, hour)
	if err != nil {
		return 0, fmt.Errorf("failed to get reminder targets: %w", err)
	}

	sent := 0
	for _, target := range targets {
		ok, err := s.remind(ctx, target, now)
		if err != nil {
			logger.GetLogger(ctx).WithFields(logrus.Fields{
				"learner_id": target.LearnerID,
				"language":   target.LanguageCode,
			}).Warnf("Error sending reminder: %v", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// RunManualCheck forces a check for one learner and language, ignoring the
// window. An unknown learner is ErrNotFound.
func (s *Scheduler) RunManualCheck(ctx context.Context, learnerID, languageCode string) (bool, error) {
	profile, err := s.source.GetLearnerProfile(ctx, learnerID)
	if err != nil {
		return false, err
	}
	if profile == nil {
		return false, fmt.Errorf("learner %s: %w", learnerID, apperrors.ErrNotFound)
	}
	target := models.ReminderTarget{
		LearnerID:      learnerID,
		DisplayName:    profile.DisplayName,
		LanguageCode:   languageCode,
		TelegramChatID: profile.TelegramChatID,
	}
	return s.remind(ctx, target, s.clock.Now().UTC())
}

func (s *Scheduler) remind(ctx context.Context, target models.ReminderTarget, now time.Time) (bool, error) {
	due, err := s.source.ListDueConcepts(ctx, target.LearnerID, target.LanguageCode, now, dueFetchLimit)
	if err != nil {
		return false, fmt.Errorf("failed to get due concepts: %w", err)
	}
	if len(due) == 0 {
		return false, nil
	}

	top, err := spaced_repetition.Prioritize(due, now, spaced_repetition.DefaultMaxReviewItems)
	if err != nil {
		return false, err
	}
	reminder := Reminder{Target: target, DueCount: len(due), Concepts: top}
	if err := s.notifier.SendReminder(ctx, reminder); err != nil {
		return false, err
	}
	return true, nil
}
