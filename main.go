package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/linguamem/internal/excel"
	"github.com/example/linguamem/internal/lessoncontext"
	"github.com/example/linguamem/internal/logger"
	"github.com/example/linguamem/internal/recorder"
	"github.com/example/linguamem/internal/scheduler"
	"github.com/example/linguamem/internal/transfer"
	"github.com/example/linguamem/pkg/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "linguamem",
		Short:         "Memory scheduling and lesson context engine for language tutoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load")

	root.AddCommand(newServeCmd(&envFile))
	root.AddCommand(newContextCmd(&envFile))
	root.AddCommand(newReviewCmd(&envFile))
	root.AddCommand(newHistoryCmd(&envFile))
	root.AddCommand(newTransferCmd(&envFile))
	root.AddCommand(newFamiliesCmd(&envFile))
	root.AddCommand(newImportCmd(&envFile))
	root.AddCommand(newLearnerCmd(&envFile))
	root.AddCommand(newProgressCmd(&envFile))
	root.AddCommand(newSessionCmd(&envFile))
	root.AddCommand(newRemindCmd(&envFile))
	return root
}

// withApp loads the app, runs fn and releases resources
func withApp(envFile string, fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := loadApp(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.close(ctx)
	return fn(ctx, a)
}

// required takes flag name and value pairs
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("--%s is required", pairs[i])
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the review reminder service until interrupted",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			notifier, err := a.notifier(ctx)
			if err != nil {
				return err
			}

			s := scheduler.New(a.store, notifier, nil, scheduler.OptionsFromConfig(a.cfg))
			if err := s.Start(ctx); err != nil {
				return err
			}
			logger.Infof(ctx, "Service started. Press Ctrl+C to stop.")

			<-ctx.Done()
			s.Stop()
			logger.Infof(ctx, "Service stopped successfully")
			return nil
		},
	}
}

func newContextCmd(envFile *string) *cobra.Command {
	var learnerID, language, topic string
	var prompt bool

	cmd := &cobra.Command{
		Use:   "context --learner <id> --language <code>",
		Short: "Build the lesson context for a learner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("learner", learnerID, "language", language); err != nil {
				return err
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				code, err := a.language(language)
				if err != nil {
					return err
				}
				lc, err := a.builder.BuildContext(ctx, learnerID, code, lessoncontext.BuildOptions{CustomTopic: topic})
				if err != nil {
					return err
				}
				if prompt {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), lessoncontext.RenderPrompt(*lc))
					return nil
				}
				return printJSON(cmd.OutOrStdout(), lc)
			})
		},
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&language, "language", "", "target language code")
	cmd.Flags().StringVar(&topic, "topic", "", "topic requested for this lesson")
	cmd.Flags().BoolVar(&prompt, "prompt", false, "print the tutor briefing instead of JSON")
	return cmd
}

func newReviewCmd(envFile *string) *cobra.Command {
	var in recorder.ReviewInput
	var language, kind, name string
	var latency time.Duration

	cmd := &cobra.Command{
		Use:   "review --learner <id> --language <code> --concept <id> --event <type>",
		Short: "Record one review event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("learner", in.LearnerID, "language", language, "concept", in.ConceptID, "event", in.EventType); err != nil {
				return err
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				code, err := a.language(language)
				if err != nil {
					return err
				}
				in.LanguageCode = code
				in.Kind = models.ConceptKind(strings.ToLower(kind))
				in.DisplayName = name
				in.Context.ResponseLatency = latency

				res, err := a.recorder.Record(ctx, in)
				if err != nil {
					return err
				}
				c := res.Concept
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: quality=%d ef=%.2f interval=%dd next=%s mastery=%.2f\n",
					c.ConceptID, res.Event.Quality, c.Retention.EasinessFactor, c.Retention.IntervalDays,
					c.Retention.NextReviewAt.Format(time.RFC3339), c.Retention.MasteryLevel)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.LearnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&language, "language", "", "language code")
	cmd.Flags().StringVar(&in.ConceptID, "concept", "", "concept id")
	cmd.Flags().StringVar(&kind, "kind", string(models.ConceptVocabulary), "concept kind: vocabulary|grammar")
	cmd.Flags().StringVar(&name, "name", "", "display name (optional)")
	cmd.Flags().StringVar(&in.EventType, "event", "", "event type: correct|incorrect|struggled|self_corrected|introduced|reviewed|mastered|forgot")
	cmd.Flags().DurationVar(&latency, "latency", 0, "response latency")
	cmd.Flags().BoolVar(&in.Context.SelfCorrected, "self-corrected", false, "learner corrected themselves")
	cmd.Flags().BoolVar(&in.Context.CloseAttempt, "close", false, "incorrect answer was close")
	cmd.Flags().StringVar(&in.Context.ErrorDescription, "error", "", "description of the mistake")
	return cmd
}

func newHistoryCmd(envFile *string) *cobra.Command {
	var learnerID, language, conceptID string
	var limit int

	cmd := &cobra.Command{
		Use:   "history --learner <id> --language <code> --concept <id>",
		Short: "Show recent review events of a concept",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("learner", learnerID, "language", language, "concept", conceptID); err != nil {
				return err
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				code, err := a.language(language)
				if err != nil {
					return err
				}
				events, err := a.store.GetReviewHistory(ctx, models.ConceptKey{LearnerID: learnerID, LanguageCode: code, ConceptID: conceptID}, limit)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no reviews")
					return nil
				}
				for _, e := range events {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tq=%d\t%s\n",
						e.OccurredAt.Format(time.RFC3339), e.Type, e.Quality, e.Context.ErrorDescription)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&language, "language", "", "language code")
	cmd.Flags().StringVar(&conceptID, "concept", "", "concept id")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum events")
	return cmd
}

func newTransferCmd(envFile *string) *cobra.Command {
	var learnerID, language string

	cmd := &cobra.Command{
		Use:   "transfer --learner <id> --language <code>",
		Short: "Show what transfers from related languages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("learner", learnerID, "language", language); err != nil {
				return err
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				code, err := a.language(language)
				if err != nil {
					return err
				}
				k, err := a.engine.TransferableKnowledge(ctx, a.store, learnerID, code)
				if err != nil {
					return err
				}
				text := transfer.RenderTransferPrompt(k)
				if text == "" {
					text = "no transferable knowledge\n"
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&language, "language", "", "target language code")
	return cmd
}

func newFamiliesCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "List the language families",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*envFile, func(_ context.Context, a *app) error {
				for _, f := range a.engine.Families() {
					codes := make([]string, 0, len(f.Languages))
					for _, l := range f.Languages {
						codes = append(codes, l.Code)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
						f.Name, strings.Join(codes, ","), strings.Join(f.SharedConcepts, ","))
				}
				return nil
			})
		},
	}
}

func newImportCmd(envFile *string) *cobra.Command {
	cfg := excel.DefaultImportConfig()

	cmd := &cobra.Command{
		Use:   "import --learner <id> --language <code> --file <path>",
		Short: "Import a concept catalog from .xlsx or .csv",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("learner", cfg.LearnerID, "language", cfg.LanguageCode, "file", cfg.FilePath); err != nil {
				return err
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				code, err := a.language(cfg.LanguageCode)
				if err != nil {
					return err
				}
				cfg.LanguageCode = code
				res, err := excel.ImportConcepts(ctx, a.store, cfg)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "processed=%d created=%d skipped=%d errors=%d\n",
					res.TotalProcessed, res.Created, res.Skipped, len(res.Errors))
				for _, e := range res.Errors {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&cfg.LearnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&cfg.LanguageCode, "language", "", "language code")
	cmd.Flags().StringVar(&cfg.FilePath, "file", "", "spreadsheet or CSV file")
	cmd.Flags().StringVar(&cfg.SheetName, "sheet", "", "sheet name (default: first sheet)")
	return cmd
}

func newLearnerCmd(envFile *string) *cobra.Command {
	var p models.LearnerProfile

	cmd := &cobra.Command{
		Use:   "learner --id <id>",
		Short: "Create or update a learner profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("id", p.ID); err != nil {
				return err
			}
			if p.NotificationHour < 0 || p.NotificationHour > 23 {
				return fmt.Errorf("--notify-hour must be between 0 and 23")
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				if err := a.store.UpsertLearner(ctx, p); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "learner %s saved\n", p.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&p.ID, "id", "", "learner id")
	cmd.Flags().StringVar(&p.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&p.NativeLanguage, "native", "", "native language code")
	cmd.Flags().IntVar(&p.Preferences.LessonMinutes, "minutes", 20, "preferred lesson length")
	cmd.Flags().StringVar(&p.Preferences.CorrectionStyle, "correction", "gentle", "correction style")
	cmd.Flags().StringSliceVar(&p.Preferences.Interests, "interests", nil, "interests")
	cmd.Flags().BoolVar(&p.NotificationsEnabled, "notify", false, "send review reminders")
	cmd.Flags().IntVar(&p.NotificationHour, "notify-hour", 9, "reminder hour (UTC)")
	cmd.Flags().Int64Var(&p.TelegramChatID, "chat", 0, "telegram chat id")
	return cmd
}

func newProgressCmd(envFile *string) *cobra.Command {
	var learnerID string
	var p models.LanguageProgress

	cmd := &cobra.Command{
		Use:   "progress --learner <id> --language <code> --score <0-100>",
		Short: "Set a learner's proficiency in a language",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("learner", learnerID, "language", p.LanguageCode); err != nil {
				return err
			}
			if p.ProficiencyScore < 0 || p.ProficiencyScore > 100 {
				return fmt.Errorf("--score must be between 0 and 100")
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				code, err := a.language(p.LanguageCode)
				if err != nil {
					return err
				}
				current, err := a.store.GetLanguageProgress(ctx, learnerID, code)
				if err != nil {
					return err
				}
				next := models.DefaultLanguageProgress(code)
				if current != nil {
					next = *current
				}
				next.ProficiencyScore = p.ProficiencyScore
				if p.ProficiencyLevel != "" {
					next.ProficiencyLevel = p.ProficiencyLevel
				}
				if err := a.store.UpsertLanguageProgress(ctx, learnerID, next); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s (%.0f/100)\n", learnerID, code, next.ProficiencyLevel, next.ProficiencyScore)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&p.LanguageCode, "language", "", "language code")
	cmd.Flags().Float64Var(&p.ProficiencyScore, "score", 0, "proficiency score 0-100")
	cmd.Flags().StringVar(&p.ProficiencyLevel, "level", "", "proficiency level label")
	return cmd
}

func newSessionCmd(envFile *string) *cobra.Command {
	var s models.SessionSummary

	cmd := &cobra.Command{
		Use:   "session --learner <id> --language <code> --minutes <n>",
		Short: "Store the summary of a finished lesson",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("learner", s.LearnerID, "language", s.LanguageCode); err != nil {
				return err
			}
			if s.DurationMinutes < 0 {
				return fmt.Errorf("--minutes must not be negative")
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				code, err := a.language(s.LanguageCode)
				if err != nil {
					return err
				}
				s.LanguageCode = code
				saved, err := a.store.SaveSessionSummary(ctx, s)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s saved\n", saved.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&s.LearnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&s.LanguageCode, "language", "", "language code")
	cmd.Flags().IntVar(&s.DurationMinutes, "minutes", 0, "lesson length in minutes")
	cmd.Flags().StringVar(&s.Summary, "summary", "", "short summary")
	cmd.Flags().StringSliceVar(&s.ConceptsCovered, "concepts", nil, "concept ids covered")
	cmd.Flags().StringSliceVar(&s.Highlights, "highlights", nil, "notable moments")
	return cmd
}

func newRemindCmd(envFile *string) *cobra.Command {
	var learnerID, language string

	cmd := &cobra.Command{
		Use:   "remind --learner <id> --language <code>",
		Short: "Send a review reminder now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("learner", learnerID, "language", language); err != nil {
				return err
			}
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				code, err := a.language(language)
				if err != nil {
					return err
				}
				notifier, err := a.notifier(ctx)
				if err != nil {
					return err
				}
				s := scheduler.New(a.store, notifier, nil, scheduler.OptionsFromConfig(a.cfg))
				sent, err := s.RunManualCheck(ctx, learnerID, code)
				if err != nil {
					return err
				}
				if !sent {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "nothing due")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "learner id")
	cmd.Flags().StringVar(&language, "language", "", "language code")
	return cmd
}
