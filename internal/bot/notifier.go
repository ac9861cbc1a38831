package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/example/linguamem/internal/logger"
	"github.com/example/linguamem/internal/scheduler"
	"github.com/example/linguamem/internal/transfer"
)

// MaxListedConcepts is how many due concepts a reminder names
const MaxListedConcepts = 5

// sender is the part of the Telegram API the notifier uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers review reminders as Telegram messages
type TelegramNotifier struct {
	api sender
}

// NewTelegramNotifier connects to the Bot API with token
func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	return &TelegramNotifier{api: api}, nil
}

// SendReminder implements the scheduler.Notifier interface
func (n *TelegramNotifier) SendReminder(ctx context.Context, r scheduler.Reminder) error {
	if r.Target.TelegramChatID == 0 {
		return fmt.Errorf("learner %s has no telegram chat", r.Target.LearnerID)
	}

	msg := tgbotapi.NewMessage(r.Target.TelegramChatID, FormatReminder(r))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder to learner %s: %w", r.Target.LearnerID, err)
	}

	logger.Infof(ctx, "Successfully sent reminder to learner %s for %d %s concepts",
		r.Target.LearnerID, r.DueCount, r.Target.LanguageCode)
	return nil
}

// LogNotifier logs reminders instead of sending them. Used when no bot token is configured.
type LogNotifier struct{}

// SendReminder implements the scheduler.Notifier interface
func (LogNotifier) SendReminder(ctx context.Context, r scheduler.Reminder) error {
	logger.GetLogger(ctx).WithFields(logrus.Fields{
		"learner_id": r.Target.LearnerID,
		"language":   r.Target.LanguageCode,
		"due":        r.DueCount,
	}).Info(FormatReminder(r))
	return nil
}

// FormatReminder renders the reminder text
func FormatReminder(r scheduler.Reminder) string {
	var b strings.Builder

	greeting := "Hi"
	if r.Target.DisplayName != "" {
		greeting += " " + r.Target.DisplayName
	}
	noun := "concepts"
	if r.DueCount == 1 {
		noun = "concept"
	}
	fmt.Fprintf(&b, "%s! You have %d %s to review in %s.", greeting, r.DueCount, noun, r.Target.LanguageCode)

	listed := r.Concepts
	if len(listed) > MaxListedConcepts {
		listed = listed[:MaxListedConcepts]
	}
	if len(listed) > 0 {
		b.WriteString("\nStart with:")
		for _, c := range listed {
			name := c.DisplayName
			if name == "" {
				name = transfer.DisplayConceptName(c.ConceptID)
			}
			fmt.Fprintf(&b, "\n- %s", name)
		}
	}
	if rest := r.DueCount - len(listed); rest > 0 && len(listed) > 0 {
		fmt.Fprintf(&b, "\n...and %d more.", rest)
	}
	return b.String()
}
