package models

import "time"

// LearnerPreferences holds tutoring preferences chosen by the learner
type LearnerPreferences struct {
	LessonMinutes   int      `json:"lesson_minutes"`
	CorrectionStyle string   `json:"correction_style"` // e.g. "gentle", "immediate"
	Interests       []string `json:"interests"`
}

// LearnerProfile represents a learner using the tutor
type LearnerProfile struct {
	ID                   string             `json:"id"`
	DisplayName          string             `json:"display_name"`
	NativeLanguage       string             `json:"native_language"`
	Preferences          LearnerPreferences `json:"preferences"`
	NotificationsEnabled bool               `json:"notifications_enabled"`
	NotificationHour     int                `json:"notification_hour"` // hour of day (0-23)
	TelegramChatID       int64              `json:"telegram_chat_id,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
}

// ReminderTarget is a learner and language pair that may receive a review reminder
type ReminderTarget struct {
	LearnerID      string `json:"learner_id"`
	DisplayName    string `json:"display_name"`
	LanguageCode   string `json:"language_code"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
}
