package spaced_repetition

import (
	"strings"
	"time"

	"github.com/example/linguamem/internal/apperrors"
	"github.com/example/linguamem/pkg/models"
)

// SlowResponseThreshold is the latency above which a correct answer counts as hesitant
const SlowResponseThreshold = 5 * time.Second

// AssessQuality maps a review event onto the SM-2 0..5 quality scale
func AssessQuality(eventType models.EventType, ec models.EventContext) QualityResponse {
	switch eventType {
	case models.EventCorrect:
		if ec.SelfCorrected || ec.ResponseLatency > SlowResponseThreshold {
			return QualityCorrectHesitation
		}
		return QualityPerfect
	case models.EventSelfCorrected:
		return QualityCorrectDifficult
	case models.EventIncorrect:
		if ec.CloseAttempt {
			return QualityIncorrectFamiliar
		}
		return QualityIncorrect
	case models.EventStruggled:
		return QualityBlackout
	case models.EventReviewed:
		return QualityCorrectHesitation
	case models.EventIntroduced:
		return QualityCorrectDifficult
	case models.EventMastered:
		return QualityPerfect
	case models.EventForgot:
		return QualityIncorrect
	default:
		return QualityCorrectDifficult
	}
}

// ParseEventType validates a raw event type name
func ParseEventType(raw string) (models.EventType, error) {
	candidate := models.EventType(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range models.EventTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", apperrors.Invalid("event_type", raw, "unknown event type")
}
