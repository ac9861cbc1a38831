package spaced_repetition

const (
	// MasteredThreshold is the mastery level at which a concept is considered mastered
	MasteredThreshold = 0.8
	// StrugglingThreshold is the mastery level below which repeated exposure signals difficulty
	StrugglingThreshold = 0.5
)

// IsMastered determines if a concept is considered "mastered"
func IsMastered(masteryLevel float64) bool {
	return masteryLevel >= MasteredThreshold
}

// IsStruggling reports low mastery on a concept seen more than once.
// A single exposure is not enough evidence.
func IsStruggling(masteryLevel float64, timesSeen int) bool {
	return masteryLevel < StrugglingThreshold && timesSeen > 1
}
