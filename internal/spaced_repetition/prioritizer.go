package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/linguamem/internal/apperrors"
)

// DefaultMaxReviewItems bounds a review list when the caller has no preference
const DefaultMaxReviewItems = 10

// ReviewableItem is anything the prioritizer can rank
type ReviewableItem interface {
	// ReviewDueAt returns nil for items that were never scheduled
	ReviewDueAt() *time.Time
	Mastery() float64
	Seen() int
	Incorrect() int
}

// IsDue reports whether the item should be reviewed at now.
// Unscheduled items are always due.
func IsDue(item ReviewableItem, now time.Time) bool {
	next := item.ReviewDueAt()
	return next == nil || !next.After(now)
}

// Prioritize returns the due items ordered for review, at most maxItems.
// Struggling items come first, then the most overdue. Ties keep input order.
// The input slice is left untouched.
func Prioritize[T ReviewableItem](items []T, now time.Time, maxItems int) ([]T, error) {
	if maxItems < 0 {
		return nil, apperrors.Invalid("max_items", maxItems, "must not be negative")
	}

	due := make([]T, 0, len(items))
	for _, item := range items {
		if IsDue(item, now) {
			due = append(due, item)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		si := IsStruggling(due[i].Mastery(), due[i].Seen())
		sj := IsStruggling(due[j].Mastery(), due[j].Seen())
		if si != sj {
			return si
		}
		return moreOverdue(due[i].ReviewDueAt(), due[j].ReviewDueAt())
	})

	if len(due) > maxItems {
		due = due[:maxItems]
	}
	return due, nil
}

// moreOverdue orders by due time ascending; a missing time is infinitely overdue
func moreOverdue(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil:
		return true
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}
