package progress

import (
	"fmt"
	"math"
	"time"

	"saveQuestAPI/internal/challenge"
)

// ApplyContribution folds a single contribution into a challenge and
// returns the next challenge value. The input is never mutated, so the
// caller decides when (and whether) to persist the result. Callers are
// expected to serialize updates per challenge; this function itself
// holds no locks.
func ApplyContribution(ch challenge.Challenge, contrib challenge.Contribution) (challenge.Challenge, error) {
	if contrib.Amount <= 0 {
		return ch, fmt.Errorf("contribution amount must be positive, got %d: %w", contrib.Amount, challenge.ErrInvalidContribution)
	}
	if ch.Status == challenge.StatusAbandoned {
		return ch, fmt.Errorf("challenge %s is abandoned: %w", ch.ID, challenge.ErrInvalidContribution)
	}
	if ch.Status == challenge.StatusNotStarted {
		return ch, fmt.Errorf("challenge %s has not been joined: %w", ch.ID, challenge.ErrInvalidContribution)
	}
	if err := ch.Validate(); err != nil {
		return ch, err
	}
	if dateOnly(contrib.Date).Before(dateOnly(ch.StartDate)) {
		return ch, fmt.Errorf("contribution dated %s before challenge start: %w",
			contrib.Date.Format("2006-01-02"), challenge.ErrInvalidContribution)
	}
	// Contributions dated after EndDate are accepted and recorded; they
	// never resurrect a terminal status.

	next := ch.Clone()
	next.CurrentAmount += contrib.Amount
	next.Progress = progressPercent(next.CurrentAmount, next.TargetAmount)

	// Mark every qualifying milestone in ascending amount order.
	// Achieved flags are monotonic: never cleared.
	for i := range next.Milestones {
		if !next.Milestones[i].Achieved && next.CurrentAmount >= next.Milestones[i].Amount {
			next.Milestones[i].Achieved = true
		}
	}

	updateStreak(&next, contrib.Date)

	if next.CurrentAmount >= next.TargetAmount && next.Status == challenge.StatusActive {
		next.Status = challenge.StatusCompleted
		done := contrib.Date
		next.CompletedAt = &done
	}
	next.UpdatedAt = contrib.Date

	return next, nil
}

// Join moves a not_started challenge to active.
func Join(ch challenge.Challenge) (challenge.Challenge, error) {
	switch ch.Status {
	case challenge.StatusNotStarted:
		next := ch.Clone()
		next.Status = challenge.StatusActive
		return next, nil
	case challenge.StatusActive:
		return ch.Clone(), nil
	default:
		return ch, fmt.Errorf("cannot join challenge in status %q: %w", ch.Status, challenge.ErrInvalidTransition)
	}
}

// Abandon cancels a challenge. Completed and abandoned are terminal.
func Abandon(ch challenge.Challenge) (challenge.Challenge, error) {
	if ch.Status.Terminal() {
		return ch, fmt.Errorf("cannot abandon challenge in status %q: %w", ch.Status, challenge.ErrInvalidTransition)
	}
	next := ch.Clone()
	next.Status = challenge.StatusAbandoned
	return next, nil
}

// NewlyAchieved reports the milestones achieved in next but not in
// prev, for event triggers.
func NewlyAchieved(prev, next challenge.Challenge) []challenge.Milestone {
	var out []challenge.Milestone
	for i, m := range next.Milestones {
		if m.Achieved && i < len(prev.Milestones) && !prev.Milestones[i].Achieved {
			out = append(out, m)
		}
	}
	return out
}

// progressPercent rounds to the nearest whole percent, but only
// reports 100 once the target is actually reached. Rounding alone
// would show 100 at 99.5% of target.
func progressPercent(current, target int) int {
	if current >= target {
		return 100
	}
	pct := int(math.Round(float64(current) / float64(target) * 100))
	if pct > 99 {
		pct = 99
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// updateStreak advances the streak when the contribution lands in a
// new qualifying period contiguous with the previous one. Multiple
// contributions within one period do not double-increment; a gap of
// more than one period resets the streak to 1. Back-dated
// contributions never rewind the anchor.
func updateStreak(ch *challenge.Challenge, date time.Time) {
	if ch.LastPeriodDate == nil {
		ch.StreakCount = 1
		d := dateOnly(date)
		ch.LastPeriodDate = &d
		return
	}

	last := periodIndex(ch.Type, *ch.LastPeriodDate)
	cur := periodIndex(ch.Type, date)

	switch {
	case cur == last:
		// same period, streak unchanged
	case cur == last+1:
		ch.StreakCount++
	case cur > last+1:
		ch.StreakCount = 1
	default:
		// back-dated contribution: amount counts, streak anchor stays
		return
	}

	d := dateOnly(date)
	ch.LastPeriodDate = &d
}

// periodIndex maps a date onto a monotonically increasing period
// number: day, ISO-style Monday week, or calendar month, matching the
// challenge cadence.
func periodIndex(typ challenge.Type, t time.Time) int {
	d := dateOnly(t)
	switch typ {
	case challenge.TypeWeekly:
		days := epochDays(d)
		// shift so weeks split on Monday
		offset := (int(d.Weekday()) + 6) % 7
		return (days - offset) / 7
	case challenge.TypeMonthly:
		return d.Year()*12 + int(d.Month()) - 1
	default:
		return epochDays(d)
	}
}

func epochDays(d time.Time) int {
	return int(d.Unix() / 86400)
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
