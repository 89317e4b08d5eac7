package leaderboard

import (
	"sort"

	"github.com/google/uuid"
)

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "all_time"
)

func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return Period(s), true
	case "":
		return PeriodAllTime, true
	}
	return "", false
}

// Entry is a read-only ranking projection. Points and TotalSaved are
// already windowed to the requested period by the caller; the ranker
// only orders.
type Entry struct {
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	Username         string    `json:"username" db:"username"`
	ImageURL         *string   `json:"image_url" db:"image_url"`
	Points           float64   `json:"points"`
	TotalSaved       int       `json:"total_saved" db:"total_saved"`
	AchievementLevel int       `json:"achievement_level"`
	Rank             int       `json:"rank"`
}

type Leaderboard struct {
	Period       Period   `json:"period"`
	Entries      []*Entry `json:"entries"`
	UserPosition *Entry   `json:"user_position"`
	TotalUsers   int      `json:"total_users"`
}

// less is the total order: points desc, total saved desc, username
// asc, user id asc. Usernames are not guaranteed unique across the
// cohort, so the id is the final tie-break that makes the order total
// for any input permutation.
func less(a, b *Entry) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.TotalSaved != b.TotalSaved {
		return a.TotalSaved > b.TotalSaved
	}
	if a.Username != b.Username {
		return a.Username < b.Username
	}
	return a.UserID.String() < b.UserID.String()
}

// Rank orders a cohort and assigns ranks 1..n. The input slice and its
// entries are left untouched; the result holds copies.
func Rank(entries []*Entry) []*Entry {
	ranked := make([]*Entry, len(entries))
	for i, e := range entries {
		c := *e
		ranked[i] = &c
	}
	sort.Slice(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// RankOf reports a user's absolute rank over the full population:
// 1 + the number of entries that strictly precede it under the total
// order. The second return is false when the user is not in the
// cohort.
func RankOf(entries []*Entry, userID uuid.UUID) (int, bool) {
	var target *Entry
	for _, e := range entries {
		if e.UserID == userID {
			target = e
			break
		}
	}
	if target == nil {
		return 0, false
	}
	rank := 1
	for _, e := range entries {
		if e.UserID != userID && less(e, target) {
			rank++
		}
	}
	return rank, true
}
