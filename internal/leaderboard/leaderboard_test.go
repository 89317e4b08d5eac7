package leaderboard

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(name string, points float64, saved int) *Entry {
	return &Entry{
		UserID:     uuid.New(),
		Username:   name,
		Points:     points,
		TotalSaved: saved,
	}
}

func TestRankOrdersByPointsDescending(t *testing.T) {
	ranked := Rank([]*Entry{
		entry("carol", 50, 0),
		entry("alice", 150, 0),
		entry("bob", 100, 0),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, "alice", ranked[0].Username)
	assert.Equal(t, "bob", ranked[1].Username)
	assert.Equal(t, "carol", ranked[2].Username)
	for i, e := range ranked {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestTotalSavedBreaksPointTies(t *testing.T) {
	a := entry("userA", 100, 50)
	b := entry("userB", 100, 80)

	ranked := Rank([]*Entry{a, b})
	assert.Equal(t, "userB", ranked[0].Username)
	assert.Equal(t, "userA", ranked[1].Username)
}

func TestUsernameBreaksRemainingTies(t *testing.T) {
	ranked := Rank([]*Entry{
		entry("zoe", 100, 80),
		entry("amy", 100, 80),
	})
	assert.Equal(t, "amy", ranked[0].Username)
	assert.Equal(t, "zoe", ranked[1].Username)
}

func TestRankIsDeterministicUnderShuffle(t *testing.T) {
	entries := []*Entry{
		entry("dora", 90, 10),
		entry("eric", 90, 10),
		entry("finn", 120, 5),
		entry("gail", 90, 30),
		entry("hugo", 10, 0),
	}

	baseline := Rank(entries)

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 10; i++ {
		shuffled := make([]*Entry, len(entries))
		copy(shuffled, entries)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		ranked := Rank(shuffled)
		require.Len(t, ranked, len(baseline))
		for j := range ranked {
			assert.Equal(t, baseline[j].Username, ranked[j].Username)
			assert.Equal(t, baseline[j].Rank, ranked[j].Rank)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	a := entry("alice", 10, 0)
	b := entry("bob", 20, 0)
	input := []*Entry{a, b}

	_ = Rank(input)

	assert.Equal(t, "alice", input[0].Username)
	assert.Equal(t, 0, a.Rank)
	assert.Equal(t, 0, b.Rank)
}

func TestRankOfFullPopulation(t *testing.T) {
	entries := []*Entry{
		entry("a", 500, 0),
		entry("b", 400, 0),
		entry("c", 300, 0),
		entry("d", 200, 0),
	}
	last := entry("e", 100, 0)
	entries = append(entries, last)

	rank, ok := RankOf(entries, last.UserID)
	require.True(t, ok)
	assert.Equal(t, 5, rank)

	rank, ok = RankOf(entries, entries[0].UserID)
	require.True(t, ok)
	assert.Equal(t, 1, rank)

	_, ok = RankOf(entries, uuid.New())
	assert.False(t, ok)
}

func TestRankOfAgreesWithRank(t *testing.T) {
	entries := []*Entry{
		entry("a", 90, 10),
		entry("b", 90, 10),
		entry("c", 90, 30),
		entry("d", 120, 5),
	}

	ranked := Rank(entries)
	for _, e := range ranked {
		rank, ok := RankOf(entries, e.UserID)
		require.True(t, ok)
		assert.Equal(t, e.Rank, rank)
	}
}

func TestParsePeriod(t *testing.T) {
	p, ok := ParsePeriod("weekly")
	assert.True(t, ok)
	assert.Equal(t, PeriodWeekly, p)

	p, ok = ParsePeriod("")
	assert.True(t, ok)
	assert.Equal(t, PeriodAllTime, p)

	_, ok = ParsePeriod("yearly")
	assert.False(t, ok)
}

func TestUserIDBreaksDuplicateUsernameTies(t *testing.T) {
	low := &Entry{UserID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Username: "sam", Points: 100, TotalSaved: 80}
	high := &Entry{UserID: uuid.MustParse("99999999-9999-9999-9999-999999999999"), Username: "sam", Points: 100, TotalSaved: 80}

	forward := Rank([]*Entry{low, high})
	reversed := Rank([]*Entry{high, low})

	require.Len(t, forward, 2)
	assert.Equal(t, low.UserID, forward[0].UserID)
	assert.Equal(t, high.UserID, forward[1].UserID)
	for i := range forward {
		assert.Equal(t, forward[i].UserID, reversed[i].UserID)
		assert.Equal(t, forward[i].Rank, reversed[i].Rank)
	}

	rank, ok := RankOf([]*Entry{high, low}, high.UserID)
	require.True(t, ok)
	assert.Equal(t, 2, rank)
}
