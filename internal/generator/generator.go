package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"saveQuestAPI/internal/catalog"
	"saveQuestAPI/internal/challenge"
)

// difficulty multipliers are user-facing game-balance constants; keep
// them in one place.
var difficultyMultipliers = map[challenge.Difficulty]float64{
	challenge.DifficultyEasy:   0.7,
	challenge.DifficultyMedium: 1.0,
	challenge.DifficultyHard:   1.5,
}

// milestoneCheckpoints are the fractional checkpoints on the path to
// the target amount.
var milestoneCheckpoints = []struct {
	Name string
	Pct  int
}{
	{"First Quarter", 25},
	{"Halfway There", 50},
	{"Home Stretch", 75},
	{"Goal Reached", 100},
}

type Options struct {
	Difficulty       challenge.Difficulty
	DurationDays     int
	TargetAmountHint int
	// Category narrows template selection to one catalog category.
	Category string
	// Pending creates the challenge in not_started state instead of
	// joining it immediately.
	Pending bool
}

// Generator produces Challenge instances from catalog templates.
// Randomness and time are injected so generation is reproducible in
// tests.
type Generator struct {
	catalog *catalog.Catalog
	rng     *rand.Rand
	now     func() time.Time
}

func New(cat *catalog.Catalog) *Generator {
	return NewWithSource(cat, rand.NewSource(time.Now().UnixNano()), time.Now)
}

func NewWithSource(cat *catalog.Catalog, src rand.Source, now func() time.Time) *Generator {
	return &Generator{
		catalog: cat,
		rng:     rand.New(src),
		now:     now,
	}
}

// Generate creates a concrete Challenge for the given type. With a
// target-amount hint the catalog entry with the nearest base amount
// wins (ties by declaration order); otherwise selection is uniformly
// random among the type's entries.
func (g *Generator) Generate(typ challenge.Type, opts Options) (*challenge.Challenge, error) {
	if opts.DurationDays <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d: %w", opts.DurationDays, challenge.ErrInvalidDuration)
	}

	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = challenge.DifficultyMedium
	}
	multiplier, ok := difficultyMultipliers[difficulty]
	if !ok {
		return nil, fmt.Errorf("unknown difficulty %q: %w", difficulty, challenge.ErrInvalidTemplate)
	}

	templates := g.catalog.Templates(typ)
	if opts.Category != "" {
		templates = g.catalog.TemplatesByCategory(typ, opts.Category)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no templates for type %q category %q: %w", typ, opts.Category, challenge.ErrInvalidTemplate)
	}

	var tmpl challenge.Template
	if opts.TargetAmountHint > 0 {
		tmpl = nearestTemplate(templates, opts.TargetAmountHint)
	} else {
		tmpl = templates[g.rng.Intn(len(templates))]
	}

	targetAmount := int(math.Round(float64(tmpl.BaseAmount) * multiplier))
	if targetAmount < 1 {
		targetAmount = 1
	}

	milestones := buildMilestones(targetAmount)

	status := challenge.StatusActive
	if opts.Pending {
		status = challenge.StatusNotStarted
	}

	now := g.now()
	ch := &challenge.Challenge{
		ID:            uuid.New(),
		Type:          typ,
		Name:          tmpl.Name,
		Description:   tmpl.Description,
		Category:      tmpl.Category,
		Difficulty:    difficulty,
		DurationDays:  opts.DurationDays,
		TargetAmount:  targetAmount,
		CurrentAmount: 0,
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, opts.DurationDays),
		Progress:      0,
		Milestones:    milestones,
		StreakCount:   0,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return ch, nil
}

// nearestTemplate picks the entry whose base amount has the smallest
// absolute difference from the hint. Declaration order breaks ties.
func nearestTemplate(templates []challenge.Template, hint int) challenge.Template {
	best := templates[0]
	bestDiff := abs(best.BaseAmount - hint)
	for _, t := range templates[1:] {
		if d := abs(t.BaseAmount - hint); d < bestDiff {
			best = t
			bestDiff = d
		}
	}
	return best
}

// buildMilestones places the checkpoints on the path to the target.
// Small targets make neighbouring checkpoints round to the same
// amount; those duplicates are dropped so amounts stay strictly
// increasing. The final milestone always sits exactly at the target.
func buildMilestones(targetAmount int) []challenge.Milestone {
	milestones := make([]challenge.Milestone, 0, len(milestoneCheckpoints))
	prev := 0
	last := len(milestoneCheckpoints) - 1
	for i, cp := range milestoneCheckpoints {
		amount := int(math.Round(float64(targetAmount) * float64(cp.Pct) / 100))
		if i == last {
			amount = targetAmount
		} else if amount <= prev || amount >= targetAmount {
			continue
		}
		milestones = append(milestones, challenge.Milestone{Name: cp.Name, Amount: amount})
		prev = amount
	}
	return milestones
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
