package catalog

import (
	"saveQuestAPI/internal/challenge"
)

// Catalog holds the static challenge templates, grouped by type in
// declaration order. It is built once at startup and is read-only
// afterwards, so concurrent reads need no locking.
type Catalog struct {
	byType map[challenge.Type][]challenge.Template
	order  []challenge.Type
}

func New(templates []challenge.Template) *Catalog {
	c := &Catalog{byType: make(map[challenge.Type][]challenge.Template)}
	for _, t := range templates {
		if _, ok := c.byType[t.Type]; !ok {
			c.order = append(c.order, t.Type)
		}
		c.byType[t.Type] = append(c.byType[t.Type], t)
	}
	return c
}

// Templates returns the catalog entries for a challenge type in
// declaration order. The returned slice must not be modified.
func (c *Catalog) Templates(typ challenge.Type) []challenge.Template {
	return c.byType[typ]
}

// TemplatesByCategory narrows Templates to a single category,
// preserving declaration order.
func (c *Catalog) TemplatesByCategory(typ challenge.Type, category string) []challenge.Template {
	var out []challenge.Template
	for _, t := range c.byType[typ] {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Types() []challenge.Type {
	return c.order
}

// Default is the built-in template set for the 40/30/30 savings
// categories. Base amounts are whole currency units.
func Default() *Catalog {
	return New([]challenge.Template{
		{Type: challenge.TypeDaily, Category: "coffee", Name: "Skip the Latte", Description: "Brew at home and bank the coffee-shop money.", BaseAmount: 5},
		{Type: challenge.TypeDaily, Category: "dining", Name: "Brown Bag It", Description: "Pack lunch instead of buying it.", BaseAmount: 12},
		{Type: challenge.TypeDaily, Category: "transport", Name: "Park the Car", Description: "Walk, bike or take transit for a day.", BaseAmount: 8},
		{Type: challenge.TypeDaily, Category: "impulse", Name: "No-Spend Day", Description: "Put every unplanned purchase on hold for 24 hours.", BaseAmount: 15},
		{Type: challenge.TypeDaily, Category: "snacks", Name: "Vending Machine Fast", Description: "Skip the snack run and save the change.", BaseAmount: 4},

		{Type: challenge.TypeWeekly, Category: "dining", Name: "Cook Every Dinner", Description: "A full week without takeout or delivery.", BaseAmount: 60},
		{Type: challenge.TypeWeekly, Category: "entertainment", Name: "Free Fun Week", Description: "Only free entertainment for seven days.", BaseAmount: 40},
		{Type: challenge.TypeWeekly, Category: "groceries", Name: "Pantry Raid", Description: "Plan meals around what you already own.", BaseAmount: 35},
		{Type: challenge.TypeWeekly, Category: "impulse", Name: "Cart Cooldown", Description: "Leave online carts untouched for a week.", BaseAmount: 50},
		{Type: challenge.TypeWeekly, Category: "transport", Name: "Commute Lite", Description: "Cut ride-hailing for a week.", BaseAmount: 30},

		{Type: challenge.TypeMonthly, Category: "subscriptions", Name: "Subscription Audit", Description: "Cancel one subscription you forgot about.", BaseAmount: 120},
		{Type: challenge.TypeMonthly, Category: "dining", Name: "Restaurant Rations", Description: "Halve your eating-out budget for a month.", BaseAmount: 200},
		{Type: challenge.TypeMonthly, Category: "shopping", Name: "Closet Freeze", Description: "No new clothes for thirty days.", BaseAmount: 150},
		{Type: challenge.TypeMonthly, Category: "utilities", Name: "Power Down", Description: "Trim the utility bill with a month of small habits.", BaseAmount: 80},
		{Type: challenge.TypeMonthly, Category: "entertainment", Name: "Big Night In", Description: "Swap nights out for nights in all month.", BaseAmount: 250},
	})
}
