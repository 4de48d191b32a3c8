package events

import (
	"fmt"
	"slices"
)

// Choice is one way the player may answer an event. Its effects are
// applied by the caller: GoldCost from the portfolio, ExposureDelta to the
// gauge, and RemovesAgent against the event's target agent.
type Choice struct {
	ID            string
	Label         string
	Consequence   string
	GoldCost      float64
	ExposureDelta int
	RemovesAgent  bool
}

// RequiresGold reports whether the choice has a price.
func (c Choice) RequiresGold() bool { return c.GoldCost > 0 }

var (
	betrayalChoices = []Choice{
		{ID: "punish", Label: "Make an example of the traitor",
			Consequence: "The traitor is destroyed. Other agents take note.", RemovesAgent: true},
		{ID: "forgive", Label: "Show unexpected mercy",
			Consequence: "The agent's loyalty wavers. Some see wisdom, others weakness."},
		{ID: "turn", Label: "Bind them more tightly to your will",
			Consequence: "Dark magic ensures future loyalty, but at great cost.", GoldCost: 10000},
	}
	deathChoices = []Choice{
		{ID: "accept", Label: "Accept the natural order",
			Consequence: "The agent passes. Their knowledge is lost."},
		{ID: "raise", Label: "Raise them from death",
			Consequence: "The agent returns, changed. Exposure increases significantly.",
			GoldCost: 50000, ExposureDelta: 20},
	}
)

// Choices lists the answers open to the player. Only personal betrayals
// and deaths offer any, and none remain once the event is resolved.
func (e *Event) Choices() []Choice {
	p, ok := e.Effect.(*PersonalEffect)
	if !ok || e.Resolved {
		return nil
	}
	switch {
	case p.Betrayal:
		return slices.Clone(betrayalChoices)
	case p.Death:
		return slices.Clone(deathChoices)
	}
	return nil
}

// Resolve records the player's answer and returns the chosen option.
func (e *Event) Resolve(choiceID string) (Choice, error) {
	choices := e.Choices()
	i := slices.IndexFunc(choices, func(c Choice) bool { return c.ID == choiceID })
	if i < 0 {
		return Choice{}, fmt.Errorf("%s on %s: %w", choiceID, e.ID, ErrNoChoice)
	}
	e.Resolved = true
	return choices[i], nil
}
