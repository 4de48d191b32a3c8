package economy

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

var (
	ErrInsufficientGold  = errors.New("insufficient gold")
	ErrDuplicateHolding  = errors.New("investment already held")
	ErrUnknownInvestment = errors.New("unknown investment")
)

// DefaultStartingGold is the purse a new game begins with.
const DefaultStartingGold = 1000.0

// Market supplies the world-driven pricing inputs for a slumber.
type Market interface {
	// GrowthRate is the economic phase multiplier, 1.0 when neutral.
	GrowthRate() float64
	// InvestmentModifier folds the active events' effect on inv.
	InvestmentModifier(inv *Investment) float64
}

// Portfolio is the wealth interface the simulation consumes.
type Portfolio interface {
	save.Saveable
	Gold() float64
	SetGold(gold float64)
	AddGold(amount float64)
	InvestmentValue() float64
	TotalValue() float64
	Investments() []*Investment
	InvestmentCount() int
	CanAfford(cost float64) bool
	SubtractGold(amount float64) error
	ApplySlumber(years uint64)
	Reset(startingGold float64)
}

// Holdings is the standard Portfolio.
type Holdings struct {
	gold        float64
	investments []*Investment
	market      Market
}

var _ Portfolio = (*Holdings)(nil)

// NewHoldings returns a portfolio with gold on hand and no investments.
func NewHoldings(gold float64) *Holdings {
	return &Holdings{gold: math.Max(0, gold)}
}

// SetMarket attaches the pricing source used by ApplySlumber. nil means
// neutral pricing.
func (h *Holdings) SetMarket(m Market) { h.market = m }

func (h *Holdings) Gold() float64 { return h.gold }

func (h *Holdings) SetGold(gold float64) { h.gold = math.Max(0, gold) }

func (h *Holdings) AddGold(amount float64) { h.SetGold(h.gold + amount) }

func (h *Holdings) CanAfford(cost float64) bool { return h.gold >= cost }

// SubtractGold spends amount, leaving gold untouched when it falls short.
func (h *Holdings) SubtractGold(amount float64) error {
	if !h.CanAfford(amount) {
		return fmt.Errorf("need %.0f, have %.0f: %w", amount, h.gold, ErrInsufficientGold)
	}
	h.SetGold(h.gold - amount)
	return nil
}

func (h *Holdings) InvestmentValue() float64 {
	total := 0.0
	for _, inv := range h.investments {
		total += inv.CurrentValue
	}
	return total
}

func (h *Holdings) TotalValue() float64 { return h.gold + h.InvestmentValue() }

// Investments returns the holdings in purchase order.
func (h *Holdings) Investments() []*Investment { return slices.Clone(h.investments) }

func (h *Holdings) InvestmentCount() int { return len(h.investments) }

// Investment looks up a holding by id.
func (h *Holdings) Investment(id string) *Investment {
	for _, inv := range h.investments {
		if inv.ID == id {
			return inv
		}
	}
	return nil
}

// Buy pays the purchase price and adds inv.
func (h *Holdings) Buy(inv *Investment) error {
	if h.Investment(inv.ID) != nil {
		return fmt.Errorf("%s: %w", inv.ID, ErrDuplicateHolding)
	}
	if err := h.SubtractGold(inv.PurchasePrice); err != nil {
		return fmt.Errorf("buy %s: %w", inv.ID, err)
	}
	h.investments = append(h.investments, inv)
	slog.Debug("investment bought", "id", inv.ID, "class", inv.Class, "price", inv.PurchasePrice)
	return nil
}

// Sell liquidates a holding at its current value and returns the proceeds.
func (h *Holdings) Sell(id string) (float64, error) {
	i := slices.IndexFunc(h.investments, func(inv *Investment) bool { return inv.ID == id })
	if i < 0 {
		return 0, fmt.Errorf("%s: %w", id, ErrUnknownInvestment)
	}
	proceeds := h.investments[i].CurrentValue
	h.investments = slices.Delete(h.investments, i, i+1)
	h.AddGold(proceeds)
	return proceeds, nil
}

// ApplySlumber compounds every investment over years at its risk rate,
// scaled by the market's growth rate and event modifier.
func (h *Holdings) ApplySlumber(years uint64) {
	if years == 0 {
		return
	}
	growth := 1.0
	if h.market != nil {
		growth = h.market.GrowthRate()
	}
	for _, inv := range h.investments {
		modifier := 1.0
		if h.market != nil {
			modifier = math.Max(0, h.market.InvestmentModifier(inv))
		}
		yearly := (1 + inv.Risk.BaseRate()) * growth
		inv.CurrentValue = inv.CurrentValue * math.Pow(yearly, float64(years)) * modifier
	}
}

// Reset drops every investment and sets the purse.
func (h *Holdings) Reset(startingGold float64) {
	h.investments = nil
	h.SetGold(startingGold)
}

func (h *Holdings) SaveID() string { return "portfolio" }

func (h *Holdings) Save(c *save.Context) error {
	c.WriteDouble("gold", h.gold)
	return save.WriteList(c, "investments", len(h.investments), func(i int) error {
		return h.investments[i].Save(c)
	})
}

func (h *Holdings) Load(c *save.Context) error {
	h.gold = math.Max(0, c.ReadDouble("gold", DefaultStartingGold))
	h.investments = nil
	return save.ReadList(c, "investments", func(int) error {
		inv := &Investment{}
		if err := inv.Load(c); err != nil {
			return err
		}
		h.investments = append(h.investments, inv)
		return nil
	})
}
