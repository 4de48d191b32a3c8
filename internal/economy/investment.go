// Package economy models the player's wealth: gold on hand plus a set of
// investments whose values compound across slumbers.
package economy

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// AssetClass categorizes an investment.
type AssetClass int8

// AnyClass matches every asset class in event filters.
const AnyClass AssetClass = -1

const (
	Property  AssetClass = iota // Land and buildings
	Trade                       // Caravans and shipping
	Financial                   // Banks and loans
	Magical                     // Enchanted goods
	Political                   // Bought influence
	Dark                        // Necromantic enterprises
)

var assetClassNames = [...]string{"Property", "Trade", "Financial", "Magical", "Political", "Dark"}

func (a AssetClass) String() string {
	if a == AnyClass {
		return "Any"
	}
	if a >= 0 && int(a) < len(assetClassNames) {
		return assetClassNames[a]
	}
	return "AssetClass(" + strconv.Itoa(int(a)) + ")"
}

// Matches reports whether a filter class selects a.
func (a AssetClass) Matches(filter AssetClass) bool {
	return filter == AnyClass || filter == a
}

// ParseAssetClass resolves a class name, case-sensitive as printed.
func ParseAssetClass(s string) (AssetClass, error) {
	for i, n := range assetClassNames {
		if n == s {
			return AssetClass(i), nil
		}
	}
	if s == "Any" {
		return AnyClass, nil
	}
	return 0, fmt.Errorf("unknown asset class %q", s)
}

// RiskLevel sets an investment's base return rate.
type RiskLevel uint8

const (
	Low RiskLevel = iota
	Medium
	High
	Extreme
)

var riskNames = [...]string{"Low", "Medium", "High", "Extreme"}

func (r RiskLevel) String() string {
	if int(r) < len(riskNames) {
		return riskNames[r]
	}
	return "RiskLevel(" + strconv.Itoa(int(r)) + ")"
}

// BaseRate is the yearly compound return for the risk level.
func (r RiskLevel) BaseRate() float64 {
	switch r {
	case Low:
		return 0.03
	case Medium:
		return 0.06
	case High:
		return 0.10
	case Extreme:
		return 0.15
	default:
		return 0.05
	}
}

// Investment is one holding.
type Investment struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	RegionID      string     `json:"region_id,omitempty"`
	Class         AssetClass `json:"asset_class"`
	Risk          RiskLevel  `json:"risk_level"`
	PurchaseYear  uint64     `json:"purchase_year"`
	PurchasePrice float64    `json:"purchase_price"`
	CurrentValue  float64    `json:"current_value"`
}

// NewInvestment returns an investment valued at its purchase price.
func NewInvestment(id, name string, class AssetClass, risk RiskLevel, year uint64, price float64) *Investment {
	return &Investment{
		ID:            id,
		Name:          name,
		Class:         class,
		Risk:          risk,
		PurchaseYear:  year,
		PurchasePrice: price,
		CurrentValue:  price,
	}
}

// Age is the number of years held as of year.
func (inv *Investment) Age(year uint64) uint64 {
	if year <= inv.PurchaseYear {
		return 0
	}
	return year - inv.PurchaseYear
}

// ReturnPercentage is the gain over the purchase price in percent.
func (inv *Investment) ReturnPercentage() float64 {
	if inv.PurchasePrice <= 0 {
		return 0
	}
	return (inv.CurrentValue - inv.PurchasePrice) / inv.PurchasePrice * 100
}

func (inv *Investment) SaveID() string { return inv.ID }

func (inv *Investment) Save(c *save.Context) error {
	c.WriteString("id", inv.ID)
	c.WriteString("name", inv.Name)
	c.WriteString("description", inv.Description)
	c.WriteString("region-id", inv.RegionID)
	c.WriteInt("asset-class", int64(inv.Class))
	c.WriteUint("risk-level", uint64(inv.Risk))
	c.WriteUint("purchase-year", inv.PurchaseYear)
	c.WriteDouble("purchase-price", inv.PurchasePrice)
	c.WriteDouble("current-value", inv.CurrentValue)
	return nil
}

func (inv *Investment) Load(c *save.Context) error {
	inv.ID = c.ReadString("id", "")
	if inv.ID == "" {
		return errors.New("investment without id")
	}
	inv.Name = c.ReadString("name", "Unknown Investment")
	inv.Description = c.ReadString("description", "")
	inv.RegionID = c.ReadString("region-id", "")
	class := c.ReadInt("asset-class", int64(Property))
	if class < 0 || class > int64(Dark) {
		class = int64(Property)
	}
	inv.Class = AssetClass(class)
	risk := c.ReadUint("risk-level", uint64(Medium))
	if risk > uint64(Extreme) {
		risk = uint64(Medium)
	}
	inv.Risk = RiskLevel(risk)
	inv.PurchaseYear = c.ReadUint("purchase-year", 847)
	inv.PurchasePrice = c.ReadDouble("purchase-price", 1000)
	inv.CurrentValue = c.ReadDouble("current-value", inv.PurchasePrice)
	return nil
}
