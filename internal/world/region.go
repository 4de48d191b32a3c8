// Package world holds the regions kingdoms rule and competitors contest,
// their hex layout, and noise-driven region generation.
package world

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// Geography classifies a region's land.
type Geography uint8

const (
	Coastal  Geography = iota // Trade bonus
	Inland                    // Modest resources
	Mountain                  // Minerals
	Forest                    // Cover for hidden work
	Desert                    // Rare resources, harsh
	Swamp                     // Best concealment
)

var geographyNames = [...]string{"Coastal", "Inland", "Mountain", "Forest", "Desert", "Swamp"}

func (g Geography) String() string {
	if int(g) < len(geographyNames) {
		return geographyNames[g]
	}
	return fmt.Sprintf("Geography(%d)", g)
}

// TradeBonus multiplies trade income in the region.
func (g Geography) TradeBonus() float64 {
	if g == Coastal {
		return 1.25
	}
	return 1.0
}

// ConcealmentBonus multiplies how well hidden operations stay hidden.
func (g Geography) ConcealmentBonus() float64 {
	switch g {
	case Forest:
		return 1.20
	case Swamp:
		return 1.35
	default:
		return 1.0
	}
}

// ResourceBonus multiplies resource yields.
func (g Geography) ResourceBonus() float64 {
	switch g {
	case Mountain:
		return 1.15
	case Inland:
		return 1.10
	case Desert:
		return 1.20
	default:
		return 1.0
	}
}

const (
	DefaultPopulation       = 10000
	minResourceModifier     = 0.1
	devastationNoticeFloor  = 0.5
	devastationPopulation   = 0.5
	devastationResourceLoss = 0.3
)

// Region is a named territory on the hex layout.
type Region struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Geography        Geography `json:"geography"`
	OwnerID          string    `json:"owner_id,omitempty"` // Owning kingdom; empty when unclaimed
	Population       uint64    `json:"population"`
	ResourceModifier float64   `json:"resource_modifier"`
	TradeConnected   bool      `json:"trade_connected"`
	TradeRoutes      []string  `json:"trade_routes,omitempty"`
	Coord            HexCoord  `json:"coord"`

	sink notice.Sink
}

// NewRegion returns a region with default population and resources.
func NewRegion(id, name string, geo Geography) *Region {
	return &Region{
		ID:               id,
		Name:             name,
		Geography:        geo,
		Population:       DefaultPopulation,
		ResourceModifier: 1.0,
		sink:             notice.Discard,
	}
}

func (r *Region) SetSink(s notice.Sink) { r.sink = notice.Or(s) }

// HasOwner reports whether a kingdom claims the region.
func (r *Region) HasOwner() bool { return r.OwnerID != "" }

// Devastate applies war or plague damage. severity is clamped to [0,1].
func (r *Region) Devastate(severity float64) {
	severity = math.Max(0, math.Min(1, severity))
	loss := uint64(math.Floor(float64(r.Population) * severity * devastationPopulation))
	if loss > r.Population {
		loss = r.Population
	}
	r.Population -= loss
	r.ResourceModifier = math.Max(minResourceModifier, r.ResourceModifier-severity*devastationResourceLoss)

	slog.Debug("region devastated", "region", r.ID, "severity", severity, "population_lost", loss)
	if severity >= devastationNoticeFloor {
		r.sink.Notify(notice.Notice{
			Kind:    notice.RegionDevastated,
			Subject: r.ID,
			Detail:  fmt.Sprintf("severity %.2f, %d lost", severity, loss),
		})
	}
}

// AddTradeRoute connects the region to another. Duplicates are ignored.
func (r *Region) AddTradeRoute(regionID string) {
	if regionID == "" || slices.Contains(r.TradeRoutes, regionID) {
		return
	}
	r.TradeRoutes = append(r.TradeRoutes, regionID)
	r.TradeConnected = true
}

// RemoveTradeRoute drops a connection and reports whether it existed.
func (r *Region) RemoveTradeRoute(regionID string) bool {
	i := slices.Index(r.TradeRoutes, regionID)
	if i < 0 {
		return false
	}
	r.TradeRoutes = slices.Delete(r.TradeRoutes, i, i+1)
	r.TradeConnected = len(r.TradeRoutes) > 0
	return true
}

func (r *Region) SaveID() string { return "region" }

func (r *Region) Save(c *save.Context) error {
	c.WriteString("id", r.ID)
	c.WriteString("name", r.Name)
	c.WriteUint("geography-type", uint64(r.Geography))
	c.WriteString("owning-kingdom-id", r.OwnerID)
	c.WriteUint("population", r.Population)
	c.WriteDouble("resource-modifier", r.ResourceModifier)
	c.WriteBool("trade-connected", r.TradeConnected)
	c.WriteInt("coord-q", int64(r.Coord.Q))
	c.WriteInt("coord-r", int64(r.Coord.R))
	save.WriteStrings(c, "trade-routes", r.TradeRoutes)
	return nil
}

func (r *Region) Load(c *save.Context) error {
	r.ID = c.ReadString("id", "")
	if r.ID == "" {
		return fmt.Errorf("region without id")
	}
	r.Name = c.ReadString("name", r.ID)
	geo := c.ReadUint("geography-type", uint64(Inland))
	if geo > uint64(Swamp) {
		geo = uint64(Inland)
	}
	r.Geography = Geography(geo)
	r.OwnerID = c.ReadString("owning-kingdom-id", "")
	r.Population = c.ReadUint("population", DefaultPopulation)
	r.ResourceModifier = c.ReadDouble("resource-modifier", 1.0)
	r.TradeConnected = c.ReadBool("trade-connected", false)
	r.Coord = HexCoord{Q: int(c.ReadInt("coord-q", 0)), R: int(c.ReadInt("coord-r", 0))}
	routes, err := save.ReadStrings(c, "trade-routes")
	if err != nil {
		return err
	}
	r.TradeRoutes = routes
	if r.sink == nil {
		r.sink = notice.Discard
	}
	return nil
}
