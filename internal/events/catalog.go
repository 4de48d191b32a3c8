package events

import "github.com/copyleft-games/lichs-portfolio/internal/economy"

// template is one row of the fixed event catalog.
type template struct {
	name        string
	description string
	effect      Effect
}

// tier maps a severity onto a catalog column. Major and Catastrophic
// events draw from the same rows.
func tier(s Severity) int {
	switch s {
	case Minor:
		return 0
	case Moderate:
		return 1
	}
	return 2
}

const templatesPerTier = 4

func econ(m float64, c economy.AssetClass) Effect {
	return &EconomicEffect{MarketModifier: m, Class: c}
}

func poli(impact int, war bool) Effect {
	return &PoliticalEffect{StabilityImpact: impact, CausesWar: war}
}

func magi(impact int, dark bool) Effect {
	return &MagicalEffect{ExposureImpact: impact, AffectsDark: dark}
}

func pers(betrayal, death bool) Effect {
	return &PersonalEffect{Betrayal: betrayal, Death: death}
}

var catalog = [4][3][templatesPerTier]template{
	Economic: {
		{
			{"Trade Fair", "A regional trade fair boosts commerce", econ(1.05, economy.Trade)},
			{"Poor Harvest", "A below-average harvest affects food prices", econ(0.95, economy.Property)},
			{"New Mine Discovery", "A new vein of ore is discovered", econ(1.08, economy.AnyClass)},
			{"Tax Increase", "Local taxes are raised slightly", econ(0.97, economy.Property)},
		},
		{
			{"Trade Route Opens", "A new trade route brings prosperity", econ(1.15, economy.Trade)},
			{"Banking Crisis", "Several money lenders fail", econ(0.85, economy.Financial)},
			{"Resource Boom", "Valuable resources flood the market", econ(1.20, economy.AnyClass)},
			{"Trade Embargo", "Political tensions disrupt trade", econ(0.80, economy.Trade)},
		},
		{
			{"Market Crash", "Financial markets collapse", econ(0.60, economy.AnyClass)},
			{"Golden Age", "Unprecedented prosperity sweeps the land", econ(1.40, economy.AnyClass)},
			{"Currency Devaluation", "The currency loses significant value", econ(0.70, economy.Financial)},
			{"Discovery of New Lands", "New territories bring vast opportunity", econ(1.50, economy.Trade)},
		},
	},
	Political: {
		{
			{"Noble Scandal", "A minor noble is caught in scandal", poli(-5, false)},
			{"Royal Proclamation", "The crown issues new edicts", poli(5, false)},
			{"Border Skirmish", "Minor conflict on the frontier", poli(-10, false)},
			{"Diplomatic Visit", "Foreign dignitaries improve relations", poli(10, false)},
		},
		{
			{"Succession Dispute", "Questions arise about the line of succession", poli(-25, false)},
			{"Reform Movement", "Calls for change sweep the populace", poli(-15, false)},
			{"Alliance Formed", "A powerful alliance is announced", poli(20, false)},
			{"Peasant Unrest", "The common folk grow restless", poli(-20, false)},
		},
		{
			{"Civil War", "The realm tears itself apart", poli(-50, true)},
			{"Revolution", "The old order is overthrown", poli(-60, true)},
			{"Conquest", "Foreign armies march on the capital", poli(-40, true)},
			{"Golden Peace", "A century-long peace treaty is signed", poli(50, false)},
		},
	},
	Magical: {
		{
			{"Strange Lights", "Unusual lights seen in the sky", magi(5, false)},
			{"Witch Accusations", "Rumors of witchcraft spread", magi(10, false)},
			{"Blessed Harvest", "The harvest is miraculously bountiful", magi(-5, false)},
			{"Cursed Well", "A village well turns bitter", magi(8, true)},
		},
		{
			{"Artifact Discovered", "An ancient artifact is unearthed", magi(20, true)},
			{"Magical Plague", "A mysterious illness spreads", magi(25, true)},
			{"Divine Vision", "A saint receives a holy vision", magi(-15, false)},
			{"Demonic Sighting", "Reports of demon activity", magi(30, true)},
		},
		{
			{"The Veil Thins", "The barrier between worlds weakens", magi(50, true)},
			{"Divine Intervention", "The gods manifest their power", magi(-40, false)},
			{"Magical Catastrophe", "A spell goes terribly wrong", magi(60, true)},
			{"Age of Miracles", "Magic becomes commonplace", magi(40, true)},
		},
	},
	Personal: {
		{
			{"Agent Illness", "One of your agents falls ill", pers(false, false)},
			{"Agent Promotion", "An agent gains influence", pers(false, false)},
			{"Family Dispute", "Quarrel among your servants", pers(false, false)},
			{"New Contact", "An agent makes a valuable connection", pers(false, false)},
		},
		{
			{"Agent Investigated", "Authorities take interest in an agent", pers(false, false)},
			{"Wavering Loyalty", "An agent questions their service", pers(true, false)},
			{"Agent Marriage", "An agent's family grows", pers(false, false)},
			{"Agent Accident", "Serious injury befalls an agent", pers(false, false)},
		},
		{
			{"Betrayal", "An agent reveals secrets to your enemies", pers(true, false)},
			{"Agent Death", "A valued servant meets their end", pers(false, true)},
			{"Inquisitor Interest", "Church investigators target your network", pers(true, false)},
			{"Martyr's End", "An agent dies protecting your secrets", pers(true, true)},
		},
	},
}

// cloneEffect copies a catalog effect so events never share state with
// the table.
func cloneEffect(eff Effect) Effect {
	switch x := eff.(type) {
	case *EconomicEffect:
		c := *x
		return &c
	case *PoliticalEffect:
		c := *x
		return &c
	case *MagicalEffect:
		c := *x
		return &c
	case *PersonalEffect:
		c := *x
		return &c
	}
	panic("events: unknown effect type")
}
