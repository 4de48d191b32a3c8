package agents

import (
	"log/slog"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// Individual is a single mortal agent. They may train one successor, who
// takes over their work when they die.
type Individual struct {
	Core
	Successor *Individual
	// Training is the successor's progress, 0..1.
	Training float64
}

// NewIndividual returns a 25-year-old agent with middling stats.
func NewIndividual(id, name string) *Individual {
	return &Individual{Core: newCore(id, name)}
}

func (a *Individual) Type() Type { return TypeIndividual }

func (a *Individual) SetSink(s notice.Sink) {
	a.Core.SetSink(s)
	if a.Successor != nil {
		a.Successor.SetSink(s)
	}
}

// YearPassed ages the agent and, while they live, trains their successor.
func (a *Individual) YearPassed(rng entropy.Source, aging Aging) {
	if !a.Alive() {
		return
	}
	if died := a.ageOneYear(rng, aging); died {
		return
	}
	if a.Successor != nil && a.Training < 1 {
		a.TrainSuccessor(1)
	}
}

// CanRecruit is false once a successor is chosen.
func (a *Individual) CanRecruit() bool {
	return a.Successor == nil && a.Core.CanRecruit()
}

// SetSuccessor names an heir and restarts their training.
func (a *Individual) SetSuccessor(s *Individual) {
	if a.Successor == s {
		return
	}
	a.Successor = s
	a.Training = 0
	if s != nil {
		s.SetSink(a.sink)
		slog.Debug("successor named", "agent", a.ID, "successor", s.ID)
	}
}

// SetTraining clamps progress into [0, 1], announcing completion.
func (a *Individual) SetTraining(p float64) {
	p = min(1, max(0, p))
	was := a.Training >= 1
	a.Training = p
	if !was && p >= 1 && a.Successor != nil {
		a.notify(notice.SuccessorTrained, a.Successor.ID, "", "")
	}
}

// HasTrainedSuccessor reports whether the heir is ready.
func (a *Individual) HasTrainedSuccessor() bool {
	return a.Successor != nil && a.Training >= 1
}

// TrainSuccessor advances training by the given number of years. Better
// mentors train faster: 5% a year at no competence, 20% at full.
func (a *Individual) TrainSuccessor(years uint) {
	if a.Successor == nil || a.Training >= 1 {
		return
	}
	perYear := 0.05 + float64(a.Competence)/100*0.15
	a.SetTraining(a.Training + perYear*float64(years))
}

// SkillRetention is the share of the agent's competence that passes on.
func (a *Individual) SkillRetention() float64 {
	if a.Successor == nil {
		return 0.25
	}
	return 0.25 + a.Training*0.5
}

// RecruitSuccessor finds and names a new heir. It returns nil when the
// agent cannot recruit.
func (a *Individual) RecruitSuccessor(rng entropy.Source) *Individual {
	if !a.CanRecruit() {
		slog.Debug("agent cannot recruit", "agent", a.ID)
		return nil
	}
	s := Recruit(rng)
	a.SetSuccessor(s)
	return s
}

// ProcessSuccession hands competence and assignments to the successor
// and returns them, or nil when there is no one to inherit.
func (a *Individual) ProcessSuccession() *Individual {
	s := a.Successor
	if s == nil {
		slog.Debug("agent died without a successor", "agent", a.ID)
		return nil
	}
	transferred := int(float64(a.Competence) * a.SkillRetention())
	s.SetCompetence(max(transferred, s.Competence))
	for _, id := range a.Investments {
		s.AssignInvestment(id)
	}
	a.Investments = nil
	a.Successor = nil
	a.Training = 0
	slog.Debug("succession", "from", a.ID, "to", s.ID, "competence", s.Competence)
	return s
}

func (a *Individual) Save(c *save.Context) error {
	if err := a.saveCore(c, TypeIndividual); err != nil {
		return err
	}
	c.WriteDouble("training-progress", a.Training)
	if a.Successor != nil {
		return save.WriteSection(c, "successor", a.Successor)
	}
	return nil
}

func (a *Individual) Load(c *save.Context) error {
	if err := a.loadCore(c); err != nil {
		return err
	}
	a.Successor = nil
	if c.HasSection("successor") {
		s := &Individual{}
		if err := save.ReadSection(c, "successor", s); err != nil {
			return err
		}
		a.Successor = s
	}
	a.Training = min(1, max(0, c.ReadDouble("training-progress", 0)))
	return nil
}
