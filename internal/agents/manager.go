package agents

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

var (
	ErrDuplicateAgent = errors.New("duplicate agent id")
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrNotIndividual  = errors.New("agent is not an individual")
	ErrDeadAgent      = errors.New("agent is already dead")
	ErrCannotRecruit  = errors.New("agent cannot recruit")
)

// Manager owns the roster and runs the agents' years.
type Manager struct {
	agents []Agent
	rng    entropy.Source
	aging  Aging
	sink   notice.Sink
}

// NewManager returns an empty roster drawing from rng.
func NewManager(rng entropy.Source) *Manager {
	return &Manager{rng: rng, aging: DefaultAging, sink: notice.Discard}
}

func (m *Manager) SetSource(rng entropy.Source) { m.rng = rng }

func (m *Manager) SetAging(a Aging) { m.aging = a }

func (m *Manager) Aging() Aging { return m.aging }

// SetSink routes the manager's and every agent's notices to s.
func (m *Manager) SetSink(s notice.Sink) {
	m.sink = notice.Or(s)
	for _, a := range m.agents {
		a.SetSink(m.sink)
	}
}

func (m *Manager) notify(kind notice.Kind, subject, detail, from, to string) {
	m.sink.Notify(notice.Notice{Kind: kind, Subject: subject, Detail: detail, From: from, To: to})
}

// Add appends an agent to the roster. Duplicate ids and individuals past
// their final year are rejected.
func (m *Manager) Add(a Agent) error {
	id := a.Base().ID
	if m.index(id) >= 0 {
		slog.Warn("rejected duplicate agent", "agent", id)
		return fmt.Errorf("add agent %s: %w", id, ErrDuplicateAgent)
	}
	if !a.Alive() {
		return fmt.Errorf("add agent %s: %w", id, ErrDeadAgent)
	}
	a.SetSink(m.sink)
	m.agents = append(m.agents, a)
	m.notify(notice.AgentAdded, id, a.Base().Name, "", "")
	return nil
}

// Remove drops an agent, reporting whether it was present.
func (m *Manager) Remove(id string) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	m.agents = slices.Delete(m.agents, i, i+1)
	m.notify(notice.AgentRemoved, id, "", "", "")
	return true
}

func (m *Manager) index(id string) int {
	return slices.IndexFunc(m.agents, func(a Agent) bool { return a.Base().ID == id })
}

// Agent returns the agent with the given id, or nil.
func (m *Manager) Agent(id string) Agent {
	if i := m.index(id); i >= 0 {
		return m.agents[i]
	}
	return nil
}

// Agents returns the roster in insertion order.
func (m *Manager) Agents() []Agent { return slices.Clone(m.agents) }

func (m *Manager) Count() int { return len(m.agents) }

// AgentIDs lists roster ids in insertion order.
func (m *Manager) AgentIDs() []string {
	ids := make([]string, len(m.agents))
	for i, a := range m.agents {
		ids[i] = a.Base().ID
	}
	return ids
}

func (m *Manager) ByType(t Type) []Agent {
	var out []Agent
	for _, a := range m.agents {
		if a.Type() == t {
			out = append(out, a)
		}
	}
	return out
}

// Available lists agents with no assigned investments.
func (m *Manager) Available() []Agent {
	var out []Agent
	for _, a := range m.agents {
		if len(a.Base().Investments) == 0 {
			out = append(out, a)
		}
	}
	return out
}

// ExposureContribution sums what the roster adds to the player's exposure.
func (m *Manager) ExposureContribution() uint {
	var total uint
	for _, a := range m.agents {
		total += a.Base().ExposureContribution()
	}
	return total
}

// RecruitSuccessor has the named individual take on an heir.
func (m *Manager) RecruitSuccessor(id string) (*Individual, error) {
	a := m.Agent(id)
	if a == nil {
		return nil, fmt.Errorf("recruit for %s: %w", id, ErrUnknownAgent)
	}
	ind, ok := a.(*Individual)
	if !ok {
		return nil, fmt.Errorf("recruit for %s: %w", id, ErrNotIndividual)
	}
	s := ind.RecruitSuccessor(m.rng)
	if s == nil {
		return nil, fmt.Errorf("recruit for %s: %w", id, ErrCannotRecruit)
	}
	return s, nil
}

// ProcessYear runs one year for every agent on the roster at its start.
// Individuals who die hand over to their successor, who takes their
// place; those without one leave the roster.
func (m *Manager) ProcessYear() {
	for _, a := range slices.Clone(m.agents) {
		wasAlive := a.Alive()
		a.YearPassed(m.rng, m.aging)
		if !wasAlive || a.Alive() {
			continue
		}
		ind, ok := a.(*Individual)
		if !ok {
			continue
		}
		m.notify(notice.AgentDied, ind.ID, ind.Name, "", "")
		m.succeed(ind)
	}
}

func (m *Manager) succeed(dead *Individual) {
	i := m.index(dead.ID)
	heir := dead.ProcessSuccession()
	if heir == nil || m.index(heir.ID) >= 0 {
		if i >= 0 {
			m.agents = slices.Delete(m.agents, i, i+1)
			m.notify(notice.AgentRemoved, dead.ID, "", "", "")
		}
		return
	}
	heir.SetSink(m.sink)
	if i >= 0 {
		m.agents[i] = heir
	} else {
		m.agents = append(m.agents, heir)
	}
	m.notify(notice.SuccessionCompleted, heir.ID, heir.Name, dead.ID, heir.ID)
}

// AdvanceYears runs ProcessYear n times.
func (m *Manager) AdvanceYears(n uint) {
	for range n {
		m.ProcessYear()
	}
}

// Reset empties the roster.
func (m *Manager) Reset() {
	m.agents = nil
}

func (m *Manager) SaveID() string { return "agent-manager" }

func (m *Manager) Save(c *save.Context) error {
	return save.WriteList(c, "agents", len(m.agents), func(i int) error {
		return m.agents[i].Save(c)
	})
}

func (m *Manager) Load(c *save.Context) error {
	m.agents = nil
	m.sink = notice.Or(m.sink)
	err := save.ReadList(c, "agents", func(int) error {
		a, err := Read(c)
		if err != nil {
			return err
		}
		if m.index(a.Base().ID) >= 0 {
			return fmt.Errorf("agent %s: %w", a.Base().ID, ErrDuplicateAgent)
		}
		a.SetSink(m.sink)
		m.agents = append(m.agents, a)
		return nil
	})
	if err != nil {
		m.agents = nil
		return err
	}
	return nil
}
