// internal/ai/manager.go
//
// AgentManager owns the lifecycle of every AI agent in this process. It is
// passed by reference to whatever embeds the adapter (the HTTP server here);
// there is no ambient global registry.

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/partyroom/codenames/internal/game"
	"github.com/partyroom/codenames/internal/llm"
	"github.com/partyroom/codenames/internal/store"
)

// ErrNoProvider means no reasoning provider is configured; AI seats are
// unavailable but the rest of the service is unaffected.
var ErrNoProvider = errors.New("ai: no reasoning provider configured")

// ProbeStatus classifies the pre-join readiness check.
type ProbeStatus string

const (
	ProbeReady   ProbeStatus = "ready"
	ProbeWarning ProbeStatus = "warning"
	ProbeError   ProbeStatus = "error"
)

// Probe issues one reasoning call with a fixed prompt and classifies the
// literal trimmed response: the exact expected token is ready, any other
// non-empty response is a warning, and a call failure is an error.
func Probe(ctx context.Context, c llm.Completer) ProbeStatus {
	out, err := c.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: probePrompt}}, llm.Options{})
	if err != nil {
		log.Warn().Err(err).Msg("ai: readiness probe failed")
		return ProbeError
	}
	if strings.TrimSpace(out) == probeExpect {
		return ProbeReady
	}
	log.Warn().Str("response", strings.TrimSpace(out)).Msg("ai: probe returned unexpected response")
	return ProbeWarning
}

// Manager registers and unregisters agents.
type Manager struct {
	base  context.Context // agents live until this ends or they are removed
	store store.Store
	llm   llm.Completer

	mu     sync.Mutex
	agents map[string]*Agent // keyed by agent player id
}

// NewManager constructs a Manager. ctx is the base context every agent's
// lifetime derives from; it must outlive the spawn requests (the process
// shutdown context, in practice). completer may be nil, in which case Spawn
// always fails with ErrNoProvider.
func NewManager(ctx context.Context, st store.Store, completer llm.Completer) *Manager {
	return &Manager{base: ctx, store: st, llm: completer, agents: make(map[string]*Agent)}
}

// Spawn probes the provider, seats a new agent in the lobby, and registers
// it. A probe error refuses the spawn; a probe warning seats the agent but
// skips the automatic ready-up. ctx bounds only the probe: the seated agent
// runs on the manager's base context, so a caller's request context ending
// does not kill it.
func (m *Manager) Spawn(ctx context.Context, lobbyID string, team game.Team, mode game.AIMode, name string) (*Agent, ProbeStatus, error) {
	if m.llm == nil {
		return nil, ProbeError, ErrNoProvider
	}
	if !team.Valid() {
		return nil, "", fmt.Errorf("ai: agents only join playing teams, got %q", team)
	}
	if mode != game.AIHelper && mode != game.AIAutonomous {
		return nil, "", fmt.Errorf("ai: unknown mode %q", mode)
	}

	status := Probe(ctx, m.llm)
	if status == ProbeError {
		return nil, status, errors.New("ai: reasoning provider is unreachable")
	}

	id := uuid.NewString()
	if name = strings.TrimSpace(name); name == "" {
		name = "Scout-" + id[:4]
	}

	agent := newAgent(m.store, m.llm, lobbyID, team, mode, id, name)
	agent.Gone = func() { m.Remove(id) }

	if err := agent.Start(m.base, status == ProbeReady); err != nil {
		return nil, status, err
	}

	m.mu.Lock()
	m.agents[id] = agent
	m.mu.Unlock()
	log.Info().Str("agent", name).Str("lobby", lobbyID).Str("mode", string(mode)).Msg("ai: agent seated")
	return agent, status, nil
}

// Remove stops and unregisters one agent.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	agent, ok := m.agents[id]
	delete(m.agents, id)
	m.mu.Unlock()
	if ok {
		agent.Stop()
		log.Info().Str("agent", agent.Name).Msg("ai: agent removed")
	}
}

// StopAll stops every registered agent (process shutdown).
func (m *Manager) StopAll() {
	m.mu.Lock()
	agents := make([]*Agent, 0, len(m.agents))
	for _, a := range m.agents {
		agents = append(agents, a)
	}
	m.agents = make(map[string]*Agent)
	m.mu.Unlock()
	for _, a := range agents {
		a.Stop()
	}
}

// Count reports how many agents are registered (diagnostics).
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.agents)
}
