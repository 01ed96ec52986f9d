// Package phase implements the Phase Gate: a runtime-configurable
// subset of the tool catalogue exposed to clients, driven by a numeric
// tier assigned to each tool in configuration.
package phase

import (
	"fmt"
	"sync"
)

// Config maps tool name to the phase it first becomes available in.
// Loaded once at startup from YAML.
type Config struct {
	MaxPhase int            `yaml:"max_phase"`
	Tools    map[string]int `yaml:"tools"`
}

// Gate tracks the current phase and caches the exposed tool subset.
type Gate struct {
	mu           sync.RWMutex
	cfg          Config
	currentPhase int
	cachedSet    map[string]struct{}
}

// NewGate builds a Gate at the given starting phase.
func NewGate(cfg Config, startPhase int) (*Gate, error) {
	g := &Gate{cfg: cfg}
	if err := g.SetPhase(startPhase); err != nil {
		return nil, err
	}
	return g, nil
}

// SetPhase validates and installs a new current phase, invalidating the
// cached exposed subset.
func (g *Gate) SetPhase(phase int) error {
	if phase < 1 || (g.cfg.MaxPhase > 0 && phase > g.cfg.MaxPhase) {
		return fmt.Errorf("phase %d outside valid range [1..%d]", phase, g.cfg.MaxPhase)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentPhase = phase
	g.cachedSet = g.computeExposedSet(phase)
	return nil
}

// CurrentPhase returns the active phase.
func (g *Gate) CurrentPhase() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.currentPhase
}

func (g *Gate) computeExposedSet(phase int) map[string]struct{} {
	set := make(map[string]struct{}, len(g.cfg.Tools))
	for tool, toolPhase := range g.cfg.Tools {
		if toolPhase <= phase {
			set[tool] = struct{}{}
		}
	}
	return set
}

// IsExposed reports whether tool is in the cached exposed subset. A tool
// absent from the phase map is treated as always exposed (phase 0): the
// default-open catalogue before any phase configuration narrows it.
func (g *Gate) IsExposed(tool string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, configured := g.cfg.Tools[tool]; !configured {
		return true
	}
	_, ok := g.cachedSet[tool]
	return ok
}

// ExposedTools returns the tools of allTools that IsExposed accepts, in the
// order of allTools: those in the cached exposed subset plus those absent
// from the phase map.
func (g *Gate) ExposedTools(allTools []string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(allTools))
	for _, t := range allTools {
		if _, configured := g.cfg.Tools[t]; !configured {
			out = append(out, t)
			continue
		}
		if _, ok := g.cachedSet[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
