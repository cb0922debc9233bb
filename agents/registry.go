// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package agents

import (
	"fmt"
	"sort"
	"sync"

	"relaycrm/governance/shared/logger"
)

// Registry is the in-memory agent catalog. Registration replaces by id;
// there is no removal, profiles live for the process lifetime.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	log      *logger.Logger
}

// NewRegistry creates a registry pre-populated with the builtin profiles.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.New("agents")
	}
	r := &Registry{
		profiles: make(map[string]Profile),
		log:      log,
	}
	for _, p := range BuiltinProfiles() {
		r.profiles[p.ID] = p
	}
	return r
}

// Register adds or replaces a profile. ID, Name, SystemPrompt, and Model are
// required.
func (r *Registry) Register(p Profile) error {
	if p.ID == "" {
		return fmt.Errorf("agent profile requires an id")
	}
	if p.Name == "" {
		return fmt.Errorf("agent %q requires a name", p.ID)
	}
	if p.SystemPrompt == "" {
		return fmt.Errorf("agent %q requires a system prompt", p.ID)
	}
	if p.Model == "" {
		return fmt.Errorf("agent %q requires a model", p.ID)
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 2048
	}

	r.mu.Lock()
	_, replaced := r.profiles[p.ID]
	r.profiles[p.ID] = p
	r.mu.Unlock()

	r.log.Info("", "", "agent profile registered", map[string]interface{}{
		"agent_id": p.ID,
		"model":    p.Model,
		"replaced": replaced,
	})
	return nil
}

// Get returns the profile for an agent id.
func (r *Registry) Get(id string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	return p, ok
}

// List returns all profiles sorted by id.
func (r *Registry) List() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
