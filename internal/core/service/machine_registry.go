package service

import (
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

const defaultMachineCacheSize = 1024

// MachineFactory builds an unstarted auth machine for a browser session.
type MachineFactory func(sessionID string) *AuthMachine

// MachineRegistry holds one auth machine per browser session. Machines are
// started on first use and torn down when evicted, removed or purged.
type MachineRegistry struct {
	mu       sync.Mutex
	machines *lru.Cache[string, *AuthMachine]
	factory  MachineFactory
	log      zerolog.Logger
}

var _ ports.AuthStates = (*MachineRegistry)(nil)

// NewMachineRegistry returns a registry holding at most size machines.
func NewMachineRegistry(size int, factory MachineFactory, log zerolog.Logger) (*MachineRegistry, error) {
	if factory == nil {
		return nil, errors.New("machine registry: factory is required")
	}
	if size <= 0 {
		size = defaultMachineCacheSize
	}

	r := &MachineRegistry{factory: factory, log: log}
	cache, err := lru.NewWithEvict(size, func(sessionID string, m *AuthMachine) {
		m.Close()
		metrics.AuthMachinesActive.Dec()
	})
	if err != nil {
		return nil, err
	}
	r.machines = cache
	return r, nil
}

// Get returns the machine of sessionID, creating and starting it if needed.
func (r *MachineRegistry) Get(sessionID string) (ports.AuthStateReader, error) {
	return r.machine(sessionID)
}

func (r *MachineRegistry) machine(sessionID string) (*AuthMachine, error) {
	if sessionID == "" {
		return nil, errors.New("machine registry: empty session id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.machines.Get(sessionID); ok {
		return m, nil
	}

	m := r.factory(sessionID)
	m.Start()
	r.machines.Add(sessionID, m)
	metrics.AuthMachinesActive.Inc()
	r.log.Debug().Str("session", shortID(sessionID)).Int("machines", r.machines.Len()).Msg("auth machine started")
	return m, nil
}

// Remove tears down the machine of sessionID, if any. Readers still holding
// it observe a signed-out state.
func (r *MachineRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.machines.Peek(sessionID); ok {
		m.signOut()
		r.machines.Remove(sessionID)
	}
}

// Len reports the number of live machines.
func (r *MachineRegistry) Len() int {
	return r.machines.Len()
}

// Purge tears down every machine.
func (r *MachineRegistry) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines.Purge()
}
