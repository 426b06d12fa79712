// Package monitor periodically snapshots the running match into a status file.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/artillery/internal/storage"
	"github.com/OCAP2/artillery/pkg/core"
)

// DefaultInterval is used when Dependencies.Interval is zero.
const DefaultInterval = time.Second

// Source is what the monitor reads; *sim.Session satisfies it.
type Source interface {
	World() core.World
	Tick() uint
	Match() (core.Match, bool)
	Backend() storage.Backend
}

// PendingWriter is implemented by backends that buffer writes.
type PendingWriter interface {
	Pending() int
}

// WriteDurationProvider is implemented by backends that time their flushes.
type WriteDurationProvider interface {
	LastWriteDuration() time.Duration
}

// Status is one snapshot of the program state.
type Status struct {
	Time                time.Time `json:"time"`
	Running             bool      `json:"running"`
	MatchID             uint      `json:"matchId"`
	MatchName           string    `json:"matchName"`
	Tick                uint      `json:"tick"`
	Tanks               int       `json:"tanks"`
	TanksAlive          int       `json:"tanksAlive"`
	Projectiles         int       `json:"projectiles"`
	PendingWrites       int       `json:"pendingWrites"`
	LastWriteDurationMs float64   `json:"lastWriteDurationMs"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source     Source
	Logger     *slog.Logger
	StatusPath string // status file, rewritten every interval; empty disables the file
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current program status
func (s *Service) GetStatus() Status {
	st := Status{Time: time.Now()}

	m, running := s.deps.Source.Match()
	st.Running = running
	if running {
		st.MatchID = m.ID
		st.MatchName = m.Name
	}
	st.Tick = s.deps.Source.Tick()

	w := s.deps.Source.World()
	st.Tanks = len(w.Tanks)
	st.TanksAlive = w.AliveCount()
	st.Projectiles = len(w.Projectiles)

	backend := s.deps.Source.Backend()
	if p, ok := backend.(PendingWriter); ok {
		st.PendingWrites = p.Pending()
	}
	if p, ok := backend.(WriteDurationProvider); ok {
		st.LastWriteDurationMs = float64(p.LastWriteDuration().Microseconds()) / 1000
	}
	return st
}

// WriteStatus writes the current status to the status file.
func (s *Service) WriteStatus() error {
	if s.deps.StatusPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling status: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.deps.StatusPath), 0o755); err != nil {
		return fmt.Errorf("error creating status dir: %w", err)
	}
	if err := os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("error writing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, running := s.deps.Source.Match(); !running {
					continue
				}
				if err := s.WriteStatus(); err != nil {
					s.deps.Logger.Error("Error writing status", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor, writes a final status and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	if err := s.WriteStatus(); err != nil {
		s.deps.Logger.Error("Error writing status", "error", err)
	}
}
