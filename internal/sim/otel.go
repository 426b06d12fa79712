package sim

import (
	"context"
	"fmt"

	"github.com/OCAP2/artillery/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/artillery/internal/sim"

type metrics struct {
	ticks metric.Int64Counter
	shots metric.Int64Counter
	hits  metric.Int64Counter
	kills metric.Int64Counter
}

// newMetrics registers the session instruments on the global meter (no-op if not configured).
func newMetrics(s *Session) (*metrics, error) {
	m := otel.Meter(instrumentationName)
	out := &metrics{}

	var err error
	if out.ticks, err = m.Int64Counter("sim.ticks", metric.WithDescription("Ticks simulated")); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if out.shots, err = m.Int64Counter("sim.shots", metric.WithDescription("Projectiles fired")); err != nil {
		return nil, fmt.Errorf("creating shots counter: %w", err)
	}
	if out.hits, err = m.Int64Counter("sim.hits", metric.WithDescription("Projectile hits on tanks")); err != nil {
		return nil, fmt.Errorf("creating hits counter: %w", err)
	}
	if out.kills, err = m.Int64Counter("sim.kills", metric.WithDescription("Tanks destroyed")); err != nil {
		return nil, fmt.Errorf("creating kills counter: %w", err)
	}

	active, err := m.Int64ObservableGauge("sim.projectiles.active",
		metric.WithDescription("Projectiles in the current world"))
	if err != nil {
		return nil, fmt.Errorf("creating projectiles gauge: %w", err)
	}
	alive, err := m.Int64ObservableGauge("sim.tanks.alive",
		metric.WithDescription("Tanks with health left"))
	if err != nil {
		return nil, fmt.Errorf("creating tanks gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			w := s.World()
			o.ObserveInt64(active, int64(len(w.Projectiles)))
			o.ObserveInt64(alive, int64(w.AliveCount()))
			return nil
		},
		active, alive,
	)
	if err != nil {
		return nil, fmt.Errorf("registering world callback: %w", err)
	}
	return out, nil
}

func (m *metrics) shot() {
	m.shots.Add(context.Background(), 1)
}

func (m *metrics) stepped(impacts []core.Impact) {
	ctx := context.Background()
	m.ticks.Add(ctx, 1)
	if len(impacts) == 0 {
		return
	}
	m.hits.Add(ctx, int64(len(impacts)))
	var kills int64
	for _, im := range impacts {
		if im.Killed {
			kills++
		}
	}
	if kills > 0 {
		m.kills.Add(ctx, kills)
	}
}
