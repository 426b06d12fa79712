package convert

import (
	"encoding/json"

	"github.com/OCAP2/artillery/internal/geo"
	"github.com/OCAP2/artillery/internal/model"
	"github.com/OCAP2/artillery/pkg/core"
)

// MatchToCore converts a GORM model.Match to a core.Match.
// Unreadable rules fall back to the defaults.
func MatchToCore(m model.Match) core.Match {
	rules := core.DefaultRules()
	if len(m.Rules) > 0 {
		var r core.Rules
		if err := json.Unmarshal(m.Rules, &r); err == nil {
			rules = r
		}
	}
	return core.Match{
		ID:               m.ID,
		Name:             m.Name,
		StartTime:        m.StartTime,
		TickSeconds:      m.TickSeconds,
		Wind:             m.Wind,
		Rules:            rules,
		ExtensionVersion: m.ExtensionVersion,
		Tag:              m.Tag,
	}
}

// TankStateToCore converts a GORM model.TankState to a core.TankState.
func TankStateToCore(s model.TankState) core.TankState {
	return core.TankState{
		MatchID:      s.MatchID,
		Time:         s.Time,
		Tick:         s.Tick,
		TankIndex:    s.TankIndex,
		Health:       s.Health,
		BarrelAngle:  s.BarrelAngle,
		BarrelLength: s.BarrelLength,
		Position:     geo.PositionFromPoint(s.Position),
		Alive:        s.Alive,
	}
}

// HitEventToCore converts a GORM model.HitEvent to a core.HitEvent.
func HitEventToCore(e model.HitEvent) core.HitEvent {
	return core.HitEvent{
		MatchID:         e.MatchID,
		Time:            e.Time,
		Tick:            e.Tick,
		TankIndex:       e.TankIndex,
		ProjectileIndex: e.ProjectileIndex,
		Position:        geo.PositionFromPoint(e.Position),
		Distance:        e.Distance,
		HealthBefore:    e.HealthBefore,
		HealthAfter:     e.HealthAfter,
	}
}
