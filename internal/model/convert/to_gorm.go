// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/OCAP2/artillery/internal/geo"
	"github.com/OCAP2/artillery/internal/model"
	"github.com/OCAP2/artillery/pkg/core"
	"github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// point stores non-finite positions as an empty point so the row is still written.
func point(p core.Position) geom.Point {
	pt, err := geo.PointFromPosition(p)
	if err != nil {
		return geom.Point{}
	}
	return pt
}

// rulesToJSON stores the rule set as a JSON document.
func rulesToJSON(r core.Rules) datatypes.JSON {
	data, err := json.Marshal(r)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// CoreToMatch converts a core.Match to a GORM model.Match.
func CoreToMatch(m core.Match) model.Match {
	return model.Match{
		ID:               m.ID,
		Name:             m.Name,
		StartTime:        m.StartTime,
		TickSeconds:      m.TickSeconds,
		Wind:             m.Wind,
		Rules:            rulesToJSON(m.Rules),
		ExtensionVersion: m.ExtensionVersion,
		Tag:              m.Tag,
	}
}

// CoreToTankState converts a core.TankState to a GORM model.TankState.
func CoreToTankState(s core.TankState) model.TankState {
	return model.TankState{
		Time:         s.Time,
		MatchID:      s.MatchID,
		Tick:         s.Tick,
		TankIndex:    s.TankIndex,
		Health:       s.Health,
		BarrelAngle:  s.BarrelAngle,
		BarrelLength: s.BarrelLength,
		Position:     point(s.Position),
		Alive:        s.Alive,
	}
}

// CoreToProjectileState converts a core.ProjectileState to a GORM model.ProjectileState.
func CoreToProjectileState(s core.ProjectileState) model.ProjectileState {
	return model.ProjectileState{
		Time:            s.Time,
		MatchID:         s.MatchID,
		Tick:            s.Tick,
		ProjectileIndex: s.ProjectileIndex,
		Position:        point(s.Position),
		VelocityX:       s.Velocity.X,
		VelocityY:       s.Velocity.Y,
	}
}

// CoreToShotEvent converts a core.ShotEvent to a GORM model.ShotEvent.
func CoreToShotEvent(e core.ShotEvent) model.ShotEvent {
	return model.ShotEvent{
		Time:      e.Time,
		MatchID:   e.MatchID,
		Tick:      e.Tick,
		TankIndex: e.TankIndex,
		Power:     e.Power,
		Origin:    point(e.Projectile.Position),
		VelocityX: e.Projectile.Velocity.X,
		VelocityY: e.Projectile.Velocity.Y,
	}
}

// CoreToHitEvent converts a core.HitEvent to a GORM model.HitEvent.
func CoreToHitEvent(e core.HitEvent) model.HitEvent {
	return model.HitEvent{
		Time:            e.Time,
		MatchID:         e.MatchID,
		Tick:            e.Tick,
		TankIndex:       e.TankIndex,
		ProjectileIndex: e.ProjectileIndex,
		Position:        point(e.Position),
		Distance:        e.Distance,
		HealthBefore:    e.HealthBefore,
		HealthAfter:     e.HealthAfter,
	}
}

// CoreToKillEvent converts a core.KillEvent to a GORM model.KillEvent.
func CoreToKillEvent(e core.KillEvent) model.KillEvent {
	return model.KillEvent{
		Time:      e.Time,
		MatchID:   e.MatchID,
		Tick:      e.Tick,
		TankIndex: e.TankIndex,
	}
}

// TrackFromStates folds the recorded states of one projectile into a flight path.
// states must belong to the same projectile and be in tick order.
func TrackFromStates(matchID uint, states []core.ProjectileState) model.ProjectileTrack {
	track := model.ProjectileTrack{MatchID: matchID}
	if len(states) == 0 {
		return track
	}
	path := make([]core.Position, len(states))
	for i, s := range states {
		path[i] = s.Position
	}
	track.ProjectileIndex = states[0].ProjectileIndex
	track.FirstTick = states[0].Tick
	track.LastTick = states[len(states)-1].Tick
	// a shell that never moved has no line; keep the row with an empty path
	if ls, err := geo.LineStringFromPositions(path); err == nil {
		track.Path = ls
	}
	return track
}
