// pkg/core/match.go
package core

import "time"

// Match is one recorded simulation run
type Match struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	StartTime        time.Time `json:"startTime"`
	TickSeconds      float64   `json:"tickSeconds"`
	Wind             int8      `json:"wind"`
	Rules            Rules     `json:"rules"`
	ExtensionVersion string    `json:"extensionVersion"`
	Tag              string    `json:"tag"`
}

// TankState is a tank's snapshot at the end of a tick
type TankState struct {
	MatchID      uint      `json:"matchId"`
	Time         time.Time `json:"time"`
	Tick         uint      `json:"tick"`
	TankIndex    int       `json:"tankIndex"`
	Health       int8      `json:"health"`
	BarrelAngle  int8      `json:"barrelAngle"`
	BarrelLength float64   `json:"barrelLength"`
	Position     Position  `json:"position"`
	Alive        bool      `json:"alive"`
}

// ProjectileState is a projectile's snapshot at the end of a tick
type ProjectileState struct {
	MatchID         uint      `json:"matchId"`
	Time            time.Time `json:"time"`
	Tick            uint      `json:"tick"`
	ProjectileIndex int       `json:"projectileIndex"`
	Position        Position  `json:"position"`
	Velocity        Vector    `json:"velocity"`
}

// ShotEvent records a tank firing
type ShotEvent struct {
	MatchID    uint       `json:"matchId"`
	Time       time.Time  `json:"time"`
	Tick       uint       `json:"tick"`
	TankIndex  int        `json:"tankIndex"`
	Power      int8       `json:"power"`
	Projectile Projectile `json:"projectile"`
}

// HitEvent records a projectile striking a tank
type HitEvent struct {
	MatchID         uint      `json:"matchId"`
	Time            time.Time `json:"time"`
	Tick            uint      `json:"tick"`
	TankIndex       int       `json:"tankIndex"`
	ProjectileIndex int       `json:"projectileIndex"`
	Position        Position  `json:"position"`
	Distance        float64   `json:"distance"`
	HealthBefore    int8      `json:"healthBefore"`
	HealthAfter     int8      `json:"healthAfter"`
}

// KillEvent records a tank going from alive to dead
type KillEvent struct {
	MatchID   uint      `json:"matchId"`
	Time      time.Time `json:"time"`
	Tick      uint      `json:"tick"`
	TankIndex int       `json:"tankIndex"`
}

// UploadMetadata describes an exported recording for the web frontend
type UploadMetadata struct {
	MatchName string
	Duration  float64 // seconds of simulated time
	Tag       string
}

// HitEventFromImpact converts an Impact reported by World.Step.
func HitEventFromImpact(matchID uint, tick uint, at time.Time, im Impact) HitEvent {
	return HitEvent{
		MatchID:         matchID,
		Time:            at,
		Tick:            tick,
		TankIndex:       im.TankIndex,
		ProjectileIndex: im.ProjectileIndex,
		Position:        im.Position,
		Distance:        im.Distance,
		HealthBefore:    im.HealthBefore,
		HealthAfter:     im.HealthAfter,
	}
}
