package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&Match{},
	&TankState{},
	&ProjectileState{},
	&ShotEvent{},
	&HitEvent{},
	&KillEvent{},
	&ProjectileTrack{},
}

// Match is one recorded simulation run.
type Match struct {
	ID               uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt        time.Time      `json:"createdAt"`
	Name             string         `json:"name" gorm:"size:200"`
	StartTime        time.Time      `json:"startTime"`
	TickSeconds      float64        `json:"tickSeconds"`
	Wind             int8           `json:"wind"`
	Rules            datatypes.JSON `json:"rules"` // gravity, hit radius and damage in effect
	ExtensionVersion string         `json:"extensionVersion" gorm:"size:64"`
	Tag              string         `json:"tag" gorm:"size:127"`
	EndTick          uint           `json:"endTick"`
}

func (*Match) TableName() string {
	return "matches"
}

// TankState is a tank snapshot at the end of a tick.
type TankState struct {
	ID           uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time  `json:"time"`
	MatchID      uint       `json:"matchId" gorm:"index:idx_tankstate_match_id"`
	Match        Match      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Tick         uint       `json:"tick" gorm:"index:idx_tankstate_tick"`
	TankIndex    int        `json:"tankIndex"`
	Health       int8       `json:"health"`
	BarrelAngle  int8       `json:"barrelAngle"`
	BarrelLength float64    `json:"barrelLength"`
	Position     geom.Point `json:"position"`
	Alive        bool       `json:"alive"`
}

func (*TankState) TableName() string {
	return "tank_states"
}

// ProjectileState is a projectile snapshot at the end of a tick.
type ProjectileState struct {
	ID              uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time            time.Time  `json:"time"`
	MatchID         uint       `json:"matchId" gorm:"index:idx_projectilestate_match_id"`
	Match           Match      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Tick            uint       `json:"tick" gorm:"index:idx_projectilestate_tick"`
	ProjectileIndex int        `json:"projectileIndex"`
	Position        geom.Point `json:"position"`
	VelocityX       float64    `json:"velocityX"`
	VelocityY       float64    `json:"velocityY"`
}

func (*ProjectileState) TableName() string {
	return "projectile_states"
}

// ShotEvent records a tank firing.
type ShotEvent struct {
	ID        uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time  `json:"time"`
	MatchID   uint       `json:"matchId" gorm:"index:idx_shotevent_match_id"`
	Match     Match      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Tick      uint       `json:"tick"`
	TankIndex int        `json:"tankIndex"`
	Power     int8       `json:"power"`
	Origin    geom.Point `json:"origin"` // barrel tip
	VelocityX float64    `json:"velocityX"`
	VelocityY float64    `json:"velocityY"`
}

func (*ShotEvent) TableName() string {
	return "shot_events"
}

// HitEvent records a projectile striking a tank.
type HitEvent struct {
	ID              uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	Time            time.Time  `json:"time"`
	MatchID         uint       `json:"matchId" gorm:"index:idx_hitevent_match_id"`
	Match           Match      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Tick            uint       `json:"tick"`
	TankIndex       int        `json:"tankIndex"`
	ProjectileIndex int        `json:"projectileIndex"`
	Position        geom.Point `json:"position"`
	Distance        float64    `json:"distance"`
	HealthBefore    int8       `json:"healthBefore"`
	HealthAfter     int8       `json:"healthAfter"`
}

func (*HitEvent) TableName() string {
	return "hit_events"
}

// KillEvent records a tank's transition from alive to dead.
type KillEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time"`
	MatchID   uint      `json:"matchId" gorm:"index:idx_killevent_match_id"`
	Match     Match     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Tick      uint      `json:"tick"`
	TankIndex int       `json:"tankIndex"`
}

func (*KillEvent) TableName() string {
	return "kill_events"
}

// ProjectileTrack is the full flight path of one projectile, written when the match ends.
type ProjectileTrack struct {
	ID              uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID         uint            `json:"matchId" gorm:"index:idx_projectiletrack_match_id"`
	Match           Match           `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	ProjectileIndex int             `json:"projectileIndex"`
	FirstTick       uint            `json:"firstTick"`
	LastTick        uint            `json:"lastTick"`
	Path            geom.LineString `json:"-"`
}

func (*ProjectileTrack) TableName() string {
	return "projectile_tracks"
}
