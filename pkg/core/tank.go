// pkg/core/tank.go
package core

import "math"

// Tank is an artillery piece standing at a fixed position.
// BarrelAngle is in degrees, counter-clockwise from the positive X axis, and is not wrapped.
type Tank struct {
	Health       int8     `json:"health"`
	BarrelAngle  int8     `json:"barrelAngle"`
	BarrelLength float64  `json:"barrelLength"`
	Position     Position `json:"position"`
}

// NewTank creates a tank with full health
func NewTank(barrelAngle int8, barrelLength float64, position Position) Tank {
	return Tank{
		Health:       FullHealth,
		BarrelAngle:  barrelAngle,
		BarrelLength: barrelLength,
		Position:     position,
	}
}

// IsAlive reports whether the tank still has health left.
func (t Tank) IsAlive() bool {
	return t.Health > 0
}

// BarrelVector returns the unit vector the barrel points along.
func (t Tank) BarrelVector() Vector {
	rad := float64(t.BarrelAngle) * math.Pi / 180
	return Vec2(math.Cos(rad), math.Sin(rad))
}

// BarrelTip returns the launch point of a shot.
func (t Tank) BarrelTip() Position {
	return t.Position.Add(t.BarrelVector().Times(t.BarrelLength))
}

// Shoot fires a projectile from the barrel tip with muzzle speed power under default gravity.
func (t Tank) Shoot(power int8) Projectile {
	return t.ShootWithGravity(power, Gravity)
}

// ShootWithGravity is Shoot with an explicit vertical acceleration.
// Power is neither clamped nor sign checked; a negative power fires backwards through the barrel.
func (t Tank) ShootWithGravity(power int8, gravity float64) Projectile {
	return Projectile{
		Position:     t.BarrelTip(),
		Velocity:     t.BarrelVector().Times(float64(power)),
		Acceleration: Vec2(0, gravity),
	}
}

// Hit returns the tank after being struck by incoming, losing HitDamage health.
// The projectile's state does not influence the damage. Health keeps falling below
// zero on further hits but saturates at math.MinInt8, so once it is under -78 a hit
// takes less than HitDamage.
func (t Tank) Hit(incoming Projectile) Tank {
	return t.HitFor(incoming, HitDamage)
}

// HitFor is Hit with an explicit damage amount.
// Health has no floor above the int8 range; it saturates at math.MinInt8 instead of
// wrapping around to a positive value.
func (t Tank) HitFor(_ Projectile, damage int8) Tank {
	health := int(t.Health) - int(damage)
	switch {
	case health < math.MinInt8:
		health = math.MinInt8
	case health > math.MaxInt8:
		health = math.MaxInt8
	}
	t.Health = int8(health)
	return t
}

// WithBarrelAngle returns the tank aimed at angle degrees.
func (t Tank) WithBarrelAngle(angle int8) Tank {
	t.BarrelAngle = angle
	return t
}
