// pkg/core/projectile.go
package core

// Projectile is one in-flight shot.
type Projectile struct {
	Position     Position `json:"position"`
	Velocity     Vector   `json:"velocity"`
	Acceleration Vector   `json:"acceleration"`
}

// NewProjectile creates a projectile from its kinematic state
func NewProjectile(position Position, velocity, acceleration Vector) Projectile {
	return Projectile{
		Position:     position,
		Velocity:     velocity,
		Acceleration: acceleration,
	}
}

// Update advances the projectile by dt seconds using explicit Euler integration.
// Position moves by the velocity held before this step; only then is the velocity
// advanced by the acceleration. Swapping the two changes the trajectory.
func (p Projectile) Update(dt float64) Projectile {
	return Projectile{
		Position:     p.Position.Add(p.Velocity.Times(dt)),
		Velocity:     p.Velocity.Add(p.Acceleration.Times(dt)),
		Acceleration: p.Acceleration,
	}
}
