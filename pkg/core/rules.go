// pkg/core/rules.go
package core

const (
	// Gravity is the default vertical acceleration applied to every new projectile.
	Gravity = -9.81
	// HitRadius is the default distance below which a projectile strikes a tank.
	HitRadius = 1.0
	// HitDamage is the default health lost per hit.
	HitDamage int8 = 50
	// FullHealth is the health of a freshly created tank.
	FullHealth int8 = 100
)

// Rules holds the physical constants a World is simulated with.
// A zero field is unset and takes its value from DefaultRules, so the zero value
// means DefaultRules.
type Rules struct {
	Gravity   float64 `json:"gravity"`
	HitRadius float64 `json:"hitRadius"`
	HitDamage int8    `json:"hitDamage"`
}

// DefaultRules returns the built-in constants.
func DefaultRules() Rules {
	return Rules{
		Gravity:   Gravity,
		HitRadius: HitRadius,
		HitDamage: HitDamage,
	}
}

// IsZero reports whether no rule has been set.
func (r Rules) IsZero() bool {
	return r == Rules{}
}

// WithDefaults fills every unset field of r from base.
func (r Rules) WithDefaults(base Rules) Rules {
	if r.Gravity == 0 {
		r.Gravity = base.Gravity
	}
	if r.HitRadius == 0 {
		r.HitRadius = base.HitRadius
	}
	if r.HitDamage == 0 {
		r.HitDamage = base.HitDamage
	}
	return r
}

func (r Rules) orDefault() Rules {
	return r.WithDefaults(DefaultRules())
}
