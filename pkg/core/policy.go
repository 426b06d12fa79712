// pkg/core/policy.go
package core

// Policy post-processes the world produced by a Step, for example to remove entities
// the core itself never removes. Policies receive the impacts of that step; projectile
// and tank indices in the impacts are valid for the stepped world because Step keeps
// both lists in order.
type Policy func(w World, impacts []Impact) World

// Bounds is an axis-aligned playable area.
type Bounds struct {
	Min Position `json:"min"`
	Max Position `json:"max"`
}

// IsZero reports whether the bounds are unset.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Contains reports whether p lies inside the bounds, edges included.
func (b Bounds) Contains(p Position) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// KeepAll is the policy that changes nothing.
func KeepAll(w World, _ []Impact) World {
	return w
}

// RemoveDeadTanks drops every tank without health left.
func RemoveDeadTanks(w World, _ []Impact) World {
	tanks := make([]Tank, 0, len(w.Tanks))
	for _, t := range w.Tanks {
		if t.IsAlive() {
			tanks = append(tanks, t)
		}
	}
	w.Tanks = tanks
	return w
}

// RemoveImpactedProjectiles drops every projectile that hit at least one tank.
func RemoveImpactedProjectiles(w World, impacts []Impact) World {
	if len(impacts) == 0 {
		return w
	}
	spent := make(map[int]struct{}, len(impacts))
	for _, im := range impacts {
		spent[im.ProjectileIndex] = struct{}{}
	}
	projectiles := make([]Projectile, 0, len(w.Projectiles))
	for i, p := range w.Projectiles {
		if _, ok := spent[i]; !ok {
			projectiles = append(projectiles, p)
		}
	}
	w.Projectiles = projectiles
	return w
}

// RemoveOutOfBounds drops projectiles that left b. Zero bounds disable the policy.
func RemoveOutOfBounds(b Bounds) Policy {
	if b.IsZero() {
		return KeepAll
	}
	return func(w World, _ []Impact) World {
		projectiles := make([]Projectile, 0, len(w.Projectiles))
		for _, p := range w.Projectiles {
			if b.Contains(p.Position) {
				projectiles = append(projectiles, p)
			}
		}
		w.Projectiles = projectiles
		return w
	}
}

// Chain applies policies in order. Projectile removals shift indices, so
// RemoveImpactedProjectiles must run before any other projectile policy.
func Chain(policies ...Policy) Policy {
	return func(w World, impacts []Impact) World {
		for _, p := range policies {
			if p == nil {
				continue
			}
			w = p(w, impacts)
		}
		return w
	}
}
