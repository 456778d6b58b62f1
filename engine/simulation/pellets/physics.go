package pellets

import "math"

// Impulse is the velocity change of pellet a along the contact normal when it meets pellet b.
// rel is the normal component of b's velocity relative to a; negative means closing. Separating
// pairs get no impulse.
//
// Parameters:
//   - ma, mb: the masses
//   - rel: relative normal velocity
//   - damping: collision_damping; restitution is 1 - damping
//
// Returns:
//   - float32: the change in a's normal velocity
func Impulse(ma, mb, rel, damping float32) float32 {
	if rel >= 0 || ma+mb <= 0 {
		return 0
	}
	restitution := 1 - damping
	return (1 + restitution) * rel * mb / (ma + mb)
}

// Gravity is the softened acceleration toward a neighbour of mass m at distance r.
func Gravity(strength, m, r, softening float32) float32 {
	return strength * m / (r*r + softening)
}

// Radius scales the base radius by the cube root of relative mass, so the heaviest pellet has
// the full radius.
func Radius(base, mass, massMax float32) float32 {
	if massMax <= 0 {
		return base
	}
	return base * float32(math.Cbrt(float64(mass/massMax)))
}
