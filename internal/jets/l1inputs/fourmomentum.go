package l1inputs

import "math"

// maxEta is reported for momenta along the beam axis.
const maxEta = 1e5

// FourMomentum is a Cartesian (px, py, pz, E) four-vector in GeV.
type FourMomentum struct {
	Px, Py, Pz, E float64
}

// Point is a position in cm.
type Point struct {
	X, Y, Z float64
}

// NewPtEtaPhiE builds a four-momentum from transverse momentum, pseudorapidity,
// azimuth and energy.
func NewPtEtaPhiE(pt, eta, phi, e float64) FourMomentum {
	return FourMomentum{
		Px: pt * math.Cos(phi),
		Py: pt * math.Sin(phi),
		Pz: pt * math.Sinh(eta),
		E:  e,
	}
}

// NewPtEtaPhiM builds a four-momentum from pt, eta, phi and mass.
func NewPtEtaPhiM(pt, eta, phi, m float64) FourMomentum {
	pz := pt * math.Sinh(eta)
	e := math.Sqrt(pt*pt + pz*pz + m*m)
	return NewPtEtaPhiE(pt, eta, phi, e)
}

// NewMassless returns a massless four-momentum of energy e along dir.
// A zero direction yields the zero vector.
func NewMassless(e float64, dir Point) FourMomentum {
	norm := math.Sqrt(dir.X*dir.X + dir.Y*dir.Y + dir.Z*dir.Z)
	if norm == 0 {
		return FourMomentum{}
	}
	f := e / norm
	return FourMomentum{Px: dir.X * f, Py: dir.Y * f, Pz: dir.Z * f, E: e}
}

// Pt returns the transverse momentum.
func (p FourMomentum) Pt() float64 { return math.Hypot(p.Px, p.Py) }

// P returns the momentum magnitude.
func (p FourMomentum) P() float64 {
	return math.Sqrt(p.Px*p.Px + p.Py*p.Py + p.Pz*p.Pz)
}

// Et returns the transverse energy E·sinθ.
func (p FourMomentum) Et() float64 {
	mag := p.P()
	if mag == 0 {
		return 0
	}
	return p.E * p.Pt() / mag
}

// Eta returns the pseudorapidity.
func (p FourMomentum) Eta() float64 {
	pt := p.Pt()
	if pt == 0 {
		switch {
		case p.Pz > 0:
			return maxEta
		case p.Pz < 0:
			return -maxEta
		}
		return 0
	}
	return math.Asinh(p.Pz / pt)
}

// Phi returns the azimuth in (-π, π].
func (p FourMomentum) Phi() float64 {
	if p.Px == 0 && p.Py == 0 {
		return 0
	}
	return math.Atan2(p.Py, p.Px)
}

// M returns the invariant mass; space-like vectors report -sqrt(-m²).
func (p FourMomentum) M() float64 {
	m2 := p.E*p.E - p.Px*p.Px - p.Py*p.Py - p.Pz*p.Pz
	if m2 < 0 {
		return -math.Sqrt(-m2)
	}
	return math.Sqrt(m2)
}

// Add returns p+q.
func (p FourMomentum) Add(q FourMomentum) FourMomentum {
	return FourMomentum{Px: p.Px + q.Px, Py: p.Py + q.Py, Pz: p.Pz + q.Pz, E: p.E + q.E}
}

// Scale multiplies all four components by f.
func (p FourMomentum) Scale(f float64) FourMomentum {
	return FourMomentum{Px: p.Px * f, Py: p.Py * f, Pz: p.Pz * f, E: p.E * f}
}

// IsFinite reports whether no component is NaN or infinite.
func (p FourMomentum) IsFinite() bool {
	for _, v := range [4]float64{p.Px, p.Py, p.Pz, p.E} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// DeltaPhi returns phi1-phi2 folded into [-π, π].
func DeltaPhi(phi1, phi2 float64) float64 {
	d := math.Mod(phi1-phi2, 2*math.Pi)
	switch {
	case d > math.Pi:
		d -= 2 * math.Pi
	case d < -math.Pi:
		d += 2 * math.Pi
	}
	return d
}

// DeltaR returns the (eta, phi) distance between two directions.
func DeltaR(eta1, phi1, eta2, phi2 float64) float64 {
	return math.Hypot(eta1-eta2, DeltaPhi(phi1, phi2))
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}
