package force

import "math"

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

func (s *Simulation) applyLinks() {
	for _, sp := range s.springs {
		src, tgt := &s.bodies[sp.source], &s.bodies[sp.target]
		x := tgt.X + tgt.VX - src.X - src.VX
		y := tgt.Y + tgt.VY - src.Y - src.VY
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		l := math.Sqrt(x*x + y*y)
		l = (l - sp.distance) / l * s.alpha * sp.strength
		x *= l
		y *= l
		tgt.VX -= x * sp.bias
		tgt.VY -= y * sp.bias
		src.VX += x * (1 - sp.bias)
		src.VY += y * (1 - sp.bias)
	}
}

// applyCharge sums pairwise forces directly. Graphs drawn by this package
// are small enough that a quadtree approximation is unnecessary.
func (s *Simulation) applyCharge() {
	min2 := s.cfg.Charge.DistanceMin * s.cfg.Charge.DistanceMin
	max2 := s.cfg.distanceMax()
	if !math.IsInf(max2, 1) {
		max2 *= max2
	}
	k := s.cfg.Charge.Strength * s.alpha

	for i := range s.bodies {
		bi := &s.bodies[i]
		for j := range s.bodies {
			if i == j {
				continue
			}
			bj := &s.bodies[j]
			x := bj.X - bi.X
			y := bj.Y - bi.Y
			l := x*x + y*y
			if l >= max2 {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			bi.VX += x * k / l
			bi.VY += y * k / l
		}
	}
}

func (s *Simulation) applyPosition() {
	cx, cy := s.center()
	k := PositionStrength * s.alpha
	for i := range s.bodies {
		b := &s.bodies[i]
		b.VX += (cx - b.X) * k
		b.VY += (cy - b.Y) * k
	}
}
