package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// align rotates the component members of pos about their centroid so they
// best match the previous frame. Only members that also appear in prev take
// part in the fit; fewer than two such members leave the component as is.
func align(pos []r2.Vec, members []int, ids []int, prev map[int]r2.Vec) {
	if len(prev) == 0 {
		return
	}

	var common []int
	var cNew, cOld r2.Vec
	for _, i := range members {
		old, ok := prev[ids[i]]
		if !ok {
			continue
		}
		common = append(common, i)
		cNew = r2.Add(cNew, pos[i])
		cOld = r2.Add(cOld, old)
	}
	if len(common) < 2 {
		return
	}
	inv := 1 / float64(len(common))
	cNew = r2.Scale(inv, cNew)
	cOld = r2.Scale(inv, cOld)

	var cross, dot float64
	for _, i := range common {
		o := r2.Sub(prev[ids[i]], cOld)
		n := r2.Sub(pos[i], cNew)
		cross += o.X*n.Y - o.Y*n.X
		dot += o.X*n.X + o.Y*n.Y
	}
	if cross == 0 && dot == 0 {
		return
	}

	// theta is the angle carrying the old frame onto the new one; undo it.
	theta := math.Atan2(cross, dot)
	sin, cos := math.Sincos(-theta)
	for _, i := range members {
		p := r2.Sub(pos[i], cNew)
		pos[i] = r2.Add(cNew, r2.Vec{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos})
	}
}

// separate shifts every component so they sit side by side along X, in the
// given order, margin apart, each with its lowest point on y = 0.
func separate(pos []r2.Vec, comps [][]int, margin float64) {
	cursor := 0.0
	for _, members := range comps {
		if len(members) == 0 {
			continue
		}
		minX, maxX := math.Inf(1), math.Inf(-1)
		minY := math.Inf(1)
		for _, i := range members {
			minX = math.Min(minX, pos[i].X)
			maxX = math.Max(maxX, pos[i].X)
			minY = math.Min(minY, pos[i].Y)
		}
		shift := r2.Vec{X: cursor - minX, Y: -minY}
		for _, i := range members {
			pos[i] = r2.Add(pos[i], shift)
		}
		cursor += maxX - minX + margin
	}
}
