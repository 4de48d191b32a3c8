package world

// HexCoord is a region's position on the hex layout in axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

func (h HexCoord) S() int { return -h.Q - h.R }

// directions are the six axial offsets, counter-clockwise from east.
var directions = [6]HexCoord{{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1}}

func (h HexCoord) add(d HexCoord, k int) HexCoord {
	return HexCoord{Q: h.Q + d.Q*k, R: h.R + d.R*k}
}

// Neighbors returns the regions that may border h.
func (h HexCoord) Neighbors() [6]HexCoord {
	var out [6]HexCoord
	for i, d := range directions {
		out[i] = h.add(d, 1)
	}
	return out
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b HexCoord) bool {
	return Distance(a, b) == 1
}

// Distance counts the steps between two regions on the layout.
func Distance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

// Ring returns the ring number of h around the origin.
func (h HexCoord) Ring() int {
	return Distance(h, HexCoord{})
}

// Spiral lists n coordinates walking outward from the origin ring by ring,
// so regions placed in order pack into a compact blob.
func Spiral(n int) []HexCoord {
	if n <= 0 {
		return nil
	}
	out := make([]HexCoord, 0, n)
	out = append(out, HexCoord{})
	for radius := 1; len(out) < n; radius++ {
		cur := HexCoord{}.add(directions[4], radius)
		for _, d := range directions {
			for step := 0; step < radius && len(out) < n; step++ {
				out = append(out, cur)
				cur = cur.add(d, 1)
			}
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
