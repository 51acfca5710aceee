package depict

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"molview/domain/molecule"
)

const bondLength = 1.0

// GenerateCoords assigns 2-D coordinates to a molecule that has none.
// Rings are laid out as regular polygons, acyclic neighbors fan out in
// the usual zig-zag. Molecules that already carry coordinates (SDF
// structures) keep them.
func GenerateCoords(mol *molecule.Molecule) {
	if mol == nil || len(mol.Atoms) == 0 || mol.HasCoords {
		return
	}

	l := &layouter{
		mol:    mol,
		adj:    adjacencyOf(mol),
		placed: make([]bool, len(mol.Atoms)),
		pos:    make([]r2.Vec, len(mol.Atoms)),
	}
	l.rings = findRings(mol, l.adj)

	for i := range mol.Atoms {
		if !l.placed[i] {
			l.placeComponent(i)
		}
	}

	for i := range mol.Atoms {
		mol.Atoms[i].X = l.pos[i].X
		mol.Atoms[i].Y = l.pos[i].Y
	}
	mol.HasCoords = true
}

type layouter struct {
	mol    *molecule.Molecule
	adj    [][]int
	rings  [][]int
	placed []bool
	pos    []r2.Vec
}

func adjacencyOf(mol *molecule.Molecule) [][]int {
	adj := make([][]int, len(mol.Atoms))
	for _, b := range mol.Bonds {
		adj[b.From] = append(adj[b.From], b.To)
		adj[b.To] = append(adj[b.To], b.From)
	}
	return adj
}

// findRings recovers one cycle per DFS back edge. Very large cycles are
// ignored and laid out as chains.
func findRings(mol *molecule.Molecule, adj [][]int) [][]int {
	const maxRingSize = 8
	parent := make([]int, len(mol.Atoms))
	state := make([]int, len(mol.Atoms)) // 0 unseen, 1 active, 2 done
	var rings [][]int

	var dfs func(atom, from int)
	dfs = func(atom, from int) {
		state[atom] = 1
		parent[atom] = from
		for _, nb := range adj[atom] {
			if nb == from {
				continue
			}
			switch state[nb] {
			case 0:
				dfs(nb, atom)
			case 1:
				// Back edge: walk parents from atom up to nb.
				ring := []int{atom}
				for cur := parent[atom]; cur != -1 && cur != nb; cur = parent[cur] {
					ring = append(ring, cur)
				}
				ring = append(ring, nb)
				if len(ring) >= 3 && len(ring) <= maxRingSize {
					rings = append(rings, ring)
				}
			}
		}
		state[atom] = 2
	}

	for i := range mol.Atoms {
		if state[i] == 0 {
			dfs(i, -1)
		}
	}
	return rings
}

func (l *layouter) placeComponent(start int) {
	if ring := l.ringContaining(start, false); ring != nil {
		l.placeRingFresh(ring)
	} else {
		l.pos[start] = r2.Vec{}
		l.placed[start] = true
	}

	queue := l.placedAtoms()
	for len(queue) > 0 {
		atom := queue[0]
		queue = queue[1:]
		for _, nb := range l.adj[atom] {
			if l.placed[nb] {
				continue
			}
			if ring := l.ringContaining(nb, true); ring != nil {
				l.placeRingAttached(ring)
			} else {
				l.placeChainAtom(nb, atom)
			}
			queue = append(queue, nb)
		}
	}
}

func (l *layouter) placedAtoms() []int {
	var out []int
	for i, p := range l.placed {
		if p {
			out = append(out, i)
		}
	}
	return out
}

// ringContaining returns an unplaced-majority ring containing atom.
// With partial set, rings with some atoms already placed qualify too.
func (l *layouter) ringContaining(atom int, partial bool) []int {
	for _, ring := range l.rings {
		member := false
		unplaced := 0
		for _, a := range ring {
			if a == atom {
				member = true
			}
			if !l.placed[a] {
				unplaced++
			}
		}
		if !member || unplaced == 0 {
			continue
		}
		if partial || unplaced == len(ring) {
			return ring
		}
	}
	return nil
}

// placeRingFresh lays out a ring as a regular polygon centered at the
// origin, used for the first fragment of a component.
func (l *layouter) placeRingFresh(ring []int) {
	n := len(ring)
	radius := bondLength / (2 * math.Sin(math.Pi/float64(n)))
	for i, a := range ring {
		angle := 2*math.Pi*float64(i)/float64(n) + math.Pi/2
		l.pos[a] = r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
		l.placed[a] = true
	}
}

// placeRingAttached lays out a ring some of whose atoms are already
// placed: the polygon center sits on the far side of the placed anchor
// (or fused edge) from the rest of the placed structure.
func (l *layouter) placeRingAttached(ring []int) {
	n := len(ring)
	radius := bondLength / (2 * math.Sin(math.Pi/float64(n)))

	// Rotate a copy of the ring so a placed atom comes first.
	first := -1
	anchors := 0
	for i, a := range ring {
		if l.placed[a] {
			anchors++
			if first < 0 {
				first = i
			}
		}
	}
	if anchors == 0 {
		l.placeRingFresh(ring)
		return
	}
	rotated := make([]int, 0, n)
	rotated = append(rotated, ring[first:]...)
	rotated = append(rotated, ring[:first]...)
	ring = rotated

	anchor := ring[0]
	away := l.awayDirection(anchor)
	center := r2.Add(l.pos[anchor], r2.Scale(radius, away))

	startAngle := math.Atan2(l.pos[anchor].Y-center.Y, l.pos[anchor].X-center.X)
	for i, a := range ring {
		if l.placed[a] {
			continue
		}
		angle := startAngle + 2*math.Pi*float64(i)/float64(n)
		l.pos[a] = r2.Vec{X: center.X + radius*math.Cos(angle), Y: center.Y + radius*math.Sin(angle)}
		l.placed[a] = true
	}
}

// placeChainAtom places atom bonded to parent, picking the candidate
// direction farthest from everything already placed.
func (l *layouter) placeChainAtom(atom, parent int) {
	base := l.awayDirection(parent)
	baseAngle := math.Atan2(base.Y, base.X)

	best := r2.Add(l.pos[parent], r2.Scale(bondLength, base))
	bestScore := l.clearance(best, atom)
	for _, off := range []float64{math.Pi / 6, -math.Pi / 6, math.Pi / 3, -math.Pi / 3, math.Pi / 2, -math.Pi / 2} {
		a := baseAngle + off
		cand := r2.Add(l.pos[parent], r2.Vec{X: bondLength * math.Cos(a), Y: bondLength * math.Sin(a)})
		if s := l.clearance(cand, atom); s > bestScore {
			best, bestScore = cand, s
		}
	}
	l.pos[atom] = best
	l.placed[atom] = true
}

// awayDirection is the unit vector pointing away from the placed
// neighbors of atom, a sensible growth direction for new substituents.
func (l *layouter) awayDirection(atom int) r2.Vec {
	var sum r2.Vec
	count := 0
	for _, nb := range l.adj[atom] {
		if l.placed[nb] {
			sum = r2.Add(sum, r2.Sub(l.pos[nb], l.pos[atom]))
			count++
		}
	}
	if count == 0 {
		return r2.Vec{X: 1}
	}
	norm := math.Hypot(sum.X, sum.Y)
	if norm < 1e-9 {
		return r2.Vec{X: 1}
	}
	return r2.Scale(-1/norm, sum)
}

// clearance scores a candidate position by its distance to the nearest
// placed atom other than atom's own neighbors.
func (l *layouter) clearance(p r2.Vec, atom int) float64 {
	min := math.Inf(1)
	for i, placed := range l.placed {
		if !placed || i == atom {
			continue
		}
		d := math.Hypot(p.X-l.pos[i].X, p.Y-l.pos[i].Y)
		if d < min {
			min = d
		}
	}
	return min
}
