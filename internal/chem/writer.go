package chem

import (
	"fmt"
	"sort"
	"strings"

	"molview/domain/molecule"
)

// WriteSMILES serializes a molecule graph back to SMILES. Output is a
// valid, not canonical, SMILES: a depth-first walk from the lowest atom
// index of each connected component, with ring closures for back edges.
func WriteSMILES(mol *molecule.Molecule) string {
	if mol == nil || len(mol.Atoms) == 0 {
		return ""
	}

	w := &smilesWriter{
		mol:      mol,
		adj:      buildAdjacency(mol),
		visited:  make([]bool, len(mol.Atoms)),
		edgeUsed: make([]bool, len(mol.Bonds)),
		closures: make(map[int][]closure),
	}

	var parts []string
	for i := range mol.Atoms {
		if w.visited[i] {
			continue
		}
		w.assignClosures(i)
		var sb strings.Builder
		w.emit(&sb, i, -1)
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, ".")
}

type neighbor struct {
	atom int
	bond int
}

type closure struct {
	label    int
	order    int
	aromatic bool
}

type smilesWriter struct {
	mol       *molecule.Molecule
	adj       [][]neighbor
	visited   []bool
	edgeUsed  []bool
	closures  map[int][]closure
	nextLabel int
}

func buildAdjacency(mol *molecule.Molecule) [][]neighbor {
	adj := make([][]neighbor, len(mol.Atoms))
	for bi, b := range mol.Bonds {
		adj[b.From] = append(adj[b.From], neighbor{atom: b.To, bond: bi})
		adj[b.To] = append(adj[b.To], neighbor{atom: b.From, bond: bi})
	}
	return adj
}

// assignClosures walks the component rooted at start, marking spanning-tree
// edges used and giving every back edge a ring closure label at both ends.
func (w *smilesWriter) assignClosures(start int) {
	seen := make(map[int]bool)
	var walk func(atom int)
	walk = func(atom int) {
		seen[atom] = true
		for _, nb := range w.adj[atom] {
			if w.edgeUsed[nb.bond] {
				continue
			}
			w.edgeUsed[nb.bond] = true
			if seen[nb.atom] {
				w.nextLabel++
				c := closure{
					label:    w.nextLabel,
					order:    w.mol.Bonds[nb.bond].Order,
					aromatic: w.mol.Atoms[atom].Aromatic && w.mol.Atoms[nb.atom].Aromatic,
				}
				w.closures[atom] = append(w.closures[atom], c)
				w.closures[nb.atom] = append(w.closures[nb.atom], c)
				continue
			}
			walk(nb.atom)
		}
	}
	walk(start)
	// Reset tree edges so emit can traverse them again; back edges stay
	// consumed and are rendered as closures.
	for bi, b := range w.mol.Bonds {
		if w.edgeUsed[bi] && !isBackEdge(w.closures, b) {
			w.edgeUsed[bi] = false
		}
	}
}

func isBackEdge(closures map[int][]closure, b molecule.Bond) bool {
	for _, ca := range closures[b.From] {
		for _, cb := range closures[b.To] {
			if ca.label == cb.label && ca.order == b.Order {
				return true
			}
		}
	}
	return false
}

func (w *smilesWriter) emit(sb *strings.Builder, atom, fromBond int) {
	w.visited[atom] = true
	if fromBond >= 0 {
		sb.WriteString(bondSymbol(w.mol.Bonds[fromBond].Order, w.mol.Atoms[atom].Aromatic))
	}
	sb.WriteString(atomToken(w.mol.Atoms[atom]))

	cs := w.closures[atom]
	sort.Slice(cs, func(i, j int) bool { return cs[i].label < cs[j].label })
	for _, c := range cs {
		// The closure bond order is written at both ends so a double or
		// triple ring bond survives the round trip.
		sb.WriteString(bondSymbol(c.order, c.aromatic))
		if c.label > 9 {
			fmt.Fprintf(sb, "%%%d", c.label)
		} else {
			fmt.Fprintf(sb, "%d", c.label)
		}
	}

	var tree []neighbor
	for _, nb := range w.adj[atom] {
		if w.visited[nb.atom] || w.edgeUsed[nb.bond] {
			continue
		}
		tree = append(tree, nb)
	}
	for i, nb := range tree {
		if w.visited[nb.atom] {
			continue
		}
		w.edgeUsed[nb.bond] = true
		if i < len(tree)-1 {
			sb.WriteByte('(')
			w.emit(sb, nb.atom, nb.bond)
			sb.WriteByte(')')
		} else {
			w.emit(sb, nb.atom, nb.bond)
		}
	}
}

// bondSymbol renders the bond preceding an atom. Single bonds and bonds
// between two aromatic atoms are implicit.
func bondSymbol(order int, toAromatic bool) string {
	switch order {
	case 2:
		return "="
	case 3:
		return "#"
	case 4:
		if toAromatic {
			return ""
		}
		return ":"
	default:
		return ""
	}
}

// atomToken renders one atom: organic-subset shorthand where possible,
// brackets for charges and uncommon elements. Aromatic subset atoms use
// the lowercase shorthand.
func atomToken(a molecule.Atom) string {
	symbol := a.Symbol
	if a.Aromatic && len(symbol) == 1 && aromaticSubset[rune(strings.ToLower(symbol)[0])] {
		symbol = strings.ToLower(symbol)
	}
	if a.Charge == 0 && organicSubset[a.Symbol] {
		return symbol
	}

	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(symbol)
	if a.HCount > 0 {
		sb.WriteByte('H')
		if a.HCount > 1 {
			fmt.Fprintf(&sb, "%d", a.HCount)
		}
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		fmt.Fprintf(&sb, "+%d", a.Charge)
	case a.Charge < -1:
		fmt.Fprintf(&sb, "-%d", -a.Charge)
	}
	sb.WriteByte(']')
	return sb.String()
}
