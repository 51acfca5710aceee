// Package chem parses the chemical inputs the viewer accepts: SMILES
// strings and V2000 structure-data (SDF) files. Parsing is self-contained;
// no external cheminformatics toolkit is involved.
package chem

import (
	"fmt"
	"strings"
	"unicode"

	"molview/domain/core"
	"molview/domain/molecule"
)

// organicSubset lists atoms that may appear outside brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticSubset lists the lowercase aromatic shorthand atoms.
var aromaticSubset = map[rune]bool{
	'b': true, 'c': true, 'n': true, 'o': true, 'p': true, 's': true,
}

// defaultValence for implicit hydrogen estimation on organic-subset atoms.
var defaultValence = map[string]int{
	"B": 3, "C": 4, "N": 3, "O": 2, "P": 3, "S": 2,
	"F": 1, "Cl": 1, "Br": 1, "I": 1,
}

// ringBond tracks an open ring closure: the atom that opened it and the
// bond order requested at the opening site.
type ringBond struct {
	atom  int
	order int
}

// ParseSMILES parses a SMILES string into a molecule graph. The returned
// molecule has no coordinates; layout happens at depiction time.
//
// The grammar covered is the organic subset plus bracket atoms, branches,
// explicit bond orders, single- and two-digit ring closures, and dot-
// separated fragments. Stereo markers are accepted and ignored.
func ParseSMILES(smiles string) (*molecule.Molecule, error) {
	smiles = strings.TrimSpace(smiles)
	if err := molecule.ValidateSMILES(smiles); err != nil {
		return nil, err
	}

	mol := &molecule.Molecule{}
	runes := []rune(smiles)

	var branchStack []int
	openRings := map[int]ringBond{}
	prevAtom := -1
	nextOrder := 0 // 0 = unspecified, resolved when the bond is created

	addBond := func(from, to, order int) {
		if order == 0 {
			if mol.Atoms[from].Aromatic && mol.Atoms[to].Aromatic {
				order = 4
			} else {
				order = 1
			}
		}
		mol.Bonds = append(mol.Bonds, molecule.Bond{From: from, To: to, Order: order})
	}

	closeRing := func(num int) error {
		if open, ok := openRings[num]; ok {
			if prevAtom < 0 {
				return fmt.Errorf("%w: ring closure %d before any atom", core.ErrInvalidSMILES, num)
			}
			order := nextOrder
			if order == 0 {
				order = open.order
			}
			addBond(open.atom, prevAtom, order)
			delete(openRings, num)
		} else {
			if prevAtom < 0 {
				return fmt.Errorf("%w: ring opening %d before any atom", core.ErrInvalidSMILES, num)
			}
			openRings[num] = ringBond{atom: prevAtom, order: nextOrder}
		}
		nextOrder = 0
		return nil
	}

	attach := func(atom molecule.Atom) {
		idx := len(mol.Atoms)
		mol.Atoms = append(mol.Atoms, atom)
		if prevAtom >= 0 {
			addBond(prevAtom, idx, nextOrder)
		}
		nextOrder = 0
		prevAtom = idx
	}

	i := 0
	for i < len(runes) {
		ch := runes[i]

		switch {
		case ch == '(':
			if prevAtom < 0 {
				return nil, fmt.Errorf("%w: branch before any atom", core.ErrInvalidSMILES)
			}
			branchStack = append(branchStack, prevAtom)
			i++

		case ch == ')':
			if len(branchStack) == 0 {
				return nil, fmt.Errorf("%w: unmatched branch close", core.ErrInvalidSMILES)
			}
			prevAtom = branchStack[len(branchStack)-1]
			branchStack = branchStack[:len(branchStack)-1]
			i++

		case ch == '-':
			nextOrder = 1
			i++
		case ch == '=':
			nextOrder = 2
			i++
		case ch == '#':
			nextOrder = 3
			i++
		case ch == ':':
			nextOrder = 4
			i++

		case ch == '/' || ch == '\\':
			// Stereo bond markers carry no graph information we use.
			i++

		case ch == '.':
			prevAtom = -1
			nextOrder = 0
			i++

		case ch == '%':
			if i+2 >= len(runes) || !unicode.IsDigit(runes[i+1]) || !unicode.IsDigit(runes[i+2]) {
				return nil, fmt.Errorf("%w: malformed %%nn ring closure", core.ErrInvalidSMILES)
			}
			num := int(runes[i+1]-'0')*10 + int(runes[i+2]-'0')
			if err := closeRing(num); err != nil {
				return nil, err
			}
			i += 3

		case unicode.IsDigit(ch):
			if err := closeRing(int(ch - '0')); err != nil {
				return nil, err
			}
			i++

		case ch == '[':
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("%w: unclosed bracket at position %d", core.ErrInvalidSMILES, i)
			}
			atom, err := parseBracketAtom(string(runes[i+1 : j]))
			if err != nil {
				return nil, err
			}
			attach(atom)
			i = j + 1

		case unicode.IsLetter(ch):
			symbol, aromatic, advance, err := parseOrganicAtom(runes, i)
			if err != nil {
				return nil, err
			}
			attach(molecule.Atom{Symbol: symbol, Aromatic: aromatic, HCount: -1})
			i += advance

		default:
			return nil, fmt.Errorf("%w: unexpected character %q", core.ErrInvalidSMILES, ch)
		}
	}

	if len(openRings) > 0 {
		return nil, fmt.Errorf("%w: %d unclosed ring bond(s)", core.ErrInvalidSMILES, len(openRings))
	}
	if len(branchStack) > 0 {
		return nil, fmt.Errorf("%w: unclosed branch", core.ErrInvalidSMILES)
	}
	if len(mol.Atoms) == 0 {
		return nil, fmt.Errorf("%w: no atoms", core.ErrInvalidSMILES)
	}

	fillImplicitHydrogens(mol)
	return mol, nil
}

// parseOrganicAtom extracts an organic-subset atom symbol starting at i.
// Returns (symbol, isAromatic, runesConsumed).
func parseOrganicAtom(runes []rune, i int) (string, bool, int, error) {
	ch := runes[i]
	if unicode.IsLower(ch) {
		if !aromaticSubset[ch] {
			return "", false, 0, fmt.Errorf("%w: unknown aromatic atom %q", core.ErrInvalidSMILES, ch)
		}
		return strings.ToUpper(string(ch)), true, 1, nil
	}

	// Two-letter elements in the organic subset: Cl, Br.
	if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		twoLetter := string([]rune{ch, runes[i+1]})
		if organicSubset[twoLetter] {
			return twoLetter, false, 2, nil
		}
	}

	symbol := string(ch)
	if !organicSubset[symbol] {
		return "", false, 0, fmt.Errorf("%w: atom %q requires brackets", core.ErrInvalidSMILES, symbol)
	}
	return symbol, false, 1, nil
}

// parseBracketAtom parses the content inside [...]: optional isotope,
// element symbol, optional explicit H count and charge.
func parseBracketAtom(content string) (molecule.Atom, error) {
	runes := []rune(content)
	idx := 0

	// Skip isotope number.
	for idx < len(runes) && unicode.IsDigit(runes[idx]) {
		idx++
	}
	if idx >= len(runes) || !unicode.IsLetter(runes[idx]) {
		return molecule.Atom{}, fmt.Errorf("%w: bracket atom %q has no element", core.ErrInvalidSMILES, content)
	}

	aromatic := unicode.IsLower(runes[idx])
	start := idx
	idx++
	for idx < len(runes) && unicode.IsLower(runes[idx]) && runes[idx] != 'h' {
		// A trailing lowercase rune is part of a two-letter symbol unless it
		// is the explicit-H marker.
		idx++
	}
	symbol := string(runes[start:idx])
	if aromatic {
		symbol = strings.ToUpper(symbol[:1]) + symbol[1:]
	}

	atom := molecule.Atom{Symbol: symbol, Aromatic: aromatic}

	rest := string(runes[idx:])
	if hIdx := strings.IndexAny(rest, "Hh"); hIdx >= 0 {
		atom.HCount = 1
		if hIdx+1 < len(rest) && rest[hIdx+1] >= '0' && rest[hIdx+1] <= '9' {
			atom.HCount = int(rest[hIdx+1] - '0')
		}
	}
	switch {
	case strings.Contains(rest, "+2") || strings.Contains(rest, "++"):
		atom.Charge = 2
	case strings.Contains(rest, "+"):
		atom.Charge = 1
	case strings.Contains(rest, "-2") || strings.Contains(rest, "--"):
		atom.Charge = -2
	case strings.Contains(rest, "-"):
		atom.Charge = -1
	}
	return atom, nil
}

// fillImplicitHydrogens estimates H counts for organic-subset atoms that
// carried no explicit count (HCount == -1). Bracket atoms keep whatever
// the bracket declared, including zero.
func fillImplicitHydrogens(mol *molecule.Molecule) {
	orders := make([]int, len(mol.Atoms))
	for _, b := range mol.Bonds {
		o := b.Order
		if o == 4 {
			o = 1
		}
		orders[b.From] += o
		orders[b.To] += o
	}
	for i := range mol.Atoms {
		a := &mol.Atoms[i]
		if a.HCount != -1 {
			continue
		}
		v, ok := defaultValence[a.Symbol]
		if !ok {
			a.HCount = 0
			continue
		}
		used := orders[i]
		if a.Aromatic {
			// One bonding slot is consumed by the delocalized ring system.
			used++
		}
		h := v - used + a.Charge*chargeSign(a.Symbol)
		if h < 0 {
			h = 0
		}
		a.HCount = h
	}
}

// chargeSign returns how formal charge shifts usable valence: +1 charge on
// nitrogen gains a slot, on oxygen loses one. Approximation good enough
// for depiction labels.
func chargeSign(symbol string) int {
	switch symbol {
	case "N", "P":
		return 1
	case "O", "S":
		return -1
	default:
		return 0
	}
}
