package chem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molview/domain/core"
)

func TestParseSMILESEthanol(t *testing.T) {
	mol, err := ParseSMILES("CCO")
	require.NoError(t, err)

	require.Equal(t, 3, mol.AtomCount())
	require.Equal(t, 2, mol.BondCount())
	assert.False(t, mol.HasCoords)

	assert.Equal(t, "C", mol.Atoms[0].Symbol)
	assert.Equal(t, "C", mol.Atoms[1].Symbol)
	assert.Equal(t, "O", mol.Atoms[2].Symbol)

	// Implicit hydrogens: CH3, CH2, OH.
	assert.Equal(t, 3, mol.Atoms[0].HCount)
	assert.Equal(t, 2, mol.Atoms[1].HCount)
	assert.Equal(t, 1, mol.Atoms[2].HCount)
}

func TestParseSMILESBondOrders(t *testing.T) {
	mol, err := ParseSMILES("C=C")
	require.NoError(t, err)
	require.Equal(t, 1, mol.BondCount())
	assert.Equal(t, 2, mol.Bonds[0].Order)
	assert.Equal(t, 2, mol.Atoms[0].HCount)

	mol, err = ParseSMILES("C#N")
	require.NoError(t, err)
	assert.Equal(t, 3, mol.Bonds[0].Order)
	assert.Equal(t, 1, mol.Atoms[0].HCount)
	assert.Equal(t, 0, mol.Atoms[1].HCount)
}

func TestParseSMILESBenzene(t *testing.T) {
	mol, err := ParseSMILES("c1ccccc1")
	require.NoError(t, err)

	require.Equal(t, 6, mol.AtomCount())
	require.Equal(t, 6, mol.BondCount())
	for i, a := range mol.Atoms {
		assert.Equal(t, "C", a.Symbol, "atom %d", i)
		assert.True(t, a.Aromatic, "atom %d", i)
		assert.Equal(t, 1, a.HCount, "atom %d", i)
	}
	for i, b := range mol.Bonds {
		assert.Equal(t, 4, b.Order, "bond %d", i)
	}
}

func TestParseSMILESBranches(t *testing.T) {
	mol, err := ParseSMILES("CC(C)C")
	require.NoError(t, err)

	require.Equal(t, 4, mol.AtomCount())
	require.Equal(t, 3, mol.BondCount())
	// All three bonds start at the central atom's neighbors.
	assert.Equal(t, 1, mol.Atoms[1].HCount)

	// Nested branches.
	mol, err = ParseSMILES("CC(C(C)C)C")
	require.NoError(t, err)
	assert.Equal(t, 6, mol.AtomCount())
	assert.Equal(t, 5, mol.BondCount())
}

func TestParseSMILESBracketAtoms(t *testing.T) {
	tests := []struct {
		smiles string
		symbol string
		hcount int
		charge int
	}{
		{"[NH4+]", "N", 4, 1},
		{"[OH-]", "O", 1, -1},
		{"[Na+]", "Na", 0, 1},
		{"[Fe+2]", "Fe", 0, 2},
		{"[13CH4]", "C", 4, 0},
		{"[nH]", "N", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			mol, err := ParseSMILES(tt.smiles)
			require.NoError(t, err)
			require.Equal(t, 1, mol.AtomCount())
			assert.Equal(t, tt.symbol, mol.Atoms[0].Symbol)
			assert.Equal(t, tt.hcount, mol.Atoms[0].HCount)
			assert.Equal(t, tt.charge, mol.Atoms[0].Charge)
		})
	}
}

func TestParseSMILESTwoLetterElements(t *testing.T) {
	mol, err := ParseSMILES("ClCCBr")
	require.NoError(t, err)
	require.Equal(t, 4, mol.AtomCount())
	assert.Equal(t, "Cl", mol.Atoms[0].Symbol)
	assert.Equal(t, "Br", mol.Atoms[3].Symbol)
}

func TestParseSMILESRingClosures(t *testing.T) {
	mol, err := ParseSMILES("C1CCCCC1")
	require.NoError(t, err)
	assert.Equal(t, 6, mol.AtomCount())
	assert.Equal(t, 6, mol.BondCount())

	// Two-digit closure labels.
	mol, err = ParseSMILES("C%12CCC%12")
	require.NoError(t, err)
	assert.Equal(t, 4, mol.AtomCount())
	assert.Equal(t, 4, mol.BondCount())
}

func TestParseSMILESDisconnectedFragments(t *testing.T) {
	mol, err := ParseSMILES("[Na+].[Cl-]")
	require.NoError(t, err)
	assert.Equal(t, 2, mol.AtomCount())
	assert.Equal(t, 0, mol.BondCount())
}

func TestParseSMILESStereoMarkersIgnored(t *testing.T) {
	mol, err := ParseSMILES("C/C=C/C")
	require.NoError(t, err)
	assert.Equal(t, 4, mol.AtomCount())
	assert.Equal(t, 3, mol.BondCount())
}

func TestParseSMILESErrors(t *testing.T) {
	tests := []struct {
		name   string
		smiles string
	}{
		{"empty", ""},
		{"unclosed ring", "C1CC"},
		{"unclosed branch", "C(CC"},
		{"unmatched close", "CC)C"},
		{"unclosed bracket", "[NH4"},
		{"unknown bare element", "XeC"},
		{"unknown aromatic", "a1aaaa1"},
		{"branch before atom", "(C)"},
		{"illegal character", "C!C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSMILES(tt.smiles)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidSMILES), "want ErrInvalidSMILES, got %v", err)
		})
	}
}
