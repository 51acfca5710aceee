package chem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molview/domain/molecule"
)

const ethanolSDF = `ethanol
  MolView

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    0.8250    0.4763    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.6500    0.0000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0  0  0  0
  2  3  1  0  0  0  0
M  END
> <LogP>
-0.14

> <Name>
ethanol

$$$$
`

func TestParseSDFSingleRecord(t *testing.T) {
	result, err := ParseSDF(strings.NewReader(ethanolSDF))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 0, result.Skipped)

	rec := result.Records[0]
	require.Equal(t, 3, rec.Mol.AtomCount())
	require.Equal(t, 2, rec.Mol.BondCount())
	assert.True(t, rec.Mol.HasCoords)

	assert.Equal(t, "C", rec.Mol.Atoms[0].Symbol)
	assert.Equal(t, "O", rec.Mol.Atoms[2].Symbol)
	assert.InDelta(t, 0.8250, rec.Mol.Atoms[1].X, 1e-9)
	assert.InDelta(t, 0.4763, rec.Mol.Atoms[1].Y, 1e-9)

	assert.Equal(t, "-0.14", rec.Properties["LogP"])
	assert.Equal(t, "ethanol", rec.Properties["Name"])
}

func TestParseSDFMultipleRecords(t *testing.T) {
	two := ethanolSDF + ethanolSDF
	result, err := ParseSDF(strings.NewReader(two))
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
}

func TestParseSDFSkipsMalformedEntries(t *testing.T) {
	broken := `garbage
header
lines
not a counts line
M  END
$$$$
` + ethanolSDF
	result, err := ParseSDF(strings.NewReader(broken))
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, 1, result.Skipped)
}

func TestParseSDFMissingMolEnd(t *testing.T) {
	result, err := ParseSDF(strings.NewReader("just\nsome\nlines\n$$$$\n"))
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 1, result.Skipped)
}

func TestParseSDFImplicitHydrogens(t *testing.T) {
	result, err := ParseSDF(strings.NewReader(ethanolSDF))
	require.NoError(t, err)
	mol := result.Records[0].Mol
	assert.Equal(t, 3, mol.Atoms[0].HCount)
	assert.Equal(t, 2, mol.Atoms[1].HCount)
	assert.Equal(t, 1, mol.Atoms[2].HCount)
}

func TestParseSDFChargeProperty(t *testing.T) {
	charged := `methylammonium
  MolView

  2  1  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    0.8250    0.4763    0.0000 N   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0  0  0  0
M  CHG  1   2   1
M  END
$$$$
`
	result, err := ParseSDF(strings.NewReader(charged))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 1, result.Records[0].Mol.Atoms[1].Charge)
}

func TestWriteSMILESRoundTrips(t *testing.T) {
	tests := []struct {
		name   string
		smiles string
	}{
		{"chain", "CCO"},
		{"double bond", "CC=O"},
		{"benzene", "c1ccccc1"},
		{"branch", "CC(=O)O"},
		{"fragments", "[Na+].[Cl-]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mol, err := ParseSMILES(tt.smiles)
			require.NoError(t, err)
			out := WriteSMILES(mol)
			require.NotEmpty(t, out)

			// Output need not be canonical, but must parse back to the
			// same graph.
			back, err := ParseSMILES(out)
			require.NoError(t, err, "generated SMILES %q does not parse", out)
			assert.Equal(t, mol.AtomCount(), back.AtomCount())
			assert.Equal(t, mol.BondCount(), back.BondCount())
		})
	}
}

func TestWriteSMILESRing(t *testing.T) {
	mol, err := ParseSMILES("C1CCCCC1")
	require.NoError(t, err)
	out := WriteSMILES(mol)
	back, err := ParseSMILES(out)
	require.NoError(t, err, "generated SMILES %q does not parse", out)
	assert.Equal(t, 6, back.AtomCount())
	assert.Equal(t, 6, back.BondCount())
}

func TestWriteSMILESKeepsRingBondOrder(t *testing.T) {
	// Cyclopropene built the way a Kekulé SDF entry arrives: the double
	// bond sits on the ring-closure edge, not a tree edge.
	mol := &molecule.Molecule{
		Atoms: []molecule.Atom{
			{Symbol: "C", HCount: -1},
			{Symbol: "C", HCount: -1},
			{Symbol: "C", HCount: -1},
		},
		Bonds: []molecule.Bond{
			{From: 0, To: 1, Order: 1},
			{From: 1, To: 2, Order: 1},
			{From: 2, To: 0, Order: 2},
		},
	}
	out := WriteSMILES(mol)
	back, err := ParseSMILES(out)
	require.NoError(t, err, "generated SMILES %q does not parse", out)

	doubles := 0
	for _, b := range back.Bonds {
		if b.Order == 2 {
			doubles++
		}
	}
	assert.Equal(t, 1, doubles, "ring double bond lost in %q", out)
}

func TestWriteSMILESEmptyMolecule(t *testing.T) {
	assert.Equal(t, "", WriteSMILES(nil))
}
