package molecule

import (
	"time"

	"molview/domain/core"
)

// Format identifies the source file format of a dataset.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatSDF  Format = "sdf"
	FormatXLSX Format = "xlsx"
)

// SupportedExtensions lists the upload extensions the intake accepts.
var SupportedExtensions = []string{".csv", ".sdf", ".xlsx"}

// Atom is a single atom of a parsed structure. X/Y carry 2D depiction
// coordinates: native ones for SDF records, generated ones for SMILES.
type Atom struct {
	X, Y     float64
	Symbol   string
	Charge   int
	HCount   int
	Aromatic bool
}

// Bond connects two atoms by zero-based index.
type Bond struct {
	From, To int
	Order    int // 1=single, 2=double, 3=triple, 4=aromatic
}

// Molecule is a parsed chemical structure.
type Molecule struct {
	Atoms     []Atom
	Bonds     []Bond
	HasCoords bool // true when atom X/Y came from the source file
}

// AtomCount returns the number of heavy atoms.
func (m *Molecule) AtomCount() int { return len(m.Atoms) }

// BondCount returns the number of bonds.
func (m *Molecule) BondCount() int { return len(m.Bonds) }

// Record is one molecule row of a Dataset: a structural identifier plus the
// open-ended property map sourced from file columns or SDF data fields.
type Record struct {
	Index      int    // 1-based position in the source file
	SMILES     string // structural identifier; always populated for valid records
	Mol        *Molecule
	Properties map[string]string
}

// Property returns the named property value, or "" when absent.
func (r *Record) Property(name string) string {
	if r.Properties == nil {
		return ""
	}
	return r.Properties[name]
}

// ColumnKind classifies a dataset column for filtering purposes.
type ColumnKind string

const (
	ColumnNumeric ColumnKind = "numeric"
	ColumnText    ColumnKind = "text"
)

// ColumnProfile holds per-column statistics backing the filter panel.
type ColumnProfile struct {
	Name         string     `json:"name"`
	Kind         ColumnKind `json:"kind"`
	MissingCount int        `json:"missing_count"`
	UniqueCount  int        `json:"unique_count"`
	Min          float64    `json:"min,omitempty"`
	Max          float64    `json:"max,omitempty"`
	Mean         float64    `json:"mean,omitempty"`
	StdDev       float64    `json:"std_dev,omitempty"`
}

// Dataset is the ordered collection of records loaded from one uploaded file.
// It is replaced wholesale on each new upload; filtering never mutates it.
type Dataset struct {
	ID             core.DatasetID
	SourceFilename string
	Format         Format
	FileSize       int64
	Columns        []string // union of columns/fields, ordered by first appearance
	Records        []Record
	Profiles       []ColumnProfile
	SkippedRecords int // structure-parse failures excluded from Records
	LoadedAt       time.Time
}

// IsEmpty reports whether the dataset holds no parseable records.
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.Records) == 0
}

// RecordCount returns the number of loaded records.
func (d *Dataset) RecordCount() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// ProfileFor returns the profile of the named column, if present.
func (d *Dataset) ProfileFor(name string) (ColumnProfile, bool) {
	for _, p := range d.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return ColumnProfile{}, false
}
