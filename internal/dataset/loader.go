package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"molview/domain/core"
	"molview/domain/molecule"
	"molview/internal/chem"
	"molview/internal/logging"
)

// smilesColumn is the canonical name of the structural-identifier column.
const smilesColumn = "SMILES"

// Loader turns uploaded files into datasets. Format is decided by file
// extension alone.
type Loader struct {
	logger *logging.Logger
}

func NewLoader(logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &Loader{logger: logger}
}

// Load parses an uploaded file into a Dataset. Tabular formats require a
// SMILES column (matched case-insensitively); SDF entries synthesize one
// from the structure when no SMILES data field is present.
func (l *Loader) Load(filename string, size int64, r io.Reader) (*molecule.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	ds := &molecule.Dataset{
		ID:             core.NewDatasetID(),
		SourceFilename: filepath.Base(filename),
		FileSize:       size,
		LoadedAt:       time.Now().UTC(),
	}

	var err error
	switch ext {
	case ".csv":
		ds.Format = molecule.FormatCSV
		err = l.loadCSV(ds, r)
	case ".sdf":
		ds.Format = molecule.FormatSDF
		err = l.loadSDF(ds, r)
	case ".xlsx":
		ds.Format = molecule.FormatXLSX
		err = l.loadXLSX(ds, r)
	default:
		return nil, core.NewUnsupportedFormatError(ext, molecule.SupportedExtensions)
	}
	if err != nil {
		return nil, err
	}

	ds.Profiles = BuildProfiles(ds)
	l.logger.Info("loaded dataset %s: %s records=%d skipped=%d columns=%d",
		ds.ID, ds.SourceFilename, ds.RecordCount(), ds.SkippedRecords, len(ds.Columns))
	return ds, nil
}

func (l *Loader) loadCSV(ds *molecule.Dataset, r io.Reader) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return core.ErrEmptyFile
	}
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	return l.loadRows(ds, header, func() ([]string, error) { return cr.Read() })
}

func (l *Loader) loadXLSX(ds *molecule.Dataset, r io.Reader) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return core.ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return core.ErrEmptyFile
	}

	header := rows[0]
	rest := rows[1:]
	i := 0
	return l.loadRows(ds, header, func() ([]string, error) {
		if i >= len(rest) {
			return nil, io.EOF
		}
		row := rest[i]
		i++
		return row, nil
	})
}

// loadRows drives the shared tabular pipeline: locate the SMILES column,
// build one record per row, parse structures.
func (l *Loader) loadRows(ds *molecule.Dataset, header []string, next func() ([]string, error)) error {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	smilesIdx := -1
	for i, c := range cols {
		if strings.EqualFold(c, smilesColumn) {
			smilesIdx = i
			break
		}
	}
	if smilesIdx < 0 {
		return core.NewMissingColumnError(smilesColumn)
	}
	ds.Columns = cols

	index := 0
	for {
		row, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or malformed row: count and continue.
			if errors.Is(err, csv.ErrFieldCount) {
				ds.SkippedRecords++
				continue
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				ds.SkippedRecords++
				continue
			}
			return fmt.Errorf("failed to read row: %w", err)
		}
		index++

		props := make(map[string]string, len(cols))
		for i, c := range cols {
			if i < len(row) {
				props[c] = strings.TrimSpace(row[i])
			} else {
				props[c] = ""
			}
		}
		smiles := ""
		if smilesIdx < len(row) {
			smiles = strings.TrimSpace(row[smilesIdx])
		}

		rec := molecule.Record{
			Index:      index,
			SMILES:     smiles,
			Properties: props,
		}
		if err := molecule.ValidateSMILES(smiles); err == nil {
			if mol, perr := chem.ParseSMILES(smiles); perr == nil {
				rec.Mol = mol
			} else {
				l.logger.Debug("row %d: unparseable SMILES %q: %v", index, smiles, perr)
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return nil
}

// loadSDF builds records from structure-data entries. The SMILES column
// is taken from a data field of that name when present, otherwise
// serialized from the parsed structure.
func (l *Loader) loadSDF(ds *molecule.Dataset, r io.Reader) error {
	result, err := chem.ParseSDF(r)
	if err != nil {
		return err
	}
	ds.SkippedRecords = result.Skipped

	cols := []string{smilesColumn}
	seen := map[string]bool{smilesColumn: true}

	for i, entry := range result.Records {
		props := make(map[string]string, len(entry.Properties)+1)
		smiles := ""
		for name, value := range entry.Properties {
			if strings.EqualFold(name, smilesColumn) {
				smiles = strings.TrimSpace(value)
				continue
			}
			props[name] = value
		}
		if smiles == "" {
			smiles = chem.WriteSMILES(entry.Mol)
		}
		props[smilesColumn] = smiles

		names := make([]string, 0, len(entry.Properties))
		for name := range entry.Properties {
			if !strings.EqualFold(name, smilesColumn) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}

		ds.Records = append(ds.Records, molecule.Record{
			Index:      i + 1,
			SMILES:     smiles,
			Mol:        entry.Mol,
			Properties: props,
		})
	}

	ds.Columns = cols
	return nil
}
