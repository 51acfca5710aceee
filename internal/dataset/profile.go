package dataset

import (
	"strconv"

	"github.com/montanaflynn/stats"

	"molview/domain/molecule"
)

// BuildProfiles computes per-column statistics over a loaded dataset.
// A column is numeric when every non-missing value parses as a float
// and at least one value is present.
func BuildProfiles(ds *molecule.Dataset) []molecule.ColumnProfile {
	if ds == nil || len(ds.Columns) == 0 {
		return nil
	}

	profiles := make([]molecule.ColumnProfile, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		profiles = append(profiles, profileColumn(ds, col))
	}
	return profiles
}

func profileColumn(ds *molecule.Dataset, col string) molecule.ColumnProfile {
	p := molecule.ColumnProfile{Name: col, Kind: molecule.ColumnText}

	unique := make(map[string]struct{})
	values := make([]float64, 0, len(ds.Records))
	numeric := true

	for i := range ds.Records {
		v := ds.Records[i].Property(col)
		if v == "" {
			p.MissingCount++
			continue
		}
		unique[v] = struct{}{}
		if !numeric {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			numeric = false
			continue
		}
		values = append(values, f)
	}
	p.UniqueCount = len(unique)

	if !numeric || len(values) == 0 {
		return p
	}

	p.Kind = molecule.ColumnNumeric
	// stats errors only on empty input, which is excluded above.
	p.Min, _ = stats.Min(values)
	p.Max, _ = stats.Max(values)
	p.Mean, _ = stats.Mean(values)
	p.StdDev, _ = stats.StandardDeviation(values)
	return p
}
