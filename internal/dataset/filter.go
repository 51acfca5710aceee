package dataset

import (
	"strconv"
	"strings"

	"molview/domain/molecule"
)

// Range bounds a numeric column filter. Nil ends are open.
type Range struct {
	Min *float64
	Max *float64
}

// Filter selects records without mutating the dataset. All clauses are
// conjunctive.
type Filter struct {
	Query   string            // substring across all property values
	SMILES  string            // substring on the structural identifier
	Columns map[string]string // per-column substring
	Ranges  map[string]Range  // per-column numeric bounds
}

// IsZero reports whether the filter selects everything.
func (f Filter) IsZero() bool {
	return f.Query == "" && f.SMILES == "" && len(f.Columns) == 0 && len(f.Ranges) == 0
}

// Apply returns pointers into the dataset's record slice for every record
// the filter keeps. The dataset itself is never modified.
func Apply(ds *molecule.Dataset, f Filter) []*molecule.Record {
	if ds == nil {
		return nil
	}
	out := make([]*molecule.Record, 0, len(ds.Records))
	for i := range ds.Records {
		rec := &ds.Records[i]
		if matches(rec, f) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec *molecule.Record, f Filter) bool {
	if f.Query != "" && !matchesQuery(rec, f.Query) {
		return false
	}
	if f.SMILES != "" && !strings.Contains(rec.SMILES, f.SMILES) {
		return false
	}
	for col, needle := range f.Columns {
		if needle == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(rec.Property(col)), strings.ToLower(needle)) {
			return false
		}
	}
	for col, r := range f.Ranges {
		v, err := strconv.ParseFloat(rec.Property(col), 64)
		if err != nil {
			return false
		}
		if r.Min != nil && v < *r.Min {
			return false
		}
		if r.Max != nil && v > *r.Max {
			return false
		}
	}
	return true
}

func matchesQuery(rec *molecule.Record, query string) bool {
	q := strings.ToLower(query)
	for _, v := range rec.Properties {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// Page is one window of a filtered record list.
type Page struct {
	Records      []*molecule.Record
	Number       int
	PerPage      int
	TotalPages   int
	TotalRecords int
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

const defaultPerPage = 25

// Paginate slices a filtered record list. Out-of-range page numbers are
// clamped rather than erroring.
func Paginate(recs []*molecule.Record, page, perPage int) Page {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	total := len(recs)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Records:      recs[start:end],
		Number:       page,
		PerPage:      perPage,
		TotalPages:   totalPages,
		TotalRecords: total,
	}
}
