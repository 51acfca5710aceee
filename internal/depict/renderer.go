package depict

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"molview/domain/core"
	"molview/domain/molecule"
)

const maxDepictAtoms = 300

// Renderer produces cached SVG depictions of dataset records. Layout
// generation is the expensive step, so concurrent renders are bounded
// by a weighted semaphore.
type Renderer struct {
	cache  *Cache
	sem    *semaphore.Weighted
	width  int
	height int
}

func NewRenderer(width, height, cacheSize int, maxParallel int64) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Renderer{
		cache:  NewCache(cacheSize),
		sem:    semaphore.NewWeighted(maxParallel),
		width:  width,
		height: height,
	}
}

// RecordSVG renders one record at the renderer's default geometry.
func (r *Renderer) RecordSVG(ctx context.Context, rec *molecule.Record) (string, error) {
	return r.RecordSVGSized(ctx, rec, r.width, r.height)
}

// RecordSVGSized renders one record at an explicit size. Results are
// cached per structure and geometry.
func (r *Renderer) RecordSVGSized(ctx context.Context, rec *molecule.Record, w, h int) (string, error) {
	if rec == nil || rec.Mol == nil {
		return "", core.ErrDepictionFailed
	}
	if rec.Mol.AtomCount() > maxDepictAtoms {
		return "", core.ErrMoleculeTooLarge
	}

	key := fmt.Sprintf("%s|%dx%d", rec.SMILES, w, h)
	if svg, ok := r.cache.Get(key); ok {
		return svg, nil
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)

	// Layout mutates coordinates, so work on a copy; the record may be
	// rendered concurrently at several sizes.
	mol := cloneMolecule(rec.Mol)
	GenerateCoords(mol)
	svg := RenderSVG(mol, Options{Width: w, Height: h})

	r.cache.Put(key, svg)
	return svg, nil
}

// Placeholder renders the error tile at the renderer's default geometry.
func (r *Renderer) Placeholder(msg string) string {
	return PlaceholderSVG(r.width, r.height, msg)
}

// PlaceholderSized renders the error tile at an explicit size.
func (r *Renderer) PlaceholderSized(w, h int, msg string) string {
	return PlaceholderSVG(w, h, msg)
}

// CacheStats exposes the depiction cache counters.
func (r *Renderer) CacheStats() Stats {
	return r.cache.Stats()
}

func cloneMolecule(m *molecule.Molecule) *molecule.Molecule {
	out := &molecule.Molecule{
		Atoms:     make([]molecule.Atom, len(m.Atoms)),
		Bonds:     make([]molecule.Bond, len(m.Bonds)),
		HasCoords: m.HasCoords,
	}
	copy(out.Atoms, m.Atoms)
	copy(out.Bonds, m.Bonds)
	return out
}
