package depict

import (
	"fmt"
	"html"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"molview/domain/molecule"
)

// Options controls rendering geometry. Zero values fall back to the
// defaults used by the grid and detail panels.
type Options struct {
	Width  int
	Height int
}

const (
	defaultWidth  = 120
	defaultHeight = 100
	svgPadding    = 10.0
	labelRadius   = 7.0
	doubleGap     = 0.10 // fraction of bond length between double-bond lines
)

// elementColors follows the conventional depiction palette.
var elementColors = map[string]string{
	"N":  "#3050f8",
	"O":  "#e00000",
	"S":  "#b09000",
	"F":  "#20a020",
	"Cl": "#20a020",
	"Br": "#a62929",
	"I":  "#940094",
	"P":  "#ff8000",
}

// RenderSVG draws a molecule as an SVG document. Coordinates are taken
// from the molecule; call GenerateCoords first for structures without
// them.
func RenderSVG(mol *molecule.Molecule, opts Options) string {
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	if mol == nil || len(mol.Atoms) == 0 {
		return PlaceholderSVG(w, h, "no structure")
	}

	pts, scale := fitToCanvas(mol, float64(w), float64(h))

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, w, h, w, h)
	sb.WriteString(`<rect width="100%" height="100%" fill="white"/>`)

	for _, b := range mol.Bonds {
		drawBond(&sb, mol, b, pts, scale)
	}
	for i, a := range mol.Atoms {
		drawAtom(&sb, a, pts[i])
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

// PlaceholderSVG renders the inline error tile shown when a structure
// cannot be depicted.
func PlaceholderSVG(w, h int, msg string) string {
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, w, h, w, h)
	sb.WriteString(`<rect width="100%" height="100%" fill="#f8f8f8" stroke="#ddd"/>`)
	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="10" fill="#888" text-anchor="middle">%s</text>`,
		w/2, h/2, html.EscapeString(msg))
	sb.WriteString(`</svg>`)
	return sb.String()
}

// fitToCanvas maps molecule coordinates into canvas pixels, preserving
// aspect ratio and flipping the y axis.
func fitToCanvas(mol *molecule.Molecule, w, h float64) ([]r2.Vec, float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, a := range mol.Atoms {
		minX = math.Min(minX, a.X)
		minY = math.Min(minY, a.Y)
		maxX = math.Max(maxX, a.X)
		maxY = math.Max(maxY, a.Y)
	}
	spanX := maxX - minX
	spanY := maxY - minY

	scale := 30.0 // single-atom case
	if spanX > 1e-9 || spanY > 1e-9 {
		sx, sy := math.Inf(1), math.Inf(1)
		if spanX > 1e-9 {
			sx = (w - 2*svgPadding) / spanX
		}
		if spanY > 1e-9 {
			sy = (h - 2*svgPadding) / spanY
		}
		scale = math.Min(sx, sy)
		scale = math.Min(scale, 30.0)
	}

	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	pts := make([]r2.Vec, len(mol.Atoms))
	for i, a := range mol.Atoms {
		pts[i] = r2.Vec{
			X: w/2 + (a.X-cx)*scale,
			Y: h/2 - (a.Y-cy)*scale,
		}
	}
	return pts, scale
}

func drawBond(sb *strings.Builder, mol *molecule.Molecule, b molecule.Bond, pts []r2.Vec, scale float64) {
	p, q := pts[b.From], pts[b.To]
	p = trimEndpoint(p, q, mol.Atoms[b.From])
	q = trimEndpoint(q, p, mol.Atoms[b.To])

	switch b.Order {
	case 2:
		off := perpOffset(p, q, doubleGap*scale)
		drawLine(sb, r2.Add(p, off), r2.Add(q, off), false)
		drawLine(sb, r2.Sub(p, off), r2.Sub(q, off), false)
	case 3:
		off := perpOffset(p, q, doubleGap*scale*1.4)
		drawLine(sb, p, q, false)
		drawLine(sb, r2.Add(p, off), r2.Add(q, off), false)
		drawLine(sb, r2.Sub(p, off), r2.Sub(q, off), false)
	case 4:
		off := perpOffset(p, q, doubleGap*scale)
		drawLine(sb, r2.Add(p, off), r2.Add(q, off), false)
		drawLine(sb, r2.Sub(p, off), r2.Sub(q, off), true)
	default:
		drawLine(sb, p, q, false)
	}
}

// trimEndpoint pulls a bond endpoint back from a labeled atom so the
// line does not cross the text.
func trimEndpoint(p, toward r2.Vec, a molecule.Atom) r2.Vec {
	if !atomHasLabel(a) {
		return p
	}
	d := r2.Sub(toward, p)
	norm := math.Hypot(d.X, d.Y)
	if norm < labelRadius {
		return p
	}
	return r2.Add(p, r2.Scale(labelRadius/norm, d))
}

func perpOffset(p, q r2.Vec, gap float64) r2.Vec {
	d := r2.Sub(q, p)
	norm := math.Hypot(d.X, d.Y)
	if norm < 1e-9 {
		return r2.Vec{}
	}
	return r2.Scale(gap/norm, r2.Vec{X: -d.Y, Y: d.X})
}

func drawLine(sb *strings.Builder, p, q r2.Vec, dashed bool) {
	dash := ""
	if dashed {
		dash = ` stroke-dasharray="3,2"`
	}
	fmt.Fprintf(sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#202020" stroke-width="1.2"%s/>`,
		p.X, p.Y, q.X, q.Y, dash)
}

// atomHasLabel reports whether an atom is drawn as text. Plain carbons
// stay implicit.
func atomHasLabel(a molecule.Atom) bool {
	return a.Symbol != "C" || a.Charge != 0
}

func drawAtom(sb *strings.Builder, a molecule.Atom, p r2.Vec) {
	if !atomHasLabel(a) {
		return
	}
	color, ok := elementColors[a.Symbol]
	if !ok {
		color = "#202020"
	}
	fmt.Fprintf(sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="white"/>`, p.X, p.Y, labelRadius)
	fmt.Fprintf(sb, `<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="11" fill="%s" text-anchor="middle" dominant-baseline="central">%s</text>`,
		p.X, p.Y, color, html.EscapeString(atomLabel(a)))
}

// atomLabel renders the element symbol with attached hydrogens and
// charge, e.g. NH2, O-, NH3+.
func atomLabel(a molecule.Atom) string {
	var sb strings.Builder
	sb.WriteString(a.Symbol)
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
		fmt.Fprintf(&sb, "%d+", a.Charge)
	case a.Charge < -1:
		fmt.Fprintf(&sb, "%d-", -a.Charge)
	}
	return sb.String()
}
