package chem

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"molview/domain/core"
	"molview/domain/molecule"
)

// SDFRecord is one entry of a structure-data file: the parsed structure
// plus the entry's data fields.
type SDFRecord struct {
	Mol        *molecule.Molecule
	Properties map[string]string
	Line       int // line number where the entry started, for error reporting
}

// SDFResult carries the outcome of parsing a whole SDF stream. Entries
// whose structure block fails to parse are counted, not fatal.
type SDFResult struct {
	Records []SDFRecord
	Skipped int
}

const maxSDFLineBytes = 1024 * 1024

// ParseSDF reads a V2000 structure-data file: one or more molfile blocks,
// each followed by optional `> <field>` data blocks and a `$$$$` terminator.
func ParseSDF(r io.Reader) (*SDFResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxSDFLineBytes)

	result := &SDFResult{}
	var entry []string
	entryStart := 1
	lineNo := 0

	flush := func() {
		if isBlankEntry(entry) {
			entry = nil
			return
		}
		rec, err := parseSDFEntry(entry, entryStart)
		if err != nil {
			result.Skipped++
		} else {
			result.Records = append(result.Records, rec)
		}
		entry = nil
	}

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "$$$$" {
			flush()
			entryStart = lineNo + 1
			continue
		}
		entry = append(entry, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read SDF stream: %w", err)
	}
	// A final entry without a trailing $$$$ is still accepted.
	flush()

	return result, nil
}

func isBlankEntry(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// parseSDFEntry parses a single entry: molfile block through `M  END`,
// then data fields.
func parseSDFEntry(lines []string, startLine int) (SDFRecord, error) {
	molEnd := -1
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "M  END") {
			molEnd = i
			break
		}
	}
	if molEnd < 0 {
		return SDFRecord{}, core.NewStructureParseError(startLine, fmt.Errorf("missing M  END"))
	}

	mol, err := parseMolBlock(lines[:molEnd+1])
	if err != nil {
		return SDFRecord{}, core.NewStructureParseError(startLine, err)
	}

	props := parseDataFields(lines[molEnd+1:])
	return SDFRecord{Mol: mol, Properties: props, Line: startLine}, nil
}

// parseMolBlock parses a V2000 molfile: three header lines, a counts line,
// the atom block, the bond block, and property lines (`M  CHG` honored).
func parseMolBlock(lines []string) (*molecule.Molecule, error) {
	if len(lines) < 4 {
		return nil, fmt.Errorf("molfile too short (%d lines)", len(lines))
	}

	counts := lines[3]
	if len(counts) < 6 {
		return nil, fmt.Errorf("counts line too short: %q", counts)
	}
	atomCount, err := strconv.Atoi(strings.TrimSpace(counts[0:3]))
	if err != nil {
		return nil, fmt.Errorf("bad atom count: %w", err)
	}
	bondCount, err := strconv.Atoi(strings.TrimSpace(counts[3:6]))
	if err != nil {
		return nil, fmt.Errorf("bad bond count: %w", err)
	}
	if atomCount <= 0 {
		return nil, fmt.Errorf("molfile declares no atoms")
	}
	if len(lines) < 4+atomCount+bondCount {
		return nil, fmt.Errorf("molfile truncated: need %d atom + %d bond lines", atomCount, bondCount)
	}

	mol := &molecule.Molecule{
		Atoms:     make([]molecule.Atom, atomCount),
		Bonds:     make([]molecule.Bond, 0, bondCount),
		HasCoords: true,
	}

	for i := 0; i < atomCount; i++ {
		line := lines[4+i]
		if len(line) < 34 {
			return nil, fmt.Errorf("atom line %d too short", i+1)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(line[0:10]), 64)
		if err != nil {
			return nil, fmt.Errorf("atom line %d: bad x coordinate", i+1)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(line[10:20]), 64)
		if err != nil {
			return nil, fmt.Errorf("atom line %d: bad y coordinate", i+1)
		}
		symbol := strings.TrimSpace(line[31:34])
		if symbol == "" {
			return nil, fmt.Errorf("atom line %d: missing element symbol", i+1)
		}
		mol.Atoms[i] = molecule.Atom{X: x, Y: y, Symbol: symbol, HCount: -1}
	}

	for i := 0; i < bondCount; i++ {
		line := lines[4+atomCount+i]
		if len(line) < 9 {
			return nil, fmt.Errorf("bond line %d too short", i+1)
		}
		from, err := strconv.Atoi(strings.TrimSpace(line[0:3]))
		if err != nil {
			return nil, fmt.Errorf("bond line %d: bad from index", i+1)
		}
		to, err := strconv.Atoi(strings.TrimSpace(line[3:6]))
		if err != nil {
			return nil, fmt.Errorf("bond line %d: bad to index", i+1)
		}
		order, err := strconv.Atoi(strings.TrimSpace(line[6:9]))
		if err != nil {
			return nil, fmt.Errorf("bond line %d: bad bond order", i+1)
		}
		if from < 1 || from > atomCount || to < 1 || to > atomCount {
			return nil, fmt.Errorf("bond line %d: atom index out of range", i+1)
		}
		if order < 1 || order > 4 {
			order = 1
		}
		mol.Bonds = append(mol.Bonds, molecule.Bond{From: from - 1, To: to - 1, Order: order})
	}

	// Property lines between bonds and M END.
	for _, line := range lines[4+atomCount+bondCount:] {
		if strings.HasPrefix(line, "M  CHG") {
			applyChargeLine(mol, line)
		}
	}

	markAromatic(mol)
	fillImplicitHydrogens(mol)
	return mol, nil
}

// applyChargeLine handles `M  CHG n aaa vvv ...` property lines.
func applyChargeLine(mol *molecule.Molecule, line string) {
	fields := strings.Fields(line)
	// M, CHG, count, then pairs of (atom index, charge).
	if len(fields) < 5 {
		return
	}
	for i := 3; i+1 < len(fields); i += 2 {
		idx, err1 := strconv.Atoi(fields[i])
		chg, err2 := strconv.Atoi(fields[i+1])
		if err1 != nil || err2 != nil || idx < 1 || idx > len(mol.Atoms) {
			continue
		}
		mol.Atoms[idx-1].Charge = chg
	}
}

// markAromatic flags atoms that participate in an order-4 bond.
func markAromatic(mol *molecule.Molecule) {
	for _, b := range mol.Bonds {
		if b.Order == 4 {
			mol.Atoms[b.From].Aromatic = true
			mol.Atoms[b.To].Aromatic = true
		}
	}
}

// parseDataFields parses `> <field>` blocks after the molfile. Multi-line
// values keep their embedded newlines.
func parseDataFields(lines []string) map[string]string {
	props := map[string]string{}
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, ">") {
			i++
			continue
		}
		name := fieldNameOf(line)
		i++
		var values []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			if strings.HasPrefix(strings.TrimSpace(lines[i]), ">") {
				break
			}
			values = append(values, strings.TrimRight(lines[i], "\r"))
			i++
		}
		if name != "" {
			props[name] = strings.Join(values, "\n")
		}
	}
	return props
}

// fieldNameOf extracts NAME from a `> <NAME>` header, tolerating the
// `> <NAME> (n)` registry-number variant.
func fieldNameOf(header string) string {
	open := strings.Index(header, "<")
	if open < 0 {
		return ""
	}
	end := strings.Index(header[open:], ">")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(header[open+1 : open+end])
}
