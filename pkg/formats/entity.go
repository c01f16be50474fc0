// Package formats provides decoders for the POD asset formats.
// DEF (entity definition) parser: a fixed-schema, line-oriented text format
// holding an entity type catalog followed by entity placements.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Sentinel lines framing each entity type record.
const (
	SentinelHit          = ";NewHit"
	SentinelAttackReturn = "!NewAtakRet"
	SentinelSecondWeapon = "#New2ndweapon"
	SentinelSFX          = "%SFX"
)

// LinesPerEntityType is the fixed number of lines of one type record.
const LinesPerEntityType = 14

// Placement coordinates are 12.20 fixed point, further divided by
// WorldUnitDivisor to reach terrain units.
const (
	CoordFractionBits = 20
	WorldUnitDivisor  = 8
)

// MapCenterOffset recenters x and z on the terrain mesh, whose grid is
// centered on the origin. Tied to a 32-unit map extent.
const MapCenterOffset = 32 - 16

// ErrEntitySyntax is wrapped by every ParseError.
var ErrEntitySyntax = errors.New("malformed entity definition")

// ParseError reports where and why entity parsing stopped.
type ParseError struct {
	Line     int // 1-based line number
	Reason   string
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	if e.Expected != "" {
		msg += fmt.Sprintf(" (expected %s, found %q)", e.Expected, e.Found)
	}
	return msg
}

// Unwrap lets callers match any parse failure with errors.Is(err, ErrEntitySyntax).
func (e *ParseError) Unwrap() error {
	return ErrEntitySyntax
}

// Drop is an item dropped when an entity is destroyed.
type Drop struct {
	Probability float32 // 0-1
	Item        int
}

// EntityType is one entry of the type catalog.
type EntityType struct {
	ClassID        int
	Model          string // Model file name
	DestroyedModel string // Model shown after destruction
	Drops          [2]Drop
	Description    string
}

// EntityPlacement positions an entity of a catalog type in the world.
type EntityPlacement struct {
	Type     int        // Index into EntityCatalog.Types
	Flags    uint16     // Behaviour bitmask
	Raw      [3]int32   // Stored fixed-point x, y, z
	Position [3]float32 // World position, x/z swapped and recentered
}

// EntityCatalog is a parsed DEF file.
type EntityCatalog struct {
	Types      []EntityType
	Placements []EntityPlacement
}

// TypeOf returns the catalog type of a placement.
func (c *EntityCatalog) TypeOf(p EntityPlacement) *EntityType {
	if p.Type < 0 || p.Type >= len(c.Types) {
		return nil
	}
	return &c.Types[p.Type]
}

// WorldPosition converts stored fixed-point coordinates to world space.
// Storage order is x, y, z; the terrain mesh uses rows along x and columns
// along z, so the horizontal axes swap.
func WorldPosition(raw [3]int32) [3]float32 {
	return [3]float32{
		fixedToWorld(raw[2]) + MapCenterOffset,
		fixedToWorld(raw[1]),
		fixedToWorld(raw[0]) + MapCenterOffset,
	}
}

func fixedToWorld(v int32) float32 {
	return float32(float64(v) / (1 << CoordFractionBits) / WorldUnitDivisor)
}

// ParseEntitiesData parses a DEF file from a byte slice.
func ParseEntitiesData(data []byte) (*EntityCatalog, error) {
	return ParseEntities(bytes.NewReader(data))
}

// ParseEntities parses a DEF stream.
func ParseEntities(r io.Reader) (*EntityCatalog, error) {
	c := newLineCursor(r)
	catalog := &EntityCatalog{}

	typeCount, err := c.count("entity type count")
	if err != nil {
		return nil, err
	}
	catalog.Types = make([]EntityType, 0, min(typeCount, 1024))
	for i := 0; i < typeCount; i++ {
		et, err := parseEntityType(c)
		if err != nil {
			return nil, err
		}
		catalog.Types = append(catalog.Types, et)
	}

	placementCount, err := c.count("entity placement count")
	if err != nil {
		return nil, err
	}
	catalog.Placements = make([]EntityPlacement, 0, min(placementCount, 4096))
	for i := 0; i < placementCount; i++ {
		p, err := parsePlacement(c, len(catalog.Types))
		if err != nil {
			return nil, err
		}
		catalog.Placements = append(catalog.Placements, p)
	}

	return catalog, nil
}

// parseEntityType consumes the 14 lines of one type record.
func parseEntityType(c *lineCursor) (EntityType, error) {
	var et EntityType

	// 1: class id, five unused fields, model, destroyed model
	f, err := c.fields("type header", 8)
	if err != nil {
		return et, err
	}
	if et.ClassID, err = c.atoi(f[0], "class id"); err != nil {
		return et, err
	}
	et.Model = strings.TrimSpace(f[6])
	et.DestroyedModel = strings.TrimSpace(f[7])

	// 2: unused
	if err := c.skip("type attributes"); err != nil {
		return et, err
	}

	// 3: two (percent, item) drop pairs
	f, err = c.fields("drop table", 4)
	if err != nil {
		return et, err
	}
	for i := range et.Drops {
		percent, err := c.atoi(f[i*2], "drop percent")
		if err != nil {
			return et, err
		}
		if percent < 0 || percent > 100 {
			return et, c.fail("drop percent out of range", "0-100", f[i*2])
		}
		item, err := c.atoi(f[i*2+1], "drop item")
		if err != nil {
			return et, err
		}
		et.Drops[i] = Drop{Probability: float32(percent) / 100, Item: item}
	}

	// 4-8: unused, hit sentinel, unused, attack-return sentinel, unused
	if err := c.skip("type flags"); err != nil {
		return et, err
	}
	if err := c.expect(SentinelHit); err != nil {
		return et, err
	}
	if err := c.skip("hit record"); err != nil {
		return et, err
	}
	if err := c.expect(SentinelAttackReturn); err != nil {
		return et, err
	}
	if err := c.skip("attack record"); err != nil {
		return et, err
	}

	// 9: free text description
	if et.Description, err = c.next("description"); err != nil {
		return et, err
	}

	// 10-14: second weapon sentinel, unused, SFX sentinel, two sound files
	if err := c.expect(SentinelSecondWeapon); err != nil {
		return et, err
	}
	if err := c.skip("second weapon record"); err != nil {
		return et, err
	}
	if err := c.expect(SentinelSFX); err != nil {
		return et, err
	}
	if err := c.skip("primary sound"); err != nil {
		return et, err
	}
	if err := c.skip("secondary sound"); err != nil {
		return et, err
	}

	return et, nil
}

// parsePlacement parses "type,flags,x,y,z,a,b,c".
func parsePlacement(c *lineCursor, typeCount int) (EntityPlacement, error) {
	var p EntityPlacement

	f, err := c.fields("placement", 8)
	if err != nil {
		return p, err
	}

	if p.Type, err = c.atoi(f[0], "type index"); err != nil {
		return p, err
	}
	if p.Type < 0 || p.Type >= typeCount {
		return p, c.fail("type index out of range", fmt.Sprintf("0-%d", typeCount-1), f[0])
	}

	flags, err := strconv.ParseUint(strings.TrimSpace(f[1]), 10, 16)
	if err != nil {
		return p, c.fail("invalid flags", "16-bit unsigned integer", f[1])
	}
	p.Flags = uint16(flags)

	for i := 0; i < 3; i++ {
		v, err := strconv.ParseInt(strings.TrimSpace(f[2+i]), 10, 32)
		if err != nil {
			return p, c.fail("invalid coordinate", "32-bit integer", f[2+i])
		}
		p.Raw[i] = int32(v)
	}
	p.Position = WorldPosition(p.Raw)

	return p, nil
}

// lineCursor walks the input one trimmed line at a time and tracks the line
// number for diagnostics.
type lineCursor struct {
	sc   *bufio.Scanner
	line int
}

func newLineCursor(r io.Reader) *lineCursor {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return &lineCursor{sc: sc}
}

// next returns the next line with trailing whitespace (including CR) removed.
func (c *lineCursor) next(role string) (string, error) {
	if !c.sc.Scan() {
		if err := c.sc.Err(); err != nil {
			return "", &ParseError{Line: c.line + 1, Reason: "reading input: " + err.Error()}
		}
		return "", &ParseError{Line: c.line + 1, Reason: "unexpected end of input", Expected: role}
	}
	c.line++
	return strings.TrimRight(c.sc.Text(), " \t\r\n"), nil
}

func (c *lineCursor) skip(role string) error {
	_, err := c.next(role)
	return err
}

// expect consumes a sentinel line. A mismatch means the reader lost framing.
func (c *lineCursor) expect(sentinel string) error {
	line, err := c.next(sentinel)
	if err != nil {
		return err
	}
	if line != sentinel {
		return c.fail("sentinel mismatch", sentinel, line)
	}
	return nil
}

// fields splits the next line on commas and requires at least n fields.
func (c *lineCursor) fields(role string, n int) ([]string, error) {
	line, err := c.next(role)
	if err != nil {
		return nil, err
	}
	f := strings.Split(line, ",")
	if len(f) < n {
		return nil, c.fail("too few fields in "+role, fmt.Sprintf("%d fields", n), line)
	}
	return f, nil
}

// count reads a line holding a single non-negative decimal count.
func (c *lineCursor) count(role string) (int, error) {
	line, err := c.next(role)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 {
		return 0, c.fail("invalid "+role, "non-negative integer", line)
	}
	return n, nil
}

func (c *lineCursor) atoi(s, role string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, c.fail("invalid "+role, "integer", s)
	}
	return n, nil
}

// fail builds a ParseError for the current line.
func (c *lineCursor) fail(reason, expected, found string) *ParseError {
	return &ParseError{Line: c.line, Reason: reason, Expected: expected, Found: found}
}
