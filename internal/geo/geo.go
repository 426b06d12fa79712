package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/artillery/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Points are stored as planar XY in WKB. The battlefield is a flat plane in metres,
// so no projection is applied.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PointFromPosition converts a core position to a 2D geometry point.
// Non-finite coordinates are rejected with ErrInvalidCoordinates.
func PointFromPosition(p core.Position) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return pt, nil
}

// PositionFromPoint converts a point back to a position. Empty points yield the origin.
func PositionFromPoint(pt geom.Point) core.Position {
	c, ok := pt.Coordinates()
	if !ok {
		return core.Position{}
	}
	return core.Pos2(c.XY.X, c.XY.Y)
}

// PositionFromString parses "x,y" into a position.
func PositionFromString(coords string) (core.Position, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Position{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	return core.Pos2(x, y), nil
}

// LineStringFromPositions builds a flight path. Fewer than two positions give an empty line.
// A path that never moves or contains non-finite coordinates is rejected.
func LineStringFromPositions(path []core.Position) (geom.LineString, error) {
	if len(path) < 2 {
		return geom.LineString{}, nil
	}
	flat := make([]float64, 0, len(path)*2)
	for _, p := range path {
		flat = append(flat, p.X, p.Y)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return ls, nil
}

// PositionsFromLineString is the inverse of LineStringFromPositions.
func PositionsFromLineString(ls geom.LineString) []core.Position {
	seq := ls.Coordinates()
	out := make([]core.Position, seq.Length())
	for i := range out {
		xy := seq.GetXY(i)
		out[i] = core.Pos2(xy.X, xy.Y)
	}
	return out
}
