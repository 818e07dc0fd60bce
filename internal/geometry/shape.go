package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// Shape is a GEOS geometry tagged with its Kind. Operations are uniform across
// kinds; the zero Shape behaves as an empty geometry.
type Shape struct {
	kind Kind
	g    *geos.Geom
	eng  *Engine
}

// Kind returns the shape's geometry family.
func (s Shape) Kind() Kind { return s.kind }

// IsEmpty reports whether s holds no points at all.
func (s Shape) IsEmpty() bool {
	if s.g == nil {
		return true
	}
	empty, err := safely("is empty", s.g.IsEmpty)
	return err != nil || empty
}

// Area returns the planar area in square units; points and lines have zero area.
func (s Shape) Area() float64 {
	if s.g == nil {
		return 0
	}
	area, err := safely("area", s.g.Area)
	if err != nil {
		return 0
	}
	return area
}

// IsValid reports OGC validity and, when invalid, the GEOS reason.
func (s Shape) IsValid() (bool, string) {
	if s.g == nil {
		return true, ""
	}
	valid, err := safely("is valid", s.g.IsValid)
	if err != nil {
		return false, err.Error()
	}
	if valid {
		return true, ""
	}
	reason, _ := safely("is valid reason", s.g.IsValidReason)
	return false, reason
}

// Buffer returns the set of points within distance of s, approximated with
// round caps and joins. The result is always polygonal.
func (s Shape) Buffer(distance float64) (Shape, error) {
	if s.g == nil {
		return Shape{}, eris.New("geometry: buffer of empty shape")
	}
	quadSegs := DefaultQuadSegs
	if s.eng != nil {
		quadSegs = s.eng.quadSegs
	}
	g, err := geomOp("buffer", func() *geos.Geom { return s.g.Buffer(distance, quadSegs) })
	if err != nil {
		return Shape{}, err
	}
	return Shape{kind: KindPolygon, g: g, eng: s.eng}, nil
}

// Intersects reports whether s and other share at least one point.
func (s Shape) Intersects(other Shape) (bool, error) {
	if s.IsEmpty() || other.IsEmpty() {
		return false, nil
	}
	return safely("intersects", func() bool { return s.g.Intersects(other.g) })
}

// Contains reports whether other lies inside s.
func (s Shape) Contains(other Shape) (bool, error) {
	if s.IsEmpty() || other.IsEmpty() {
		return false, nil
	}
	return safely("contains", func() bool { return s.g.Contains(other.g) })
}

// Difference returns s minus other, keeping the kind of s.
func (s Shape) Difference(other Shape) (Shape, error) {
	if s.g == nil {
		return Shape{}, eris.New("geometry: difference of empty shape")
	}
	if other.IsEmpty() {
		return Shape{kind: s.kind, g: s.g.Clone(), eng: s.eng}, nil
	}
	g, err := geomOp("difference", func() *geos.Geom { return s.g.Difference(other.g) })
	if err != nil {
		return Shape{}, err
	}
	return Shape{kind: s.kind, g: g, eng: s.eng}, nil
}

// Distance returns the minimum Euclidean distance between s and other.
func (s Shape) Distance(other Shape) (float64, error) {
	if s.IsEmpty() || other.IsEmpty() {
		return 0, eris.New("geometry: distance to empty shape")
	}
	return safely("distance", func() float64 { return s.g.Distance(other.g) })
}

// Geom converts s back into a go-geom geometry for export collaborators.
func (s Shape) Geom() (geom.T, error) {
	if s.g == nil {
		return nil, eris.New("geometry: zero shape")
	}
	g, err := wkb.Unmarshal(s.g.ToWKB())
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode WKB")
	}
	return g, nil
}
