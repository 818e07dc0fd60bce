package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// DefaultQuadSegs is the number of segments used to approximate a quarter
// circle when buffering.
const DefaultQuadSegs = 16

// Engine owns one GEOS context. Every shape produced by an engine belongs to
// it; one engine is created per pipeline run.
type Engine struct {
	ctx      *geos.Context
	quadSegs int
}

// Option configures an Engine.
type Option func(*Engine)

// WithQuadSegs sets the buffer resolution. Values < 1 are ignored.
func WithQuadSegs(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.quadSegs = n
		}
	}
}

// NewEngine creates an Engine with a fresh GEOS context.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{ctx: geos.NewContext(), quadSegs: DefaultQuadSegs}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// QuadSegs returns the buffer resolution in use.
func (e *Engine) QuadSegs() int { return e.quadSegs }

// FromGeom converts a go-geom geometry into a Shape.
func (e *Engine) FromGeom(g geom.T) (Shape, error) {
	kind, err := KindOf(g)
	if err != nil {
		return Shape{}, err
	}
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return Shape{}, eris.Wrap(err, "geometry: encode WKB")
	}
	gg, err := e.ctx.NewGeomFromWKB(data)
	if err != nil {
		return Shape{}, eris.Wrap(err, "geometry: decode WKB")
	}
	return Shape{kind: kind, g: gg, eng: e}, nil
}

// Shape converts a feature's geometry into a Shape.
func (e *Engine) Shape(f Feature) (Shape, error) {
	s, err := e.FromGeom(f.Geom)
	if err != nil {
		return Shape{}, eris.Wrapf(err, "geometry: feature %s", f.ID)
	}
	return s, nil
}

// FromWKT parses a WKT string into a Shape.
func (e *Engine) FromWKT(wkt string) (Shape, error) {
	gg, err := e.ctx.NewGeomFromWKT(wkt)
	if err != nil {
		return Shape{}, eris.Wrap(err, "geometry: parse WKT")
	}
	kind := kindOfTypeID(gg.TypeID())
	if kind == KindUnknown && !gg.IsEmpty() {
		return Shape{}, eris.Errorf("geometry: unsupported WKT type id %d", gg.TypeID())
	}
	return Shape{kind: kind, g: gg, eng: e}, nil
}

// Empty returns an empty polygonal shape.
func (e *Engine) Empty() Shape {
	gg, err := e.ctx.NewGeomFromWKT("POLYGON EMPTY")
	if err != nil {
		// A constant WKT literal cannot fail to parse.
		panic(err)
	}
	return Shape{kind: KindPolygon, g: gg, eng: e}
}

// UnionAll returns the geometric union of shapes as one possibly multi-part
// shape. Empty shapes are skipped; an empty input yields Empty(). The shapes
// are gathered into one collection and merged with a cascaded unary union.
func (e *Engine) UnionAll(shapes []Shape) (Shape, error) {
	geoms := make([]*geos.Geom, 0, len(shapes))
	kind := KindPolygon
	for _, s := range shapes {
		if s.IsEmpty() {
			continue
		}
		if len(geoms) == 0 {
			kind = s.kind
		}
		// The collection takes ownership of its parts.
		geoms = append(geoms, s.g.Clone())
	}
	if len(geoms) == 0 {
		return e.Empty(), nil
	}

	u, err := geomOp("union", func() *geos.Geom {
		return e.ctx.NewCollection(geos.TypeIDGeometryCollection, geoms).UnaryUnion()
	})
	if err != nil {
		return Shape{}, err
	}
	return Shape{kind: kind, g: u, eng: e}, nil
}

// safely runs a GEOS operation, converting the panics go-geos raises on GEOS
// errors into eris errors.
func safely[T any](op string, fn func() T) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("geometry: %s: %v", op, r)
		}
	}()
	return fn(), nil
}

// geomOp is safely for operations returning a geometry; a nil result is an error.
func geomOp(op string, fn func() *geos.Geom) (*geos.Geom, error) {
	g, err := safely(op, fn)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, eris.Errorf("geometry: %s: no result", op)
	}
	return g, nil
}

func kindOfTypeID(id geos.TypeID) Kind {
	switch id {
	case geos.TypeIDPoint, geos.TypeIDMultiPoint:
		return KindPoint
	case geos.TypeIDLineString, geos.TypeIDLinearRing, geos.TypeIDMultiLineString:
		return KindLine
	case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
		return KindPolygon
	default:
		return KindUnknown
	}
}
