// Package geometry holds the shared feature types and the GEOS-backed shape
// engine used by the zone, evaluate and mcda stages.
package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Kind is the geometry family of a feature or shape.
type Kind int

// Supported geometry kinds.
const (
	KindUnknown Kind = iota
	KindPoint
	KindLine
	KindPolygon
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// KindOf classifies a go-geom geometry. Multi-part variants share the kind of
// their single-part counterpart.
func KindOf(g geom.T) (Kind, error) {
	switch g.(type) {
	case *geom.Point, *geom.MultiPoint:
		return KindPoint, nil
	case *geom.LineString, *geom.MultiLineString:
		return KindLine, nil
	case *geom.Polygon, *geom.MultiPolygon:
		return KindPolygon, nil
	case nil:
		return KindUnknown, eris.New("geometry: nil geometry")
	default:
		return KindUnknown, eris.Errorf("geometry: unsupported geometry type %T", g)
	}
}

// TypeName returns the GeoJSON-style type name of g ("Point", "MultiPolygon", ...).
func TypeName(g geom.T) string {
	switch g.(type) {
	case *geom.Point:
		return "Point"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.LineString:
		return "LineString"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	case *geom.GeometryCollection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}

// Feature is an immutable geometry plus attributes as supplied by a provider.
// Coordinates are planar and metric.
type Feature struct {
	ID    string
	Name  string
	Geom  geom.T
	Attrs map[string]any
}

// Label returns the feature name, falling back to its ID.
func (f Feature) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}

// Kind returns the geometry kind of the feature, or KindUnknown.
func (f Feature) Kind() Kind {
	k, _ := KindOf(f.Geom)
	return k
}

// Collection is an ordered, read-only set of features sharing one SRID.
type Collection struct {
	Name     string
	SRID     int
	Features []Feature
}

// NewCollection builds a Collection.
func NewCollection(name string, srid int, features ...Feature) Collection {
	return Collection{Name: name, SRID: srid, Features: features}
}

// Len returns the number of features.
func (c Collection) Len() int { return len(c.Features) }

// IsEmpty reports whether the collection holds no features.
func (c Collection) IsEmpty() bool { return len(c.Features) == 0 }

// GeometryTypes returns the distinct geometry type names in first-seen order.
func (c Collection) GeometryTypes() []string {
	seen := make(map[string]bool)
	var types []string
	for _, f := range c.Features {
		name := TypeName(f.Geom)
		if !seen[name] {
			seen[name] = true
			types = append(types, name)
		}
	}
	return types
}
