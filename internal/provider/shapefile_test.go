package provider

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// writeShapefile creates a shapefile with a NAME attribute per shape.
func writeShapefile(t *testing.T, path string, typ shp.ShapeType, shapes []shp.Shape, names []string) {
	t.Helper()
	w, err := shp.Create(path, typ)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 40)}))
	for i, s := range shapes {
		idx := w.Write(s)
		require.NoError(t, w.WriteAttribute(int(idx), 0, names[i]))
	}
	w.Close()
}

func TestShapefile_Load(t *testing.T) {
	dir := t.TempDir()
	critical := filepath.Join(dir, "critical.shp")
	roads := filepath.Join(dir, "roads.shp")

	writeShapefile(t, critical, shp.POINT, []shp.Shape{
		&shp.Point{X: 0, Y: 0},
		&shp.Point{X: 600, Y: 0},
	}, []string{"Central Hospital", ""})

	writeShapefile(t, roads, shp.POLYLINE, []shp.Shape{
		&shp.PolyLine{
			NumParts:  1,
			NumPoints: 2,
			Parts:     []int32{0},
			Points:    []shp.Point{{X: -1000, Y: 950}, {X: 1000, Y: 950}},
		},
	}, []string{"Primary"})

	ds, err := NewShapefile(Layers{Critical: critical, Roads: roads}, Options{SRID: 3857}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shapefile", ds.Source)

	require.Equal(t, 2, ds.Critical.Len())
	assert.Equal(t, "0", ds.Critical.Features[0].ID)
	assert.Equal(t, "Central Hospital", ds.Critical.Features[0].Name)
	assert.Equal(t, "Site_1", ds.Critical.Features[1].Name)
	assert.Equal(t, 3857, ds.Critical.SRID)

	require.Equal(t, 1, ds.Roads.Len())
	ls, ok := ds.Roads.Features[0].Geom.(*geom.LineString)
	require.True(t, ok)
	assert.Equal(t, 2, ls.NumCoords())
	assert.Equal(t, "Primary", ds.Roads.Features[0].Name)

	assert.True(t, ds.Candidates.IsEmpty())
}

func TestShapefile_OpenError(t *testing.T) {
	_, err := NewShapefile(Layers{Roads: filepath.Join(t.TempDir(), "none.shp")}, Options{}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shapefile: open")
}

func TestShapeToGeom_PolygonWithHole(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			// Outer ring, clockwise.
			{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0},
			// Hole, counter-clockwise.
			{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2},
		},
	}

	g := shapeToGeom(poly)
	p, ok := g.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 2, p.NumLinearRings())
	assert.InDelta(t, 96.0, p.Area(), 1e-9)
}

func TestShapeToGeom_MultiPartPolygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0},
			{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 5}, {X: 5, Y: 5},
		},
	}

	mp, ok := shapeToGeom(poly).(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.InDelta(t, 2.0, mp.Area(), 1e-9)
}

func TestShapeToGeom_Lines(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 2,
		Parts:    []int32{0, 2},
		Points:   []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 5, Y: 5}, {X: 6, Y: 6}},
	}
	mls, ok := shapeToGeom(pl).(*geom.MultiLineString)
	require.True(t, ok)
	assert.Equal(t, 2, mls.NumLineStrings())

	assert.Nil(t, shapeToGeom(&shp.PolyLine{}))
	assert.Nil(t, shapeToGeom(nil))
	assert.Nil(t, shapeToGeom(&shp.Null{}))
}

func TestSignedArea(t *testing.T) {
	cw := []float64{0, 0, 0, 1, 1, 1, 1, 0, 0, 0}
	ccw := []float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0}
	assert.Equal(t, -1.0, signedArea(cw))
	assert.Equal(t, 1.0, signedArea(ccw))
}
