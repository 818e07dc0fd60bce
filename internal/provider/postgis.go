package provider

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/sells-group/site-select/internal/db"
	"github.com/sells-group/site-select/internal/geometry"
)

// Columns names the id, name and geometry columns of the layer tables.
type Columns struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Geom string `mapstructure:"geom"`
}

// DefaultColumns returns the column names used when none are configured.
func DefaultColumns() Columns {
	return Columns{ID: "id", Name: "name", Geom: "geom"}
}

// PostGIS reads each layer from a PostGIS table. Layers holds table names,
// optionally schema-qualified.
type PostGIS struct {
	pool    db.Pool
	Layers  Layers
	Columns Columns
	Options Options
}

// NewPostGIS creates a PostGIS provider on pool.
func NewPostGIS(pool db.Pool, layers Layers, cols Columns, opts Options) *PostGIS {
	return &PostGIS{pool: pool, Layers: layers, Columns: cols, Options: opts}
}

// Load implements Provider.
func (p *PostGIS) Load(ctx context.Context) (*Dataset, error) {
	return loadLayers(ctx, "postgis", p.Layers, p.Options, p.readTable)
}

func (p *PostGIS) readTable(ctx context.Context, table string) ([]geometry.Feature, int, error) {
	geomCol := db.Identifier(p.Columns.Geom)
	sql := fmt.Sprintf(`
		SELECT %s::text, COALESCE(%s::text, ''), ST_SRID(%s), ST_AsBinary(%s)
		FROM %s
		WHERE %s IS NOT NULL
		ORDER BY 1
	`, db.Identifier(p.Columns.ID), db.Identifier(p.Columns.Name),
		geomCol, geomCol, db.Identifier(table), geomCol)

	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "postgis: query %s", table)
	}
	defer rows.Close()

	var feats []geometry.Feature
	var srid int
	for rows.Next() {
		var id, name string
		var rowSRID int32
		var body []byte
		if err := rows.Scan(&id, &name, &rowSRID, &body); err != nil {
			return nil, 0, eris.Wrapf(err, "postgis: scan %s", table)
		}
		g, err := wkb.Unmarshal(body)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "postgis: decode %s feature %s", table, id)
		}
		if srid == 0 {
			srid = int(rowSRID)
		}
		feats = append(feats, geometry.Feature{ID: id, Name: name, Geom: g})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrapf(err, "postgis: iterate %s", table)
	}
	return feats, srid, nil
}
