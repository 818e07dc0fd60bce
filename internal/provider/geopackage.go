package provider

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/gpkg"
	_ "modernc.org/sqlite"

	"github.com/sells-group/site-select/internal/geometry"
)

// GeoPackage reads each layer from a feature table of one OGC GeoPackage file.
// Layers holds table names.
type GeoPackage struct {
	Path       string
	Layers     Layers
	Options    Options
	IDColumn   string
	NameColumn string
}

// NewGeoPackage creates a GeoPackage provider reading tables from path.
func NewGeoPackage(path string, layers Layers, opts Options) *GeoPackage {
	return &GeoPackage{Path: path, Layers: layers, Options: opts, IDColumn: "fid", NameColumn: "name"}
}

// Load implements Provider.
func (p *GeoPackage) Load(ctx context.Context) (*Dataset, error) {
	// sqlite creates missing files on open.
	if _, err := os.Stat(p.Path); err != nil {
		return nil, eris.Wrap(err, "gpkg: stat")
	}
	db, err := sql.Open("sqlite", p.Path)
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: open")
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, eris.Wrapf(err, "gpkg: open %s", p.Path)
	}

	read := func(ctx context.Context, table string) ([]geometry.Feature, int, error) {
		return p.readTable(ctx, db, table)
	}
	return loadLayers(ctx, "gpkg", p.Layers, p.Options, read)
}

func (p *GeoPackage) readTable(ctx context.Context, db *sql.DB, table string) ([]geometry.Feature, int, error) {
	var geomCol string
	var srid int
	err := db.QueryRowContext(ctx,
		`SELECT column_name, srs_id FROM gpkg_geometry_columns WHERE table_name = ?`, table,
	).Scan(&geomCol, &srid)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "gpkg: geometry column of %s", table)
	}

	cols, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, 0, err
	}
	idExpr := "rowid"
	if cols[strings.ToLower(p.IDColumn)] {
		idExpr = quoteIdent(p.IDColumn)
	}
	nameExpr := "''"
	if cols[strings.ToLower(p.NameColumn)] {
		nameExpr = "COALESCE(" + quoteIdent(p.NameColumn) + ", '')"
	}

	query := fmt.Sprintf(`SELECT CAST(%s AS TEXT), CAST(%s AS TEXT), %s FROM %s`,
		idExpr, nameExpr, quoteIdent(geomCol), quoteIdent(table))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "gpkg: query %s", table)
	}
	defer rows.Close() //nolint:errcheck

	var feats []geometry.Feature
	for rows.Next() {
		var id, name string
		var blob []byte
		if err := rows.Scan(&id, &name, &blob); err != nil {
			return nil, 0, eris.Wrapf(err, "gpkg: scan %s", table)
		}
		if blob == nil {
			continue
		}
		g, err := gpkg.Unmarshal(blob)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "gpkg: decode %s feature %s", table, id)
		}
		if g.Empty() {
			continue
		}
		feats = append(feats, geometry.Feature{ID: id, Name: name, Geom: g})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrapf(err, "gpkg: iterate %s", table)
	}
	return feats, srid, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: columns of %s", table)
	}
	defer rows.Close() //nolint:errcheck

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrapf(err, "gpkg: columns of %s", table)
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, eris.Wrapf(rows.Err(), "gpkg: columns of %s", table)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
