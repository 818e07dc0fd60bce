package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/site-select/internal/config"
	"github.com/sells-group/site-select/internal/db"
	"github.com/sells-group/site-select/internal/provider"
)

// sourceFlags are the dataset flags shared by run and inspect. Set flags
// override the loaded config.
type sourceFlags struct {
	driver     string
	path       string
	critical   string
	candidates string
	roads      string
	boundary   string
	lonlat     bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "driver", "", "source driver: geojson, shapefile, gpkg or postgis")
	cmd.Flags().StringVar(&f.path, "path", "", "GeoPackage file (gpkg driver)")
	cmd.Flags().StringVar(&f.critical, "critical", "", "critical facilities layer (file or table)")
	cmd.Flags().StringVar(&f.candidates, "candidates", "", "candidate sites layer (file or table)")
	cmd.Flags().StringVar(&f.roads, "roads", "", "roads layer (file or table)")
	cmd.Flags().StringVar(&f.boundary, "boundary", "", "study area boundary layer (optional)")
	cmd.Flags().BoolVar(&f.lonlat, "lonlat", false, "treat input without an SRID as lon/lat and project it to Web Mercator")
}

func (f *sourceFlags) apply(cmd *cobra.Command, sc *config.SourceConfig) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("driver", &sc.Driver, f.driver)
	set("path", &sc.Path, f.path)
	set("critical", &sc.Layers.Critical, f.critical)
	set("candidates", &sc.Layers.Candidates, f.candidates)
	set("roads", &sc.Layers.Roads, f.roads)
	set("boundary", &sc.Layers.Boundary, f.boundary)
	if cmd.Flags().Changed("lonlat") {
		sc.ProjectLonLat = f.lonlat
	}
}

// openProvider builds the provider for sc. The returned close func releases
// any connection pool and is never nil.
func openProvider(ctx context.Context, sc config.SourceConfig, targetSRID int) (provider.Provider, func(), error) {
	opts := provider.Options{SRID: targetSRID, ProjectLonLat: sc.ProjectLonLat}
	noop := func() {}

	switch sc.Driver {
	case config.DriverGeoJSON:
		return provider.NewGeoJSON(sc.Layers, opts), noop, nil
	case config.DriverShapefile:
		return provider.NewShapefile(sc.Layers, opts), noop, nil
	case config.DriverGeoPackage:
		return provider.NewGeoPackage(sc.Path, sc.Layers, opts), noop, nil
	case config.DriverPostGIS:
		pool, err := db.Connect(ctx, sc.DatabaseURL, sc.Pool)
		if err != nil {
			return nil, noop, eris.Wrap(err, "open postgis source")
		}
		return provider.NewPostGIS(pool, sc.Layers, sc.Columns, opts), pool.Close, nil
	default:
		return nil, noop, eris.Errorf("unknown source driver %q", sc.Driver)
	}
}

// loadDataset opens the configured source and loads every layer.
func loadDataset(ctx context.Context, c *config.Config) (*provider.Dataset, error) {
	p, closeFn, err := openProvider(ctx, c.Source, c.Analysis.TargetSRID)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	ds, err := p.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load dataset")
	}
	return ds, nil
}
