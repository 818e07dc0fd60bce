package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/site-select/internal/db"
	"github.com/sells-group/site-select/internal/mcda"
	"github.com/sells-group/site-select/internal/provider"
)

// Source drivers.
const (
	DriverGeoJSON    = "geojson"
	DriverShapefile  = "shapefile"
	DriverGeoPackage = "gpkg"
	DriverPostGIS    = "postgis"
)

// Config holds the full application configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Weights  WeightsConfig  `yaml:"weights" mapstructure:"weights"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// AnalysisConfig holds the spatial parameters of a run. Distances and areas
// are in metres of the target SRID.
type AnalysisConfig struct {
	ServiceRadius   float64 `yaml:"service_radius" mapstructure:"service_radius"`
	RoadBuffer      float64 `yaml:"road_buffer" mapstructure:"road_buffer"`
	MinSiteArea     float64 `yaml:"min_site_area" mapstructure:"min_site_area"`
	TopN            int     `yaml:"top_n" mapstructure:"top_n"`
	QuadSegs        int     `yaml:"quad_segs" mapstructure:"quad_segs"`
	TargetSRID      int     `yaml:"target_srid" mapstructure:"target_srid"`
	ConcurrentZones bool    `yaml:"concurrent_zones" mapstructure:"concurrent_zones"`
}

// WeightsConfig holds the criteria weights, or the name of a profile that
// replaces them.
type WeightsConfig struct {
	mcda.Weights `yaml:",inline" mapstructure:",squash"`
	Profile      string `yaml:"profile" mapstructure:"profile"`
	ProfilesPath string `yaml:"profiles_path" mapstructure:"profiles_path"`
}

// SourceConfig selects and configures the geometry provider.
type SourceConfig struct {
	Driver        string           `yaml:"driver" mapstructure:"driver"`
	Layers        provider.Layers  `yaml:"layers" mapstructure:"layers"`
	Path          string           `yaml:"path" mapstructure:"path"` // GeoPackage file
	DatabaseURL   string           `yaml:"database_url" mapstructure:"database_url"`
	Columns       provider.Columns `yaml:"columns" mapstructure:"columns"`
	Pool          db.PoolConfig    `yaml:"pool" mapstructure:"pool"`
	ProjectLonLat bool             `yaml:"project_lonlat" mapstructure:"project_lonlat"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITESEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	def := mcda.DefaultWeights()
	cols := provider.DefaultColumns()
	retry := db.DefaultRetryConfig()
	v.SetDefault("analysis.service_radius", 500.0)
	v.SetDefault("analysis.road_buffer", 30.0)
	v.SetDefault("analysis.min_site_area", 100.0)
	v.SetDefault("analysis.top_n", 5)
	v.SetDefault("analysis.quad_segs", 16)
	v.SetDefault("analysis.target_srid", provider.WebMercatorSRID)
	v.SetDefault("analysis.concurrent_zones", true)
	v.SetDefault("weights.service_coverage", def.ServiceCoverage)
	v.SetDefault("weights.safety_distance", def.SafetyDistance)
	v.SetDefault("weights.site_area", def.SiteArea)
	v.SetDefault("weights.accessibility", def.Accessibility)
	v.SetDefault("weights.profile", "")
	v.SetDefault("weights.profiles_path", "")
	v.SetDefault("source.driver", DriverGeoJSON)
	v.SetDefault("source.layers.critical", "")
	v.SetDefault("source.layers.candidates", "")
	v.SetDefault("source.layers.roads", "")
	v.SetDefault("source.layers.boundary", "")
	v.SetDefault("source.path", "")
	v.SetDefault("source.database_url", "")
	v.SetDefault("source.columns.id", cols.ID)
	v.SetDefault("source.columns.name", cols.Name)
	v.SetDefault("source.columns.geom", cols.Geom)
	v.SetDefault("source.pool.max_conns", 4)
	v.SetDefault("source.pool.min_conns", 0)
	v.SetDefault("source.pool.retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("source.pool.retry.initial_backoff", retry.InitialBackoff)
	v.SetDefault("source.pool.retry.max_backoff", retry.MaxBackoff)
	v.SetDefault("source.project_lonlat", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	var errs []string

	for _, p := range []struct {
		name string
		v    float64
	}{
		{"analysis.service_radius", c.Analysis.ServiceRadius},
		{"analysis.road_buffer", c.Analysis.RoadBuffer},
		{"analysis.min_site_area", c.Analysis.MinSiteArea},
	} {
		if !(p.v > 0) {
			errs = append(errs, fmt.Sprintf("%s must be > 0", p.name))
		}
	}
	if c.Analysis.TopN < 1 {
		errs = append(errs, "analysis.top_n must be >= 1")
	}
	if err := c.Weights.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	layers := c.Source.Layers
	switch c.Source.Driver {
	case DriverGeoJSON, DriverShapefile:
	case DriverGeoPackage:
		if c.Source.Path == "" {
			errs = append(errs, "source.path is required for the gpkg driver")
		}
	case DriverPostGIS:
		if c.Source.DatabaseURL == "" {
			errs = append(errs, "source.database_url is required for the postgis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown source.driver %q", c.Source.Driver))
	}
	if layers.Critical == "" || layers.Candidates == "" || layers.Roads == "" {
		errs = append(errs, "source.layers.critical, candidates and roads are required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
