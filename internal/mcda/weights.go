package mcda

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/site-select/internal/fault"
)

// BalancedProfile is the name of the built-in default weight profile.
const BalancedProfile = "balanced"

// sumTolerance is how far the weight sum may drift from 1.0 before Warning
// reports it.
const sumTolerance = 0.01

// Weights holds the criteria weights. Sum ~1.0 is advisory: weights are
// never renormalized.
type Weights struct {
	ServiceCoverage float64 `yaml:"service_coverage" mapstructure:"service_coverage"`
	SafetyDistance  float64 `yaml:"safety_distance" mapstructure:"safety_distance"`
	SiteArea        float64 `yaml:"site_area" mapstructure:"site_area"`
	Accessibility   float64 `yaml:"accessibility" mapstructure:"accessibility"`
}

// DefaultWeights returns the balanced weights (sum = 1.0).
func DefaultWeights() Weights {
	return Weights{
		ServiceCoverage: 0.4,
		SafetyDistance:  0.3,
		SiteArea:        0.2,
		Accessibility:   0.1,
	}
}

// Sum returns the total of all criteria weights.
func (w Weights) Sum() float64 {
	return w.ServiceCoverage + w.SafetyDistance + w.SiteArea + w.Accessibility
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"service_coverage", w.ServiceCoverage},
		{"safety_distance", w.SafetyDistance},
		{"site_area", w.SiteArea},
		{"accessibility", w.Accessibility},
	} {
		if c.v < 0 || math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return fault.NewInvalidParameter("weights."+c.name, c.v)
		}
	}
	return nil
}

// Warning returns a human-readable note when the weights do not sum to 1.0,
// or "" when they do.
func (w Weights) Warning() string {
	sum := w.Sum()
	if math.Abs(sum-1) <= sumTolerance {
		return ""
	}
	return fmt.Sprintf("criteria weights sum to %.2f, expected 1.00", sum)
}

// Profile is a named set of weights.
type Profile struct {
	Name        string  `yaml:"-"`
	Description string  `yaml:"description"`
	Weights     Weights `yaml:"weights"`
}

// BuiltinProfiles returns the profiles that are always available.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		BalancedProfile: {
			Name:        BalancedProfile,
			Description: "Coverage first, safety as flat bonus, then area and proximity",
			Weights:     DefaultWeights(),
		},
	}
}

// LoadProfiles reads weight profiles from a YAML file and merges them over the
// built-in set. An empty path returns the built-ins.
//
//	profiles:
//	  coverage_heavy:
//	    description: Favour well-covered sites
//	    weights: {service_coverage: 0.6, safety_distance: 0.2, site_area: 0.1, accessibility: 0.1}
func LoadProfiles(path string) (map[string]Profile, error) {
	profiles := BuiltinProfiles()
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mcda: read profiles %s", path)
	}

	var wrapper struct {
		Profiles map[string]Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "mcda: parse profiles")
	}

	for name, p := range wrapper.Profiles {
		if err := p.Weights.Validate(); err != nil {
			return nil, eris.Wrapf(err, "mcda: profile %s", name)
		}
		p.Name = name
		profiles[name] = p
	}
	return profiles, nil
}

// ProfileNames returns the profile names in sorted order.
func ProfileNames(profiles map[string]Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up a profile's weights by name.
func Resolve(profiles map[string]Profile, name string) (Weights, error) {
	p, ok := profiles[name]
	if !ok {
		return Weights{}, eris.Errorf("mcda: unknown weight profile %q", name)
	}
	return p.Weights, nil
}
