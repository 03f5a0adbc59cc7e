// Package config loads the TOML file that drives listbench.
package config

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/metailurini/listset"
	"github.com/metailurini/listset/internal/workload"
)

// Structs

// Config holds all information parsed from
// the supplied config file.
type Config struct {
	LogLevel       string
	PrometheusAddr string
	Namespace      string
	Set            Set
	Workload       Workload
}

// Set selects the variants under test and
// the options every set is built with.
type Set struct {
	Variants   []string
	Stripes    int
	YieldAfter int
	WarnAfter  int
}

// Workload describes the operation mix each
// variant is driven with.
type Workload struct {
	Goroutines      int
	OpsPerGoroutine int
	KeyRange        int
	Prefill         int
	InsertPercent   int
	RemovePercent   int
	Distribution    string
	Seed            int64
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Functions

// Default returns the configuration used for
// every key the file leaves out.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		Namespace: "listbench",
		Set: Set{
			Variants:   []string{"coarse", "striped", "hand-over-hand", "optimistic", "lazy", "lock-free"},
			Stripes:    listset.DefaultStripes,
			YieldAfter: listset.DefaultYieldAfter,
		},
		Workload: Workload{
			Goroutines:      8,
			OpsPerGoroutine: 10000,
			KeyRange:        1024,
			Prefill:         512,
			InsertPercent:   25,
			RemovePercent:   25,
			Distribution:    "uniform",
		},
	}
}

// LoadConfig takes in the path to the config file in TOML
// syntax and places the values over the defaults.
func LoadConfig(configFile string) (*Config, error) {

	conf := Default()

	meta, err := toml.DecodeFile(configFile, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read in TOML config file at '%s'", configFile)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Wrapf(ErrInvalid, "unknown keys in '%s': %s", configFile, strings.Join(keys, ", "))
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config file '%s'", configFile)
	}

	return conf, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {

	if _, err := c.Variants(); err != nil {
		return err
	}

	if c.Set.Stripes <= 0 {
		return errors.Wrapf(ErrInvalid, "Set.Stripes must be positive, got %d", c.Set.Stripes)
	}

	w := c.Workload
	if w.Goroutines <= 0 || w.OpsPerGoroutine < 0 || w.KeyRange <= 0 {
		return errors.Wrap(ErrInvalid, "Workload.Goroutines and Workload.KeyRange must be positive")
	}
	if w.Prefill < 0 || w.Prefill > w.KeyRange {
		return errors.Wrapf(ErrInvalid, "Workload.Prefill must be within [0, %d]", w.KeyRange)
	}
	if w.InsertPercent < 0 || w.RemovePercent < 0 || w.InsertPercent+w.RemovePercent > 100 {
		return errors.Wrap(ErrInvalid, "Workload.InsertPercent and Workload.RemovePercent must add up to at most 100")
	}
	if _, err := workload.ParseDistribution(w.Distribution); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}

	return nil
}

// Variants resolves the configured variant names.
func (c *Config) Variants() ([]listset.Variant, error) {

	if len(c.Set.Variants) == 0 {
		return nil, errors.Wrap(ErrInvalid, "Set.Variants is empty")
	}

	variants := make([]listset.Variant, 0, len(c.Set.Variants))
	for _, name := range c.Set.Variants {

		v, err := listset.ParseVariant(name)
		if err != nil {
			return nil, errors.Wrap(ErrInvalid, err.Error())
		}

		if v == listset.VariantSequential {
			return nil, errors.Wrap(ErrInvalid, "the sequential variant cannot be driven concurrently")
		}

		variants = append(variants, v)
	}

	return variants, nil
}

// Spec converts the workload section for the driver.
func (c *Config) Spec() workload.Spec {

	// Validate has already accepted the name.
	dist, _ := workload.ParseDistribution(c.Workload.Distribution)

	return workload.Spec{
		Goroutines:      c.Workload.Goroutines,
		OpsPerGoroutine: c.Workload.OpsPerGoroutine,
		KeyRange:        c.Workload.KeyRange,
		Prefill:         c.Workload.Prefill,
		InsertPercent:   c.Workload.InsertPercent,
		RemovePercent:   c.Workload.RemovePercent,
		Distribution:    dist,
		Seed:            c.Workload.Seed,
	}
}

// Options returns the set options shared by every variant.
func (c *Config) Options() []listset.Option {
	return []listset.Option{
		listset.WithStripes(c.Set.Stripes),
		listset.WithYieldAfter(c.Set.YieldAfter),
		listset.WithWarnAfter(c.Set.WarnAfter),
	}
}
