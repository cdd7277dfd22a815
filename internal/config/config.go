// Package config loads analysis settings from TOML. Keys missing from a file
// keep their defaults; list keys may use "inherit" to extend the default.
package config

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Checks   ChecksConfig   `toml:"checks"`
	Log      LogConfig      `toml:"log"`
	Analyzer AnalyzerConfig `toml:"analyzer"`
}

type EngineConfig struct {
	// MaxSteps bounds the (node, state) pairs processed per method.
	MaxSteps int `toml:"max_steps"`
	// MaxExecProgramPoint bounds how often one path may execute a node.
	MaxExecProgramPoint int      `toml:"max_exec_program_point"`
	MaxCalleeDepth      int      `toml:"max_callee_depth"`
	Timeout             Duration `toml:"timeout"`
	Strategy            string   `toml:"strategy"`
	// ImplicitRuntimeExceptions lets any invocation throw an unchecked
	// exception when an enclosing try could observe it.
	ImplicitRuntimeExceptions bool     `toml:"implicit_runtime_exceptions"`
	UncheckedExceptions       []string `toml:"unchecked_exceptions"`
}

type ChecksConfig struct {
	Enabled       []string `toml:"enabled"`
	Disabled      []string `toml:"disabled"`
	ResourceTypes []string `toml:"resource_types"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type AnalyzerConfig struct {
	Workers int `toml:"workers"`
}

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	return Config{
		Engine: EngineConfig{
			MaxSteps:                  16000,
			MaxExecProgramPoint:       2,
			MaxCalleeDepth:            3,
			Timeout:                   Duration{10 * time.Second},
			Strategy:                  "dfs",
			ImplicitRuntimeExceptions: true,
			UncheckedExceptions:       []string{"RuntimeException", "Error"},
		},
		Checks: ChecksConfig{
			Enabled:  []string{"all"},
			Disabled: []string{},
			ResourceTypes: []string{
				"FileInputStream", "FileOutputStream", "FileReader", "FileWriter",
				"BufferedReader", "BufferedWriter", "Scanner", "Socket",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
		Analyzer: AnalyzerConfig{
			Workers: 4,
		},
	}
}

type config struct {
	cfg  Config
	meta toml.MetaData
}

func mergeLists(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, el := range b {
		if el == "inherit" {
			out = append(out, a...)
		} else {
			out = append(out, el)
		}
	}
	return out
}

func normalizeList(list []string) []string {
	if len(list) > 1 {
		sort.Strings(list)
		nlist := make([]string, 0, len(list))
		nlist = append(nlist, list[0])
		for i, el := range list[1:] {
			if el != list[i] {
				nlist = append(nlist, el)
			}
		}
		list = nlist
	}
	for _, el := range list {
		if el == "all" {
			return []string{"all"}
		}
	}
	return list
}

func (cfg config) Merge(ocfg config) config {
	if ocfg.meta.IsDefined("engine", "max_steps") {
		cfg.cfg.Engine.MaxSteps = ocfg.cfg.Engine.MaxSteps
	}
	if ocfg.meta.IsDefined("engine", "max_exec_program_point") {
		cfg.cfg.Engine.MaxExecProgramPoint = ocfg.cfg.Engine.MaxExecProgramPoint
	}
	if ocfg.meta.IsDefined("engine", "max_callee_depth") {
		cfg.cfg.Engine.MaxCalleeDepth = ocfg.cfg.Engine.MaxCalleeDepth
	}
	if ocfg.meta.IsDefined("engine", "timeout") {
		cfg.cfg.Engine.Timeout = ocfg.cfg.Engine.Timeout
	}
	if ocfg.meta.IsDefined("engine", "strategy") {
		cfg.cfg.Engine.Strategy = ocfg.cfg.Engine.Strategy
	}
	if ocfg.meta.IsDefined("engine", "implicit_runtime_exceptions") {
		cfg.cfg.Engine.ImplicitRuntimeExceptions = ocfg.cfg.Engine.ImplicitRuntimeExceptions
	}
	if ocfg.meta.IsDefined("engine", "unchecked_exceptions") {
		cfg.cfg.Engine.UncheckedExceptions = mergeLists(cfg.cfg.Engine.UncheckedExceptions, ocfg.cfg.Engine.UncheckedExceptions)
	}

	if ocfg.meta.IsDefined("checks", "enabled") {
		cfg.cfg.Checks.Enabled = mergeLists(cfg.cfg.Checks.Enabled, ocfg.cfg.Checks.Enabled)
	}
	if ocfg.meta.IsDefined("checks", "disabled") {
		cfg.cfg.Checks.Disabled = mergeLists(cfg.cfg.Checks.Disabled, ocfg.cfg.Checks.Disabled)
	}
	if ocfg.meta.IsDefined("checks", "resource_types") {
		cfg.cfg.Checks.ResourceTypes = mergeLists(cfg.cfg.Checks.ResourceTypes, ocfg.cfg.Checks.ResourceTypes)
	}

	if ocfg.meta.IsDefined("log", "level") {
		cfg.cfg.Log.Level = ocfg.cfg.Log.Level
	}
	if ocfg.meta.IsDefined("analyzer", "workers") {
		cfg.cfg.Analyzer.Workers = ocfg.cfg.Analyzer.Workers
	}
	return cfg
}

// Load reads the file at path over the defaults. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	conf, err := Decode(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load %s", path)
	}
	return conf, nil
}

// Decode reads TOML from r over the defaults.
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeReader(r, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("unknown config key %s", undecoded[0])
	}
	conf := config{cfg: Default()}.Merge(config{cfg: cfg, meta: meta}).cfg
	conf.Checks.Enabled = normalizeList(conf.Checks.Enabled)
	conf.Checks.Disabled = normalizeList(conf.Checks.Disabled)
	conf.Checks.ResourceTypes = normalizeList(conf.Checks.ResourceTypes)
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

func (c Config) Validate() error {
	if c.Engine.MaxSteps <= 0 {
		return errors.Errorf("engine.max_steps must be positive, got %d", c.Engine.MaxSteps)
	}
	if c.Engine.MaxExecProgramPoint <= 0 {
		return errors.Errorf("engine.max_exec_program_point must be positive, got %d", c.Engine.MaxExecProgramPoint)
	}
	if c.Engine.MaxCalleeDepth < 0 {
		return errors.Errorf("engine.max_callee_depth must not be negative, got %d", c.Engine.MaxCalleeDepth)
	}
	switch c.Engine.Strategy {
	case "", "dfs", "bfs":
	default:
		return errors.Errorf("engine.strategy must be dfs or bfs, got %q", c.Engine.Strategy)
	}
	if c.Analyzer.Workers <= 0 {
		return errors.Errorf("analyzer.workers must be positive, got %d", c.Analyzer.Workers)
	}
	return nil
}

// IsEnabled reports whether the check called name should run.
func (c ChecksConfig) IsEnabled(name string) bool {
	for _, d := range c.Disabled {
		if d == name || d == "all" {
			return false
		}
	}
	for _, e := range c.Enabled {
		if e == name || e == "all" {
			return true
		}
	}
	return false
}

// IsResource reports whether instances of typ must be closed.
func (c ChecksConfig) IsResource(typ string) bool {
	for _, t := range c.ResourceTypes {
		if t == typ {
			return true
		}
	}
	return false
}
