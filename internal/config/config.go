package config

import (
	"fmt"
	"os"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/fjell-io/gauntlet/internal/pipeline"
)

type Config struct {
	Options  Options            `yaml:"options"`
	Globals  map[string]any     `yaml:"globals"`
	Stages   []pipeline.Stage   `yaml:"stages" validate:"min=1,dive"`
	Trigger  Trigger            `yaml:"trigger"`
	Services map[string]Service `yaml:"services"`
	Notify   []NotifyTarget     `yaml:"notify"`
}

type Options struct {
	Workdir  string `yaml:"workdir"`
	Debounce string `yaml:"debounce"`
}

// Trigger controls when the start daemon re-runs the pipeline.
type Trigger struct {
	Watch  PathList `yaml:"watch"`
	Ignore PathList `yaml:"ignore"`
	Cron   string   `yaml:"cron"`
}

type Service struct {
	URL    string            `yaml:"url"`
	Params map[string]string `yaml:"params"`
}

// PathList handles both a single path string and a list of paths.
type PathList []string

func (p *PathList) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		*p = PathList{str}
		return nil
	}

	var list []string
	if err := unmarshal(&list); err != nil {
		return fmt.Errorf("must be a path string or a list of paths")
	}
	*p = PathList(list)
	return nil
}

// NotifyTarget handles a plain service name string or an object with overrides.
type NotifyTarget struct {
	Service  string            `yaml:"service"`
	Template string            `yaml:"template"`
	Params   map[string]string `yaml:"params"`
}

func (n *NotifyTarget) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		n.Service = str
		return nil
	}

	type notifyAlias NotifyTarget
	var obj notifyAlias
	if err := unmarshal(&obj); err != nil {
		return fmt.Errorf("notify: must be a service name string or an object with service/template/params")
	}
	*n = NotifyTarget(obj)
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.Options.Workdir == "" {
		cfg.Options.Workdir = "."
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Stages))
	for _, s := range cfg.Stages {
		if seen[s.Name] {
			return fmt.Errorf("invalid config: duplicate stage name %q", s.Name)
		}
		seen[s.Name] = true
	}

	for _, n := range cfg.Notify {
		if _, ok := cfg.Services[n.Service]; !ok {
			return fmt.Errorf("invalid config: notify references unknown service %q", n.Service)
		}
	}
	return nil
}
