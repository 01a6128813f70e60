package pipeline

import "fmt"

// Stage is one named external verification or build step. Stages are
// declared in configuration at startup and never mutated afterwards.
type Stage struct {
	Name              string   `yaml:"name" validate:"required"`
	Command           string   `yaml:"command" validate:"required"`
	Args              []string `yaml:"args"`
	Dir               string   `yaml:"dir"`
	ContinueOnFailure bool     `yaml:"continue_on_failure"`
	Disabled          bool     `yaml:"disabled"`
}

// Select returns the stages to run, in declaration order.
//
// With no names, every enabled stage is selected. With names, exactly the
// named stages are selected; naming a stage explicitly also runs it when it
// is disabled. An unknown name is an error.
func Select(stages []Stage, names []string) ([]Stage, error) {
	if len(names) == 0 {
		var out []Stage
		for _, s := range stages {
			if !s.Disabled {
				out = append(out, s)
			}
		}
		return out, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = false
	}

	var out []Stage
	for _, s := range stages {
		if _, ok := want[s.Name]; ok {
			out = append(out, s)
			want[s.Name] = true
		}
	}

	for _, n := range names {
		if !want[n] {
			return nil, fmt.Errorf("no stage named %q in config", n)
		}
	}
	return out, nil
}
