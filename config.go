package smt

import (
	"sigs.k8s.io/yaml"
)

// SolverOptions is a declarative preset for a session's backend: the
// SMT-LIB logic string plus raw option key/value pairs.
type SolverOptions struct {
	Logic         string            `json:"logic,omitempty"`
	Options       map[string]string `json:"options,omitempty"`
	ProduceModels bool              `json:"produce-models,omitempty"`
}

// ParseSolverOptions decodes a YAML or JSON preset document.
func ParseSolverOptions(data []byte) (SolverOptions, error) {
	var opts SolverOptions
	if err := yaml.UnmarshalStrict(data, &opts); err != nil {
		return SolverOptions{}, usagef("malformed solver options: %v", err)
	}
	return opts, nil
}

// Configure applies a preset to the session's backend. Options are
// applied before the logic so engines that freeze options on set-logic
// see them.
func (s *Session) Configure(opts SolverOptions) error {
	if opts.ProduceModels {
		if err := s.SetOpt("produce-models", "true"); err != nil {
			return err
		}
	}
	for k, v := range opts.Options {
		if err := s.SetOpt(k, v); err != nil {
			return err
		}
	}
	if opts.Logic != "" {
		return s.SetLogic(opts.Logic)
	}
	return nil
}
