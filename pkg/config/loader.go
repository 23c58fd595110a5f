package config

import (
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Load returns the built-in configuration merged with an optional operator
// override file. path == "" returns the built-in configuration unchanged,
// exactly mirroring the teacher's built-in/user merge in pkg/config/loader.go
// (mergo.Merge with mergo.WithOverride: every non-zero field of the override
// file replaces the built-in value; zero fields keep the built-in value).
func Load(path string) (*Config, error) {
	cfg := *builtin // shallow copy; maps below are merged, not shared
	cfg.Pacing = cloneMap(builtin.Pacing)
	cfg.TypeComplexity = cloneMap(builtin.TypeComplexity)
	cfg.DefaultQuestionTypes = cloneSliceMap(builtin.DefaultQuestionTypes)
	cfg.ForbiddenPhraseGroups = cloneSliceMap(builtin.ForbiddenPhraseGroups)
	cfg.RewriteInstructions = cloneMap(builtin.RewriteInstructions)

	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewLoadError(path, ErrConfigNotFound)
		}
		return nil, NewLoadError(path, err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, NewLoadError(path, err)
	}

	if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
		return nil, NewLoadError(path, err)
	}

	if err := NewValidator(&cfg).ValidateAll(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSliceMap[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		cp := make([]V, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
