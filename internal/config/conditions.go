package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

// ConditionsOptions holds the template configuration of every condition type.
type ConditionsOptions struct {
	Conditions map[storage.ConditionType]storage.ConditionOptions `yaml:"conditions"`
}

var requiredConditionTypes = []storage.ConditionType{
	storage.ConditionRestockByPlanting,
	storage.ConditionNaturalRegeneration,
	storage.ConditionCoppiceRegrowth,
}

// LoadConditionsOptions reads and validates the condition template file.
func LoadConditionsOptions(path string) (*ConditionsOptions, error) {
	const op = "config.LoadConditionsOptions"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var opts ConditionsOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("%s: parse %s: %w", op, path, err)
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &opts, nil
}

func (o *ConditionsOptions) Validate() error {
	for _, t := range requiredConditionTypes {
		options, ok := o.Conditions[t]
		if !ok {
			return fmt.Errorf("condition type %q is not configured", t)
		}
		if len(options.Lines) == 0 {
			return fmt.Errorf("condition type %q has no text lines", t)
		}

		seen := make(map[int]bool, len(options.Parameters))
		for _, p := range options.Parameters {
			if seen[p.Index] {
				return fmt.Errorf("condition type %q has duplicate parameter index %d", t, p.Index)
			}
			seen[p.Index] = true
		}
	}
	return nil
}
