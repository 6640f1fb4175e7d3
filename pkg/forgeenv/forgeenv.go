// Package forgeenv loads and validates a struct from environment variables,
// the way the teacher's pkg/env does -- caarlos0/env for parsing, struct
// tags for validation -- adapted to return an error instead of exiting the
// process, since a library package should not call os.Exit on a caller's
// behalf.
package forgeenv

import (
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/go-playground/validator/v10"
)

// Load parses T's env-tagged fields from the environment and validates the
// result against its validate-tagged fields.
func Load[T any]() (T, error) {
	var config T

	if err := env.Parse(&config); err != nil {
		if agg, ok := err.(*env.AggregateError); ok {
			return config, fmt.Errorf("forgeenv: %w", agg)
		}
		return config, fmt.Errorf("forgeenv: env parse: %w", err)
	}

	v := validator.New()
	if err := v.Struct(config); err != nil {
		return config, fmt.Errorf("forgeenv: validation: %w", err)
	}

	return config, nil
}
