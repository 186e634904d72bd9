// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/thesismate/topic-scout/pkg/types"
)

// EvalFile is the on-disk representation of a proposal round: the context
// that produced it and the scored evaluations. A round can be saved to a
// file and reloaded later without re-querying APIs.
type EvalFile struct {
	Field       string                  `yaml:"field,omitempty"`
	Interests   []string                `yaml:"interests,omitempty"`
	Evaluations []types.TopicEvaluation `yaml:"evaluations"`
	Summary     EvalSummary             `yaml:"summary"`
}

// EvalSummary stores round statistics and a timestamp.
type EvalSummary struct {
	Topics       int       `yaml:"topics"`
	SourceErrors []string  `yaml:"source_errors,omitempty"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// WriteEvalFile saves a proposal round to a YAML file.
func WriteEvalFile(path, field string, interests []string, evals []types.TopicEvaluation) error {
	ef := EvalFile{
		Field:       field,
		Interests:   interests,
		Evaluations: evals,
		Summary: EvalSummary{
			Topics:       len(evals),
			SourceErrors: collectSourceErrors(evals),
			Timestamp:    time.Now(),
		},
	}

	data, err := yaml.Marshal(&ef)
	if err != nil {
		return fmt.Errorf("marshaling evaluation file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadEvalFile loads a previously saved proposal round from disk.
func ReadEvalFile(path string) (*EvalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evaluation file: %w", err)
	}
	var ef EvalFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("parsing evaluation file: %w", err)
	}
	return &ef, nil
}

// collectSourceErrors gathers the distinct source warnings across the round.
func collectSourceErrors(evals []types.TopicEvaluation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ev := range evals {
		for _, e := range ev.SourceErrors {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}
