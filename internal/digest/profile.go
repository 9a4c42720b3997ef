// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// TopicProfile is a saved digest configuration: a named set of keywords
// and scoring overrides that can be run as its own digest.
type TopicProfile struct {
	// Name identifies the profile in logs and digest headers.
	Name string `yaml:"name"`

	// Keywords override the configured digest keywords.
	Keywords []string `yaml:"keywords"`

	// Sources override the enabled sources when non-empty.
	Sources []string `yaml:"sources,omitempty"`

	// Rubric overrides the scoring instruction when non-empty.
	Rubric string `yaml:"rubric,omitempty"`

	// MinScore overrides the relevance threshold when positive.
	MinScore float64 `yaml:"min_score,omitempty"`
}

// LoadProfile reads a topic profile from a YAML file.
func LoadProfile(path string) (*TopicProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var profile TopicProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parsing profile YAML: %w", err)
	}
	if len(profile.Keywords) == 0 {
		return nil, fmt.Errorf("profile %s has no keywords", path)
	}
	return &profile, nil
}

// SaveProfile writes a topic profile to a YAML file.
func SaveProfile(path string, profile *TopicProfile) error {
	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
