package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile lists the road types that cannot be run on and the type given to
// streets drawn by hand.
type Profile struct {
	NonRunnable    []string `yaml:"non_runnable"`
	DefaultHighway string   `yaml:"default_highway"`
}

func DefaultProfile() Profile {
	return Profile{
		NonRunnable: []string{
			"primary",
			"primary_link",
			"secondary",
			"secondary_link",
			"motorway",
			"motorway_link",
		},
		DefaultHighway: "footway",
	}
}

// LoadProfile reads a YAML profile. Missing keys keep their defaults.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var parsed Profile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return profile, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if parsed.NonRunnable != nil {
		profile.NonRunnable = parsed.NonRunnable
	}
	if parsed.DefaultHighway != "" {
		profile.DefaultHighway = parsed.DefaultHighway
	}
	return profile, nil
}

func (p Profile) Runnable(highway string) bool {
	for _, road := range p.NonRunnable {
		if road == highway {
			return false
		}
	}
	return true
}
