package nodes

import (
	"context"
	"encoding/json"
	"fmt"
)

// ConfigInfo reports where the config file lives and which profiles are set up.
// It never creates the file.
type ConfigInfo struct {
	env *env
}

// ConfigReport is the config info output.
type ConfigReport struct {
	ConfigFilePath string          `json:"config_file_path"`
	ConfigExists   bool            `json:"config_exists"`
	Profiles       []ProfileReport `json:"profiles"`
	Instructions   []string        `json:"instructions"`
}

// ProfileReport summarizes one profile without its credentials.
type ProfileReport struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Endpoint    string `json:"endpoint"`
	Configured  bool   `json:"configured"`
}

func (n *ConfigInfo) Spec() Spec {
	return Spec{
		Type:        "S3ConfigInfo",
		DisplayName: "⚙️ S3 Config Info",
		Category:    Category,
		Description: "Display S3 configuration file information",
		Required:    []Input{},
		Optional: []Input{
			{Name: "refresh", Kind: KindBoolean, Default: false, Tooltip: "Refresh config info"},
		},
		Outputs: n.outputs(),
	}
}

func (n *ConfigInfo) outputs() []Output {
	return []Output{{Name: "config_info", Kind: KindString}}
}

func (n *ConfigInfo) Run(_ context.Context, _ Inputs) (Outputs, error) {
	out, err := json.MarshalIndent(n.Report(), "", "  ")
	if err != nil {
		return nil, operationError("S3ConfigInfo", "read config info", err)
	}

	return Outputs{string(out)}, nil
}

// Report inspects the config file.
func (n *ConfigInfo) Report() ConfigReport {
	store := n.env.store
	path := store.Path()

	report := ConfigReport{
		ConfigFilePath: path,
		ConfigExists:   store.Exists(),
		Profiles:       []ProfileReport{},
	}

	if !report.ConfigExists {
		report.Instructions = []string{
			fmt.Sprintf("Config file not found at: %s", path),
			"A default config will be created on first use",
			"Edit the generated file with your S3 credentials",
		}

		return report
	}

	f, err := store.Load()
	if err != nil {
		report.Instructions = []string{
			fmt.Sprintf("Config file exists but has errors: %v", err),
			"Please check the JSON syntax",
		}

		return report
	}

	for _, key := range f.Names() {
		p := f.Profiles[key]
		report.Profiles = append(report.Profiles, ProfileReport{
			Name:        key,
			DisplayName: p.DisplayName(key),
			Endpoint:    p.Endpoint,
			Configured:  p.Configured(),
		})
	}

	report.Instructions = []string{
		fmt.Sprintf("Config file found at: %s", path),
		fmt.Sprintf("Found %d profile(s)", len(f.Profiles)),
		"Edit the config file to add your S3 credentials",
		"Replace 'YOUR_*' placeholders with actual values",
	}

	return report
}
