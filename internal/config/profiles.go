package config

import (
	"fmt"
	"os"

	"procurement-backoffice/internal/core"

	"gopkg.in/yaml.v3"
)

type profilesFile struct {
	Profiles []profileEntry `yaml:"profiles"`
}

type profileEntry struct {
	Type              core.DocumentType `yaml:"type"`
	Kind              core.DocumentKind `yaml:"kind"`
	HideCharges       *bool             `yaml:"hide_charges"`
	AllowEditTotal    *bool             `yaml:"allow_edit_total"`
	TotalField        string            `yaml:"total_field"`
	TrustStoredTotals *bool             `yaml:"trust_stored_totals"`
}

// LoadProfiles returns the built-in profiles, overridden by the YAML file at
// path when path is non-empty.
func LoadProfiles(path string) (core.ProfileSet, error) {
	if path == "" {
		return core.DefaultProfiles(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file %s: %w", path, err)
	}
	return ParseProfiles(data, core.DefaultProfiles())
}

// ParseProfiles applies the YAML overrides in data on top of a copy of base.
// Unset switches keep the base value.
//
//	profiles:
//	  - type: INVOICE
//	    kind: LABOR
//	    allow_edit_total: false
func ParseProfiles(data []byte, base core.ProfileSet) (core.ProfileSet, error) {
	var f profilesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	out := base.Clone()
	for i, e := range f.Profiles {
		if !e.Type.IsValid() || !e.Kind.IsValid() {
			return nil, fmt.Errorf("profile %d: unknown document type/kind %q/%q", i, e.Type, e.Kind)
		}
		key := core.ProfileKey(e.Type, e.Kind)
		p := out[key]
		if e.HideCharges != nil {
			p.HideCharges = *e.HideCharges
		}
		if e.AllowEditTotal != nil {
			p.AllowEditTotal = *e.AllowEditTotal
		}
		if e.TrustStoredTotals != nil {
			p.TrustStoredTotals = *e.TrustStoredTotals
		}
		if e.TotalField != "" {
			p.TotalField = e.TotalField
		}
		out[key] = p
	}
	return out, nil
}
