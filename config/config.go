/*
Copyright © 2013-2026 the ECS Tools authors.
This file is part of ECS Tools.

ECS Tools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ECS Tools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ECS Tools.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package config holds the typed run configuration for both the
// delineation and prioritization commands, loaded from a TOML file via
// viper, the same way inmaputil/cmd.go's Cfg wraps a *viper.Viper and
// inmaputil/config.go unmarshals typed sub-configs out of it.
package config

import (
	"fmt"

	"github.com/lnashier/viper"
)

// Config is the full set of inputs a delineation-then-prioritization run
// needs. Every field corresponds to a TOML key of the same name.
type Config struct {
	// Shared inputs.
	PFShapefile    string
	HydroFeatures  string
	TransportFeatures string
	ExclusionFeatures string
	DamFeatures    string
	WaterbodyFeatures string
	FlowlineFeatures  string
	CatchmentFeatures string
	NWIFeatures    string

	OutputDir string
	CRSName   string

	// SnapTolerance is copied onto model.Workspace; no stage reads it.
	SnapTolerance float64

	// Workers caps per-stage concurrency; 0 means runtime.GOMAXPROCS(-1).
	Workers int

	// Prioritization inputs.
	ConservationLandsShapefile string
	EcoRegionsShapefile        string
	NAPShapefile               string
	MilitaryMATypes            []string
	ElementExclusions          []string

	CurrentYear        int
	UpdateCutoffYears  int
	ExcludeCutoffYears int
	WeightMilitary     bool
	WeightObsYear      bool

	// Update is true when this run should treat an existing portfolio's
	// OVERRIDE markers as sticky, per spec.md §4.I.
	Update bool
}

// defaults mirror inmaputil/config.go's pattern of pre-seeding a Viper
// instance with Default()s before a config file or flags override them.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"CRSName":            "unspecified",
		"SnapTolerance":      0.01,
		"Workers":            0,
		"UpdateCutoffYears":  5,
		"ExcludeCutoffYears": 20,
		"WeightMilitary":     true,
		"WeightObsYear":      true,
		"Update":             false,
	}
}

// New returns a Viper preloaded with this package's defaults, ready for a
// caller to layer a config file and flags on top of via v.SetConfigFile/
// v.ReadInConfig and v.BindPFlags.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	return v
}

// Load reads path (a TOML file) into v and unmarshals the result into a
// Config, the same ReadInConfig-then-Unmarshal sequence
// inmaputil/cmd.go's setConfig and inmaputil/config.go's VarGridConfig use
// in combination.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %q: %v", path, err)
		}
	}
	cfg := &Config{
		PFShapefile:                v.GetString("PFShapefile"),
		HydroFeatures:              v.GetString("HydroFeatures"),
		TransportFeatures:          v.GetString("TransportFeatures"),
		ExclusionFeatures:          v.GetString("ExclusionFeatures"),
		DamFeatures:                v.GetString("DamFeatures"),
		WaterbodyFeatures:          v.GetString("WaterbodyFeatures"),
		FlowlineFeatures:           v.GetString("FlowlineFeatures"),
		CatchmentFeatures:          v.GetString("CatchmentFeatures"),
		NWIFeatures:                v.GetString("NWIFeatures"),
		OutputDir:                  v.GetString("OutputDir"),
		CRSName:                    v.GetString("CRSName"),
		SnapTolerance:              v.GetFloat64("SnapTolerance"),
		Workers:                    v.GetInt("Workers"),
		ConservationLandsShapefile: v.GetString("ConservationLandsShapefile"),
		EcoRegionsShapefile:        v.GetString("EcoRegionsShapefile"),
		NAPShapefile:               v.GetString("NAPShapefile"),
		MilitaryMATypes:            v.GetStringSlice("MilitaryMATypes"),
		ElementExclusions:          v.GetStringSlice("ElementExclusions"),
		CurrentYear:                v.GetInt("CurrentYear"),
		UpdateCutoffYears:          v.GetInt("UpdateCutoffYears"),
		ExcludeCutoffYears:         v.GetInt("ExcludeCutoffYears"),
		WeightMilitary:             v.GetBool("WeightMilitary"),
		WeightObsYear:              v.GetBool("WeightObsYear"),
		Update:                     v.GetBool("Update"),
	}
	if cfg.PFShapefile == "" {
		return nil, fmt.Errorf("config: PFShapefile is required")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("config: OutputDir is required")
	}
	return cfg, nil
}

// ElementExclusionSet returns cfg.ElementExclusions as a lookup set, the
// shape prioritize.AttributorConfig.ElementExclusions expects.
func (c *Config) ElementExclusionSet() map[string]bool {
	out := make(map[string]bool, len(c.ElementExclusions))
	for _, ec := range c.ElementExclusions {
		out[ec] = true
	}
	return out
}
