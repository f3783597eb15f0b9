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

package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	v := New()
	v.Set("PFShapefile", "pfs.shp")
	v.Set("OutputDir", "out")

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UpdateCutoffYears != 5 {
		t.Fatalf("expected default UpdateCutoffYears 5, got %d", cfg.UpdateCutoffYears)
	}
	if cfg.ExcludeCutoffYears != 20 {
		t.Fatalf("expected default ExcludeCutoffYears 20, got %d", cfg.ExcludeCutoffYears)
	}
	if !cfg.WeightMilitary || !cfg.WeightObsYear {
		t.Fatalf("expected both weighting toggles to default true")
	}
}

func TestLoadRequiresPFShapefileAndOutputDir(t *testing.T) {
	if _, err := Load(New(), ""); err == nil {
		t.Fatal("expected an error when PFShapefile/OutputDir are unset")
	}
}

func TestElementExclusionSet(t *testing.T) {
	cfg := &Config{ElementExclusions: []string{"ANIMAL1", "PLANT2"}}
	set := cfg.ElementExclusionSet()
	if !set["ANIMAL1"] || !set["PLANT2"] {
		t.Fatalf("expected both exclusions present in set, got %v", set)
	}
	if set["OTHER3"] {
		t.Fatal("expected an unlisted ELCODE to be absent from the set")
	}
}
