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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	ecsconfig "github.com/natheritage/ecs/config"
	"github.com/natheritage/ecs/pipeline"
	"github.com/natheritage/ecs/store"
)

var sitesShapefile string

func init() {
	prioritizeCmd.Flags().StringVar(&sitesShapefile, "sites", "", "Conservation Site shapefile from a prior delineate run")
	rootCmd.AddCommand(prioritizeCmd)
}

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize",
	Short: "Rank Element Occurrences and build the ECS portfolio.",
	Long: `prioritize reads Procedural Features, a Conservation Site
shapefile from a prior delineate run, and the BMI/ecoregion/NAP
reference layers named in the config file, then ranks and tiers
Element Occurrences and builds the Essential Conservation Sites
portfolio.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrioritize(Cfg)
	},
}

func runPrioritize(cfg *ecsconfig.Config) error {
	ws, err := store.NewScratchWorkspace("ecs-prioritize")
	if err != nil {
		return fmt.Errorf("prioritize: %v", err)
	}
	defer store.CleanupScratch(ws)
	ws.CRSName = cfg.CRSName
	ws.SnapTolerance = cfg.SnapTolerance

	in, err := loadPrioritizationInput(cfg)
	if err != nil {
		return fmt.Errorf("prioritize: %v", err)
	}

	res := pipeline.RunPrioritization(ws, in, cfg)
	if err := pipeline.WritePrioritizationResults(cfg, res); err != nil {
		return fmt.Errorf("prioritize: %v", err)
	}
	return nil
}

func loadPrioritizationInput(cfg *ecsconfig.Config) (pipeline.PrioritizationInput, error) {
	var in pipeline.PrioritizationInput
	var err error

	if in.PFs, err = store.ReadPFs(cfg.PFShapefile); err != nil {
		return in, err
	}
	if sitesShapefile != "" {
		if in.Sites, err = store.ReadSites(sitesShapefile); err != nil {
			return in, err
		}
	}
	if cfg.ConservationLandsShapefile != "" {
		if in.ConservationLands, err = store.ReadConservationLands(cfg.ConservationLandsShapefile); err != nil {
			return in, err
		}
	}
	if cfg.EcoRegionsShapefile != "" {
		if in.EcoRegions, err = store.ReadEcoRegions(cfg.EcoRegionsShapefile); err != nil {
			return in, err
		}
	}
	if cfg.NAPShapefile != "" {
		if in.NAP, err = store.ReadNAPFeatures(cfg.NAPShapefile); err != nil {
			return in, err
		}
	}
	return in, nil
}
