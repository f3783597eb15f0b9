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

func init() {
	rootCmd.AddCommand(delineateCmd)
}

var delineateCmd = &cobra.Command{
	Use:   "delineate",
	Short: "Delineate Conservation Sites from Procedural Features.",
	Long: `delineate reads Procedural Features and the supporting
hydrography/transportation/exclusion/NWI/stream-network layers named in
the config file, builds Conservation Site polygons, and writes them to a
shapefile in the configured output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelineate(Cfg)
	},
}

func runDelineate(cfg *ecsconfig.Config) error {
	ws, err := store.NewScratchWorkspace("ecs-delineate")
	if err != nil {
		return fmt.Errorf("delineate: %v", err)
	}
	defer store.CleanupScratch(ws)
	ws.CRSName = cfg.CRSName
	ws.SnapTolerance = cfg.SnapTolerance

	in, err := loadDelineationInput(cfg)
	if err != nil {
		return fmt.Errorf("delineate: %v", err)
	}

	sites, failures := pipeline.RunDelineation(ws, in, cfg)
	if err := pipeline.WriteResults(cfg, sites, failures); err != nil {
		return fmt.Errorf("delineate: %v", err)
	}
	return nil
}

func loadDelineationInput(cfg *ecsconfig.Config) (pipeline.DelineationInput, error) {
	var in pipeline.DelineationInput
	var err error

	if in.PFs, err = store.ReadPFs(cfg.PFShapefile); err != nil {
		return in, err
	}
	if cfg.NWIFeatures != "" {
		if in.NWI, err = store.ReadNWIFeatures(cfg.NWIFeatures); err != nil {
			return in, err
		}
	}
	if cfg.HydroFeatures != "" {
		if in.Hydro, err = store.ReadFeatures(cfg.HydroFeatures); err != nil {
			return in, err
		}
	}
	if cfg.TransportFeatures != "" {
		if in.Transport, err = store.ReadFeatures(cfg.TransportFeatures); err != nil {
			return in, err
		}
	}
	if cfg.ExclusionFeatures != "" {
		if in.Exclusion, err = store.ReadFeatures(cfg.ExclusionFeatures); err != nil {
			return in, err
		}
	}
	if cfg.FlowlineFeatures != "" {
		if in.Flowlines, err = store.ReadFlowlines(cfg.FlowlineFeatures); err != nil {
			return in, err
		}
	}
	if cfg.WaterbodyFeatures != "" {
		if in.Waterbodies, err = store.ReadWaterbodies(cfg.WaterbodyFeatures); err != nil {
			return in, err
		}
	}
	if cfg.CatchmentFeatures != "" {
		if in.Catchments, err = store.ReadCatchments(cfg.CatchmentFeatures); err != nil {
			return in, err
		}
	}
	if cfg.DamFeatures != "" {
		if in.Dams, err = store.ReadDams(cfg.DamFeatures); err != nil {
			return in, err
		}
	}
	// Network is the HydroNet routing seam spec.md §1 assumes is supplied
	// by the host GIS environment; this tool does not ship a concrete
	// implementation, so a stream.Network must be wired in by whichever
	// deployment provides one (see stream/network.go, DESIGN.md).
	return in, nil
}
