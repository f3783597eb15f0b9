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

package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/natheritage/ecs/config"
	"github.com/natheritage/ecs/model"
	"github.com/natheritage/ecs/prioritize"
	"github.com/natheritage/ecs/store"
)

// PrioritizationInput bundles the reference layers a prioritization run
// needs on top of the PFs and Sites a prior delineation run produced.
type PrioritizationInput struct {
	PFs               []model.PF
	Sites             []model.Site
	ConservationLands []prioritize.ConservationLand
	EcoRegions        []prioritize.EcoRegion
	NAP               []prioritize.NAPFeature
}

// PrioritizationResult is everything a prioritization run produces,
// ready for store.WriteEOs/WriteSites/WriteElementSummaryWorkbook.
type PrioritizationResult struct {
	EOs       []*model.EO
	Sites     []*model.Site
	Summaries []model.ElementSummary
	Failures  *model.FailureReport
}

// RunPrioritization implements SPEC_FULL.md §6's prioritization entry
// point: attribute EOs (§4.G), rank and tier them within each element
// (§4.H), then build the Site portfolio (§4.I).
func RunPrioritization(ws *model.Workspace, in PrioritizationInput, cfg *config.Config) PrioritizationResult {
	attrCfg := prioritize.AttributorConfig{
		ConservationLands:  in.ConservationLands,
		MilitaryMATypes:    cfg.MilitaryMATypes,
		EcoRegions:         in.EcoRegions,
		NAP:                in.NAP,
		ElementExclusions:  cfg.ElementExclusionSet(),
		CurrentYear:        cfg.CurrentYear,
		UpdateCutoffYears:  cfg.UpdateCutoffYears,
		ExcludeCutoffYears: cfg.ExcludeCutoffYears,
	}
	eos, summaries := prioritize.BuildEOs(ws, in.PFs, attrCfg)

	failures := model.NewFailureReport()
	rankCfg := prioritize.RankConfig{
		WeightMilitary: cfg.WeightMilitary,
		WeightObsYear:  cfg.WeightObsYear,
	}
	prioritize.Rank(ws, eos, summaries, rankCfg, failures)

	sitePtrs := make([]*model.Site, len(in.Sites))
	for i := range in.Sites {
		sitePtrs[i] = &in.Sites[i]
	}
	portfolioCfg := prioritize.PortfolioConfig{Update: cfg.Update, Workers: cfg.Workers}
	summaries = prioritize.BuildPortfolio(ws, eos, sitePtrs, summaries, portfolioCfg)

	ws.Log.WithFields(logrus.Fields{
		"eos": len(eos), "sites": len(sitePtrs), "elements": len(summaries),
	}).Info("prioritization complete")

	return PrioritizationResult{EOs: eos, Sites: sitePtrs, Summaries: summaries, Failures: failures}
}

// WritePrioritizationResults exports a PrioritizationResult to cfg.OutputDir.
func WritePrioritizationResults(cfg *config.Config, res PrioritizationResult) error {
	if err := store.WriteEOs(cfg.OutputDir+"/eos.shp", res.EOs); err != nil {
		return fmt.Errorf("pipeline: writing EOs: %v", err)
	}
	if err := store.WriteSites(cfg.OutputDir+"/ecs_sites.shp", res.Sites); err != nil {
		return fmt.Errorf("pipeline: writing ECS sites: %v", err)
	}
	if err := store.WriteElementSummaryWorkbook(cfg.OutputDir+"/element_summary.xlsx", res.Summaries); err != nil {
		return fmt.Errorf("pipeline: writing element summary workbook: %v", err)
	}
	if !res.Failures.Empty() {
		if err := store.WriteFailureWorkbook(cfg.OutputDir+"/prioritization_failures.xlsx", res.Failures); err != nil {
			return fmt.Errorf("pipeline: writing failure workbook: %v", err)
		}
	}
	return nil
}
