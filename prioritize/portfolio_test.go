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

package prioritize

import (
	"testing"

	"github.com/natheritage/ecs/model"
)

func TestSelectChoicePortfolioJoinsIntersectingSite(t *testing.T) {
	site := &model.Site{SiteID: "S1", Geom: sq(0, 0, 100, 100)}
	e := &model.EO{SFEOID: "EO1", ELCode: "E1", ChoiceRank: 1, Exclusion: model.ExclusionKeep, Geom: sq(10, 10, 20, 20)}
	idx := buildJoinIndex([]*model.EO{e}, []*model.Site{site})

	if len(idx.sitesByEO[e]) != 1 {
		t.Fatalf("expected the EO to join the overlapping site, got %d joins", len(idx.sitesByEO[e]))
	}
	selectChoicePortfolio(idx, []*model.EO{e}, []*model.Site{site})
	if !site.Portfolio {
		t.Fatalf("expected site touched by a ChoiceRANK<=4 EO to join the portfolio")
	}
}

func TestRunBycatchPassRespectsRemainingSlots(t *testing.T) {
	site := &model.Site{SiteID: "S1", Geom: sq(0, 0, 100, 100), Portfolio: true}
	a := &model.EO{SFEOID: "A", ELCode: "E1", Exclusion: model.ExclusionKeep, Tier: model.TierUnassigned, Geom: sq(0, 0, 10, 10)}
	b := &model.EO{SFEOID: "B", ELCode: "E1", Exclusion: model.ExclusionKeep, Tier: model.TierUnassigned, Geom: sq(20, 20, 30, 30)}
	eos := []*model.EO{a, b}
	idx := buildJoinIndex(eos, []*model.Site{site})
	targets := map[string]int{"E1": 1}

	runBycatchPass(idx, eos, targets)

	joined := 0
	excluded := 0
	for _, e := range eos {
		if e.Portfolio {
			joined++
		}
		if e.Override == model.OverrideMidSelection {
			excluded++
		}
	}
	if joined != 1 {
		t.Fatalf("expected exactly 1 EO admitted under the 1-slot target, got %d", joined)
	}
	if excluded != 1 {
		t.Fatalf("expected the overflow EO marked OverrideMidSelection, got %d", excluded)
	}
}

func TestFinalizeResolvesRemainingUnassignedEOs(t *testing.T) {
	site := &model.Site{SiteID: "S1", Geom: sq(0, 0, 100, 100)}
	inPortfolio := &model.EO{SFEOID: "A", ELCode: "E1", NewGRank: "G3", Tier: model.TierUnassigned, Portfolio: true, Geom: sq(0, 0, 10, 10)}
	notInPortfolio := &model.EO{SFEOID: "B", ELCode: "E1", NewGRank: "G3", Tier: model.TierUnassigned, Portfolio: false, Geom: sq(20, 20, 30, 30)}
	eos := []*model.EO{inPortfolio, notInPortfolio}
	idx := buildJoinIndex(eos, []*model.Site{site})

	finalize(idx, eos, []*model.Site{site})

	if inPortfolio.Tier != model.TierHighPriority {
		t.Fatalf("expected portfolio-joined Unassigned EO promoted to High Priority, got %v", inPortfolio.Tier)
	}
	if notInPortfolio.Tier != model.TierGeneral {
		t.Fatalf("expected non-portfolio Unassigned EO demoted to General, got %v", notInPortfolio.Tier)
	}
	if inPortfolio.Essential != "Essential" {
		t.Fatalf("expected High Priority EO marked Essential, got %q", inPortfolio.Essential)
	}
	if notInPortfolio.Essential != "Not essential" {
		t.Fatalf("expected General EO marked Not essential, got %q", notInPortfolio.Essential)
	}
}

func TestBuildPortfolioFillsTargetAndSetsSiteTier(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	site := &model.Site{SiteID: "S1", Geom: sq(0, 0, 100, 100)}
	irreplaceable := &model.EO{
		SFEOID: "A", ELCode: "E1", NewGRank: "G1", Tier: model.TierIrreplaceable,
		ChoiceRank: 1, Exclusion: model.ExclusionKeep, Geom: sq(0, 0, 10, 10),
	}
	unassigned := &model.EO{
		SFEOID: "B", ELCode: "E1", NewGRank: "G3", Tier: model.TierUnassigned,
		ChoiceRank: 5, Exclusion: model.ExclusionKeep, Geom: sq(50, 50, 60, 60),
	}
	eos := []*model.EO{irreplaceable, unassigned}
	sites := []*model.Site{site}
	summaries := []model.ElementSummary{{ELCode: "E1", Target: 1}}

	out := BuildPortfolio(ws, eos, sites, summaries, PortfolioConfig{})

	if !irreplaceable.Portfolio {
		t.Fatalf("expected the Irreplaceable EO to join the portfolio via step 1")
	}
	if site.ECSTier != model.TierIrreplaceable {
		t.Fatalf("expected site ECS_TIER to be the minimum joined EO tier, got %v", site.ECSTier)
	}
	if site.Essential != "Essential" {
		t.Fatalf("expected site marked Essential, got %q", site.Essential)
	}
	if len(out) != 1 || out[0].Portfolio != 1 {
		t.Fatalf("expected recomputed summary to count 1 portfolio EO, got %+v", out)
	}
}

func TestEEOSummaryOrdersByTier(t *testing.T) {
	eos := []*model.EO{
		{Tier: model.TierGeneral},
		{Tier: model.TierIrreplaceable},
		{Tier: model.TierIrreplaceable},
	}
	got := eeoSummary(eos)
	want := "Irreplaceable: 2, General: 1"
	if got != want {
		t.Fatalf("eeoSummary() = %q, want %q", got, want)
	}
}
