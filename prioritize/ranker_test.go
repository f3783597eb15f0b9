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

func eo(elcode string, tier model.Tier) *model.EO {
	return &model.EO{ELCode: elcode, Exclusion: model.ExclusionKeep, Tier: tier}
}

func TestAddRanksFoldsWithinThreshold(t *testing.T) {
	a := eo("E1", model.TierUnassigned)
	b := eo("E1", model.TierUnassigned)
	c := eo("E1", model.TierUnassigned)
	a.PercentMil, b.PercentMil, c.PercentMil = 0, 3, 20

	dense := addRanks([]*model.EO{a, b, c}, func(e *model.EO) float64 { return e.PercentMil }, true, 5, ThreshABS, 0)
	if dense[a] != dense[b] {
		t.Fatalf("expected a and b folded into the same rank, got %d and %d", dense[a], dense[b])
	}
	if dense[c] == dense[a] {
		t.Fatalf("expected c to be a distinct rank from a, got %d", dense[c])
	}
}

func TestModRanksCompressesSkippedRanks(t *testing.T) {
	a, b, c := eo("E1", model.TierUnassigned), eo("E1", model.TierUnassigned), eo("E1", model.TierUnassigned)
	dense := map[*model.EO]int{a: 1, b: 1, c: 3}
	mod := modRanks(dense)
	if mod[a] != 1 || mod[b] != 1 {
		t.Fatalf("expected rank-1 tie to stay 1, got %d, %d", mod[a], mod[b])
	}
	if mod[c] != 3 {
		t.Fatalf("expected modified competition rank 3 (2 items ahead), got %d", mod[c])
	}
}

func TestUpdateTiersPromotesWithinSlots(t *testing.T) {
	a, b, c := eo("E1", model.TierUnassigned), eo("E1", model.TierUnassigned), eo("E1", model.TierUnassigned)
	group := []*model.EO{a, b, c}
	rank := map[*model.EO]int{a: 1, b: 2, c: 3}
	updateTiers(group, rank, 2)

	if a.Tier != model.TierHighPriority || b.Tier != model.TierHighPriority {
		t.Fatalf("expected ranks 1 and 2 promoted, got %v, %v", a.Tier, b.Tier)
	}
	if c.Tier != model.TierGeneral {
		t.Fatalf("expected rank 3 demoted to General once slots spent, got %v", c.Tier)
	}
}

func TestUpdateTiersLeavesOverflowingTieUnassigned(t *testing.T) {
	a, b, c := eo("E1", model.TierUnassigned), eo("E1", model.TierUnassigned), eo("E1", model.TierUnassigned)
	group := []*model.EO{a, b, c}
	rank := map[*model.EO]int{a: 1, b: 1, c: 1}
	updateTiers(group, rank, 1)

	for _, e := range group {
		if e.Tier != model.TierUnassigned {
			t.Fatalf("expected tied group of 3 to stay Unassigned against 1 slot, got %v", e.Tier)
		}
	}
}

func TestRankFillsTargetAcrossElement(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	var eos []*model.EO
	for i := 0; i < 4; i++ {
		e := eo("E1", model.TierUnassigned)
		e.EORankNum = i + 1
		eos = append(eos, e)
	}
	summaries := []model.ElementSummary{{ELCode: "E1", Target: 2}}
	failures := model.NewFailureReport()

	Rank(ws, eos, summaries, RankConfig{WeightMilitary: false, WeightObsYear: false}, failures)

	promoted := 0
	for _, e := range eos {
		if e.Tier == model.TierHighPriority || e.Tier == model.TierVital {
			promoted++
		}
	}
	if promoted != 2 {
		t.Fatalf("expected exactly 2 EOs promoted to fill target 2, got %d", promoted)
	}
	if !failures.Empty() {
		t.Fatalf("expected no failures, got %+v", failures.ElementErrors)
	}
}

func TestSelectVitalPromotesUniqueTopRankEO(t *testing.T) {
	a, b := eo("E1", model.TierHighPriority), eo("E1", model.TierHighPriority)
	rankEO := map[*model.EO]int{a: 1, b: 2}
	rankYear := map[*model.EO]int{a: 5, b: 5}
	selectVital([]*model.EO{a, b}, rankEO, rankYear)
	if a.Tier != model.TierVital {
		t.Fatalf("expected unique top RANK_eo promoted to Vital, got %v", a.Tier)
	}
	if b.Tier != model.TierHighPriority {
		t.Fatalf("expected non-top EO to stay High Priority, got %v", b.Tier)
	}
}

func TestSelectVitalFallsBackToRankYearOnTie(t *testing.T) {
	a, b := eo("E1", model.TierHighPriority), eo("E1", model.TierHighPriority)
	rankEO := map[*model.EO]int{a: 1, b: 1}
	rankYear := map[*model.EO]int{a: 2, b: 1}
	selectVital([]*model.EO{a, b}, rankEO, rankYear)
	if b.Tier != model.TierVital {
		t.Fatalf("expected tie broken by RANK_year, got a=%v b=%v", a.Tier, b.Tier)
	}
}

func TestConsValueForUnknownGrankFallsBackToG5(t *testing.T) {
	v := consValueFor(model.TierIrreplaceable, "GH")
	if v != eoConsValue[model.TierIrreplaceable]["G5"] {
		t.Fatalf("expected unknown G-rank to fall back to G5 value, got %v", v)
	}
}

func TestChoiceRankForMatchesFixedMapping(t *testing.T) {
	cases := map[model.Tier]int{
		model.TierIrreplaceable: 1,
		model.TierCritical:      2,
		model.TierVital:         3,
		model.TierHighPriority:  4,
		model.TierUnassigned:    5,
		model.TierGeneral:       6,
	}
	for tier, want := range cases {
		if got := choiceRankFor(tier); got != want {
			t.Fatalf("choiceRankFor(%v) = %d, want %d", tier, got, want)
		}
	}
}
