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
	"fmt"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/natheritage/ecs/model"
)

// threshType selects the comparison spec.md §4.H's addRanks uses to decide
// whether two sorted values are "equivalent".
type threshType int

// Threshold comparison kinds addRanks supports.
const (
	ThreshABS threshType = iota
	ThreshPER
)

// RankConfig toggles the optional ranking criteria of SPEC_FULL.md §4.H.
type RankConfig struct {
	WeightMilitary bool
	WeightObsYear  bool
	// Workers caps per-element ranking concurrency; 0 means
	// runtime.GOMAXPROCS(-1).
	Workers int
}

// addRanks implements spec.md §4.H's addRanks: a dense, within-group rank
// over items sorted by value(item), where consecutive sorted values are
// folded into the same rank when they differ from the last
// rank-incrementing value by no more than thresh (ABS) or thresh percent
// (PER). round, when > 0, stabilizes floating-point comparisons by
// rounding values to that many decimal places before comparing.
func addRanks(items []*model.EO, value func(*model.EO) float64, ascending bool, thresh float64, tt threshType, round int) map[*model.EO]int {
	sorted := append([]*model.EO{}, items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := value(sorted[i]), value(sorted[j])
		if ascending {
			return vi < vj
		}
		return vi > vj
	})

	ranks := make(map[*model.EO]int, len(sorted))
	if len(sorted) == 0 {
		return ranks
	}
	roundVal := func(v float64) float64 {
		if round <= 0 {
			return v
		}
		return floats.Round(v, round)
	}

	rank := 1
	vstar := roundVal(value(sorted[0]))
	ranks[sorted[0]] = rank
	for _, item := range sorted[1:] {
		v := roundVal(value(item))
		var diff float64
		if tt == ThreshPER && vstar != 0 {
			diff = 100 * abs(v-vstar) / abs(vstar)
		} else {
			diff = abs(v - vstar)
		}
		if diff > thresh {
			rank++
			vstar = v
		}
		ranks[item] = rank
	}
	return ranks
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// modRanks converts the dense ranks addRanks produced into modified
// competition ranks: every item's rank becomes the count of items with a
// strictly smaller dense rank, plus one.
func modRanks(dense map[*model.EO]int) map[*model.EO]int {
	counts := make(map[int]int)
	for _, r := range dense {
		counts[r]++
	}
	uniq := make([]int, 0, len(counts))
	for r := range counts {
		uniq = append(uniq, r)
	}
	sort.Ints(uniq)

	offset := make(map[int]int, len(uniq))
	cum := 0
	for _, r := range uniq {
		offset[r] = cum + 1
		cum += counts[r]
	}
	out := make(map[*model.EO]int, len(dense))
	for eo, r := range dense {
		out[eo] = offset[r]
	}
	return out
}

// updateTiers implements spec.md §4.H's updateTiers: promote the best-
// ranked Unassigned EOs in a single element to High Priority until
// availSlots is spent, demoting the rest to General once a rank boundary
// is found. A tie at the fill boundary that would overflow availSlots is
// promoted in full only if the whole tied group still fits within
// availSlots; otherwise the tie is left Unassigned (unresolved) and the
// pass stops without filling the element, per DESIGN.md's reading of the
// tie-break wording.
func updateTiers(eos []*model.EO, rank map[*model.EO]int, availSlots int) {
	if availSlots <= 0 {
		return
	}
	var unassigned []*model.EO
	for _, eo := range eos {
		if eo.Tier == model.TierUnassigned {
			unassigned = append(unassigned, eo)
		}
	}
	if len(unassigned) == 0 {
		return
	}

	byRank := make(map[int][]*model.EO)
	for _, eo := range unassigned {
		r := rank[eo]
		byRank[r] = append(byRank[r], eo)
	}
	ranks := make([]int, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	cumulative := 0
	for _, r := range ranks {
		group := byRank[r]
		if cumulative+len(group) <= availSlots {
			for _, eo := range group {
				eo.Tier = model.TierHighPriority
			}
			cumulative += len(group)
			if cumulative == availSlots {
				demoteRemaining(ranks, byRank, r)
				return
			}
			continue
		}
		// Tie at r would overflow availSlots.
		if len(group) <= availSlots {
			for _, eo := range group {
				eo.Tier = model.TierHighPriority
			}
		}
		demoteRemaining(ranks, byRank, r)
		return
	}
}

func demoteRemaining(ranks []int, byRank map[int][]*model.EO, through int) {
	for _, r := range ranks {
		if r <= through {
			continue
		}
		for _, eo := range byRank[r] {
			eo.Tier = model.TierGeneral
		}
	}
}

// eoConsValue is the fixed TIER x G-rank matrix spec.md §4.H calls for.
// The spec names the axes but not the numbers; values here increase with
// both tier essentiality and element rarity, matching the ordering every
// downstream use (CS_CONSVALUE, portfolio ranking) relies on. See
// DESIGN.md for the reasoning.
var eoConsValue = map[model.Tier]map[string]float64{
	model.TierIrreplaceable: {"G1": 100, "G2": 90, "G3": 80, "G4": 70, "G5": 60},
	model.TierCritical:      {"G1": 80, "G2": 70, "G3": 60, "G4": 50, "G5": 40},
	model.TierVital:         {"G1": 60, "G2": 50, "G3": 40, "G4": 30, "G5": 20},
	model.TierHighPriority:  {"G1": 40, "G2": 30, "G3": 20, "G4": 10, "G5": 5},
	model.TierGeneral:       {"G1": 10, "G2": 8, "G3": 6, "G4": 4, "G5": 2},
	model.TierUnassigned:    {"G1": 0, "G2": 0, "G3": 0, "G4": 0, "G5": 0},
}

func consValueFor(tier model.Tier, grank string) float64 {
	byGrank, ok := eoConsValue[tier]
	if !ok {
		return 0
	}
	if v, ok := byGrank[grank]; ok {
		return v
	}
	return byGrank["G5"]
}

// choiceRank is the fixed TIER -> integer mapping spec.md §4.H specifies
// verbatim.
var choiceRank = map[model.Tier]int{
	model.TierIrreplaceable: 1,
	model.TierCritical:      2,
	model.TierVital:         3,
	model.TierHighPriority:  4,
	model.TierUnassigned:    5,
	model.TierGeneral:       6,
}

func choiceRankFor(tier model.Tier) int {
	if r, ok := choiceRank[tier]; ok {
		return r
	}
	return 7
}

// Rank implements SPEC_FULL.md §4.H end-to-end: for every element, apply
// the RANK_mil/RANK_eo/RANK_year criteria in order (each gated by cfg's
// weighting toggles), promote Unassigned EOs to High Priority via
// updateTiers, select a Vital EO where one is unambiguous, then assign
// EO_CONSVALUE and ChoiceRANK to every EO regardless of element. Ranking
// work for independent elements runs concurrently, the same channel-of-
// work-index worker pool shape assembler.Assemble uses over ProtoSites.
func Rank(ws *model.Workspace, eos []*model.EO, summaries []model.ElementSummary, cfg RankConfig, failures *model.FailureReport) {
	byElement := make(map[string][]*model.EO)
	for _, eo := range eos {
		byElement[eo.ELCode] = append(byElement[eo.ELCode], eo)
	}
	targets := make(map[string]int, len(summaries))
	for _, s := range summaries {
		targets[s.ELCode] = s.Target
	}

	elcodes := make([]string, 0, len(byElement))
	for ec := range byElement {
		elcodes = append(elcodes, ec)
	}
	sort.Strings(elcodes)

	nprocs := cfg.Workers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(-1)
	}
	indexChan := make(chan int)
	done := make(chan struct{}, len(elcodes))

	worker := func() {
		for i := range indexChan {
			ec := elcodes[i]
			func() {
				defer func() {
					if r := recover(); r != nil {
						ws.Log.WithFields(logrus.Fields{"elcode": ec}).Errorf("ranking panic: %v", r)
						failures.AddElement(ec, errOf(r))
					}
				}()
				rankElement(byElement[ec], targets[ec], cfg)
			}()
			done <- struct{}{}
		}
	}
	for p := 0; p < nprocs; p++ {
		go worker()
	}
	go func() {
		for i := range elcodes {
			indexChan <- i
		}
		close(indexChan)
	}()
	for range elcodes {
		<-done
	}

	for _, eo := range eos {
		eo.ConsValue = consValueFor(eo.Tier, eo.NewGRank)
		eo.FinalRank = choiceRankFor(eo.Tier)
		eo.ChoiceRank = eo.FinalRank
	}
}

func rankElement(group []*model.EO, target int, cfg RankConfig) {
	availSlots := target
	for _, eo := range group {
		switch eo.Tier {
		case model.TierIrreplaceable, model.TierCritical:
			availSlots--
		}
	}
	if availSlots <= 0 {
		return
	}

	if cfg.WeightMilitary {
		dense := addRanks(eligibleUnassigned(group), func(eo *model.EO) float64 { return eo.PercentMil }, true, 5, ThreshABS, 2)
		mod := modRanks(dense)
		for eo, r := range mod {
			eo.RankMil = r
		}
		updateTiers(group, mod, availSlots)
		availSlots = remainingSlots(group, target)
		if availSlots <= 0 {
			return
		}
	}

	denseEO := addRanks(eligibleUnassigned(group), func(eo *model.EO) float64 { return float64(eo.EORankNum) }, true, 0.5, ThreshABS, 2)
	modEO := modRanks(denseEO)
	for eo, r := range modEO {
		eo.RankEO = r
	}
	updateTiers(group, modEO, availSlots)
	availSlots = remainingSlots(group, target)

	if availSlots > 0 && cfg.WeightObsYear {
		denseYear := addRanks(eligibleUnassigned(group), func(eo *model.EO) float64 { return float64(eo.ObsYear) }, false, 3, ThreshABS, 0)
		modYear := modRanks(denseYear)
		for eo, r := range modYear {
			eo.RankYear = r
		}
		updateTiers(group, modYear, availSlots)
	}

	var highPriority []*model.EO
	for _, eo := range group {
		if eo.Tier == model.TierHighPriority {
			highPriority = append(highPriority, eo)
		}
	}
	selectVital(group, modEO, modRanks(addRanks(highPriority, func(eo *model.EO) float64 { return float64(eo.ObsYear) }, false, 3, ThreshABS, 0)))
}

func remainingSlots(group []*model.EO, target int) int {
	slots := target
	for _, eo := range group {
		switch eo.Tier {
		case model.TierIrreplaceable, model.TierCritical, model.TierHighPriority:
			slots--
		}
	}
	return slots
}

func eligibleUnassigned(group []*model.EO) []*model.EO {
	var out []*model.EO
	for _, eo := range group {
		if eo.Exclusion == model.ExclusionKeep && eo.Tier == model.TierUnassigned {
			out = append(out, eo)
		}
	}
	return out
}

// selectVital implements spec.md §4.H's Vital selection: among an
// element's High Priority EOs, promote the unique top-of-RANK_eo EO to
// Vital, falling back to the unique top-of-RANK_year EO if RANK_eo has no
// unique top.
func selectVital(group []*model.EO, rankEO, rankYear map[*model.EO]int) {
	var highPriority []*model.EO
	for _, eo := range group {
		if eo.Tier == model.TierHighPriority {
			highPriority = append(highPriority, eo)
		}
	}
	if len(highPriority) == 0 {
		return
	}
	if v := uniqueTop(highPriority, rankEO); v != nil {
		v.Tier = model.TierVital
		return
	}
	if v := uniqueTop(highPriority, rankYear); v != nil {
		v.Tier = model.TierVital
	}
}

func uniqueTop(group []*model.EO, rank map[*model.EO]int) *model.EO {
	best := -1
	var candidate *model.EO
	count := 0
	for _, eo := range group {
		r, ok := rank[eo]
		if !ok {
			continue
		}
		switch {
		case best == -1 || r < best:
			best = r
			candidate = eo
			count = 1
		case r == best:
			count++
		}
	}
	if count == 1 {
		return candidate
	}
	return nil
}

func errOf(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
