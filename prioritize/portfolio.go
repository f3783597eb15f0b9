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

	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
)

// slopFactor is the spatial-join tolerance the glossary names for EO/Site
// "intersects" checks.
const slopFactor = 15.0

// joinIndex is the materialized EO<->Site index spec.md §9 calls for
// ("implement as two materialized one-to-many indexes... rebuild at the
// end of each pass" rather than keeping them mutually consistent live).
type joinIndex struct {
	sitesByEO map[*model.EO][]*model.Site
	eosBySite map[*model.Site][]*model.EO
}

func buildJoinIndex(eos []*model.EO, sites []*model.Site) *joinIndex {
	idx := &joinIndex{
		sitesByEO: make(map[*model.EO][]*model.Site),
		eosBySite: make(map[*model.Site][]*model.EO),
	}
	for _, eo := range eos {
		slopped, err := geo.Buffer(eo.Geom, slopFactor)
		if err != nil {
			slopped = eo.Geom
		}
		for _, site := range sites {
			if !geo.Intersects(slopped, site.Geom) {
				continue
			}
			idx.sitesByEO[eo] = append(idx.sitesByEO[eo], site)
			idx.eosBySite[site] = append(idx.eosBySite[site], eo)
		}
	}
	return idx
}

// Update is true for an existing-portfolio update build, where a Site or
// EO's PORTFOLIO initializes from its prior OVERRIDE value instead of 0.
type PortfolioConfig struct {
	Update  bool
	Workers int
}

// BuildPortfolio implements SPEC_FULL.md §4.I end-to-end, mutating eos and
// sites in place and returning the refreshed element summaries.
func BuildPortfolio(ws *model.Workspace, eos []*model.EO, sites []*model.Site, summaries []model.ElementSummary, cfg PortfolioConfig) []model.ElementSummary {
	for _, eo := range eos {
		if cfg.Update {
			eo.Portfolio = eo.Override == model.OverrideForce
		} else {
			eo.Portfolio = false
		}
	}
	for _, site := range sites {
		if cfg.Update {
			site.Portfolio = site.Override == model.OverrideForce
		} else {
			site.Portfolio = false
		}
	}

	targets := make(map[string]int, len(summaries))
	for _, s := range summaries {
		targets[s.ELCode] = s.Target
	}

	idx := buildJoinIndex(eos, sites)
	selectChoicePortfolio(idx, eos, sites)
	runBycatchPass(idx, eos, targets)

	factors := []rankingFactor{
		{name: "BMI score", value: func(eo *model.EO) float64 { return eo.BMIScore }, ascending: false},
		{name: "NAP presence", value: func(eo *model.EO) float64 { return boolToFloat(eo.YsnNAP) }, ascending: false},
		{name: "CS_CONSVALUE", value: func(eo *model.EO) float64 { return siteConsValue(idx, eo) }, ascending: false},
		{name: "PF count", value: func(eo *model.EO) float64 { return float64(eo.PFCount) }, ascending: false},
		{name: "EO area", value: func(eo *model.EO) float64 { return eo.AreaHA }, ascending: false},
	}
	for _, f := range factors {
		if !anyElementOpen(eos, targets) {
			break
		}
		applyRankingFactor(ws, eos, targets, f, cfg.Workers)
		idx = buildJoinIndex(eos, sites)
		selectChoicePortfolio(idx, eos, sites)
		runBycatchPass(idx, eos, targets)
	}

	finalize(idx, eos, sites)
	return recomputeSummaries(eos, summaries)
}

// selectChoicePortfolio implements step 1: every EO with ChoiceRANK <= 4
// (Irreplaceable/Critical/Vital/High Priority) joins the portfolio, and so
// does any Site intersecting one.
func selectChoicePortfolio(idx *joinIndex, eos []*model.EO, sites []*model.Site) {
	for _, eo := range eos {
		if eo.ChoiceRank > 4 {
			continue
		}
		eo.Portfolio = true
		for _, site := range idx.sitesByEO[eo] {
			site.Portfolio = true
		}
	}
}

// runBycatchPass implements step 2: Unassigned EOs touching a portfolio
// Site join too (bycatch), bounded by each element's remaining open
// slots; overflow is permanently excluded via OVERRIDE=-2.
func runBycatchPass(idx *joinIndex, eos []*model.EO, targets map[string]int) {
	portfolioCount := make(map[string]int)
	for _, eo := range eos {
		if eo.Portfolio {
			portfolioCount[eo.ELCode]++
		}
	}

	byElement := make(map[string][]*model.EO)
	for _, eo := range eos {
		if eo.Exclusion == model.ExclusionKeep && eo.Tier == model.TierUnassigned && !eo.Portfolio && eo.Override != model.OverrideExclude {
			byElement[eo.ELCode] = append(byElement[eo.ELCode], eo)
		}
	}

	for elcode, candidates := range byElement {
		open := targets[elcode] - portfolioCount[elcode]
		if open <= 0 {
			for _, eo := range candidates {
				if touchesPortfolioSite(idx, eo) {
					eo.Override = model.OverrideMidSelection
				}
			}
			continue
		}
		var bycatch []*model.EO
		for _, eo := range candidates {
			if touchesPortfolioSite(idx, eo) {
				bycatch = append(bycatch, eo)
			}
		}
		sort.Slice(bycatch, func(i, j int) bool { return bycatch[i].SFEOID < bycatch[j].SFEOID })
		for i, eo := range bycatch {
			if i < open {
				eo.Portfolio = true
				portfolioCount[elcode]++
			} else {
				eo.Override = model.OverrideMidSelection
			}
		}
	}
}

func touchesPortfolioSite(idx *joinIndex, eo *model.EO) bool {
	for _, site := range idx.sitesByEO[eo] {
		if site.Portfolio {
			return true
		}
	}
	return false
}

type rankingFactor struct {
	name      string
	value     func(*model.EO) float64
	ascending bool
}

func anyElementOpen(eos []*model.EO, targets map[string]int) bool {
	portfolioCount := make(map[string]int)
	for _, eo := range eos {
		if eo.Portfolio {
			portfolioCount[eo.ELCode]++
		}
	}
	for elcode, target := range targets {
		if portfolioCount[elcode] < target {
			return true
		}
	}
	return false
}

// applyRankingFactor runs one §4.I step-3 pass: addRanks by f over each
// element's remaining Unassigned EOs, then updateTiers against that
// element's still-open slots. Elements are processed concurrently with the
// same channel-of-work-index worker pool shape prioritize.Rank uses.
func applyRankingFactor(ws *model.Workspace, eos []*model.EO, targets map[string]int, f rankingFactor, workers int) {
	byElement := make(map[string][]*model.EO)
	for _, eo := range eos {
		byElement[eo.ELCode] = append(byElement[eo.ELCode], eo)
	}
	portfolioCount := make(map[string]int)
	for _, eo := range eos {
		if eo.Portfolio {
			portfolioCount[eo.ELCode]++
		}
	}

	elcodes := make([]string, 0, len(byElement))
	for ec := range byElement {
		elcodes = append(elcodes, ec)
	}
	sort.Strings(elcodes)

	nprocs := workers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(-1)
	}
	indexChan := make(chan int)
	done := make(chan struct{}, len(elcodes))

	worker := func() {
		for i := range indexChan {
			elcode := elcodes[i]
			group := byElement[elcode]
			open := targets[elcode] - portfolioCount[elcode]
			if open > 0 {
				if candidates := eligibleUnassigned(group); len(candidates) > 0 {
					dense := addRanks(candidates, f.value, f.ascending, 0, ThreshABS, 2)
					mod := modRanks(dense)
					updateTiers(group, mod, open)
					for _, eo := range group {
						eo.ChoiceRank = choiceRankFor(eo.Tier)
					}
					ws.Log.WithFields(logrus.Fields{"elcode": elcode, "factor": f.name, "open": open}).Debug("applied portfolio ranking factor")
				}
			}
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
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func siteConsValue(idx *joinIndex, eo *model.EO) float64 {
	var total float64
	for _, site := range idx.sitesByEO[eo] {
		total += siteTotalConsValue(idx, site)
	}
	return total
}

func siteTotalConsValue(idx *joinIndex, site *model.Site) float64 {
	var total float64
	for _, eo := range idx.eosBySite[site] {
		total += eo.ConsValue
	}
	return total
}

// finalize implements §4.I's closing paragraph: resolve remaining tiers
// and OVERRIDE markers, compute FinalRANK/EEO_TIER/ESSENTIAL per EO, then
// derive each Site's ECS_TIER/ESSENTIAL/CS_CONSVALUE/EEO_SUMMARY from its
// joined EOs.
func finalize(idx *joinIndex, eos []*model.EO, sites []*model.Site) {
	for _, eo := range eos {
		if eo.Override == model.OverrideMidSelection {
			eo.Override = model.OverrideNone
		}
		if eo.Tier == model.TierUnassigned {
			if eo.Portfolio {
				eo.Tier = model.TierHighPriority
			} else {
				eo.Tier = model.TierGeneral
			}
		}
		eo.ConsValue = consValueFor(eo.Tier, eo.NewGRank)
		eo.FinalRank = choiceRankFor(eo.Tier)
		eo.ChoiceRank = eo.FinalRank
		eo.EEOTier = string(eo.Tier)
		eo.Essential = essentialFor(eo.Tier)
	}

	for _, site := range sites {
		joined := idx.eosBySite[site]
		site.CSConsValue = siteTotalConsValue(idx, site)
		site.CSAreaHA = site.Geom.Area() / 10000.0
		site.ECSTier = minTier(joined)
		site.Essential = essentialFor(site.ECSTier)
		site.EEOSummary = eeoSummary(joined)
	}
}

func essentialFor(tier model.Tier) string {
	switch tier {
	case model.TierIrreplaceable, model.TierCritical, model.TierVital, model.TierHighPriority:
		return "Essential"
	default:
		return "Not essential"
	}
}

func minTier(eos []*model.EO) model.Tier {
	best := model.TierUnassigned
	bestRank := choiceRankFor(best)
	for _, eo := range eos {
		if r := choiceRankFor(eo.Tier); r < bestRank {
			bestRank = r
			best = eo.Tier
		}
	}
	return best
}

// eeoSummary builds the textual per-tier EO count spec.md §4.I calls
// EEO_SUMMARY, e.g. "Irreplaceable: 1, Critical: 2, High Priority: 3".
func eeoSummary(eos []*model.EO) string {
	order := []model.Tier{
		model.TierIrreplaceable, model.TierCritical, model.TierVital,
		model.TierHighPriority, model.TierGeneral, model.TierUnassigned,
	}
	counts := make(map[model.Tier]int)
	for _, eo := range eos {
		counts[eo.Tier]++
	}
	var parts []string
	for _, t := range order {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", t, n))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

func recomputeSummaries(eos []*model.EO, summaries []model.ElementSummary) []model.ElementSummary {
	byElement := make(map[string][]*model.EO)
	for _, eo := range eos {
		byElement[eo.ELCode] = append(byElement[eo.ELCode], eo)
	}
	out := make([]model.ElementSummary, len(summaries))
	for i, s := range summaries {
		tierCounts := make(map[model.Tier]int)
		portfolio := 0
		for _, eo := range byElement[s.ELCode] {
			tierCounts[eo.Tier]++
			if eo.Portfolio {
				portfolio++
			}
		}
		s.TierCounts = tierCounts
		s.Portfolio = portfolio
		switch {
		case s.Target == 0:
			s.Status = model.StatusNA
		case portfolio == s.Target:
			s.Status = model.StatusTargetMet
		case portfolio > s.Target:
			s.Status = model.StatusTargetExceeded
		default:
			s.Status = model.StatusTargetNotMet
		}
		out[i] = s
	}
	return out
}
