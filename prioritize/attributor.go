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

// Package prioritize implements the Essential Conservation Sites pass:
// dissolving PFs into EOs and computing their attributes (SPEC_FULL.md
// §4.G), ranking and tiering EOs within each element (§4.H), and building
// the final Site portfolio (§4.I).
package prioritize

import (
	"sort"
	"time"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"

	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
)

// ConservationLand is a parcel classified by Biodiversity Management
// Intent class (1 best-protected .. 4, "U" unranked omitted) and, where
// applicable, a management-area type used to detect military land.
type ConservationLand struct {
	Geom     geom.Polygon
	BMIClass int    // 1..4; 0 means unranked ("U"), excluded from BMI_score
	MAType   string
}

// EcoRegion is one named ecoregion polygon; eco-region membership columns
// on an EO are computed against a set of these.
type EcoRegion struct {
	Code string
	Geom geom.Polygon
}

// NAPFeature is a Natural Area Preserve presence polygon; an EO overlapping
// any of these carries ysnNAP=true.
type NAPFeature struct {
	Geom geom.Polygon
}

// AttributorConfig bundles the reference layers and thresholds §4.G's
// attribute computations need.
type AttributorConfig struct {
	ConservationLands []ConservationLand
	MilitaryMATypes   []string
	EcoRegions        []EcoRegion
	NAP               []NAPFeature

	// ElementExclusions lists ELCODEs the `ELEMENT_EXCLUSIONS` join flags
	// regardless of an individual EO's viability.
	ElementExclusions map[string]bool

	// CurrentYear anchors the RECENT-vs-cutoff computation (pass
	// explicitly rather than reading the clock, so runs stay
	// reproducible; see SPEC_FULL.md §5).
	CurrentYear int
	// UpdateCutoffYears flags an EO "Update Needed" (RECENT=1) once its
	// observation is more than this many years old; ExcludeCutoffYears
	// excludes it (RECENT=0) once more than that many years old. Neither
	// threshold is named exactly by spec.md §3; see config.go for the
	// defaults.
	UpdateCutoffYears  int
	ExcludeCutoffYears int
}

// BMI class coefficients from SPEC_FULL.md §4.G's BMI_score formula.
var bmiWeight = map[int]float64{1: 1.00, 2: 0.75, 3: 0.50, 4: 0.25}

// BuildEOs dissolves pfs by SFEOID into EOs, computes every §3/§4.G
// attribute, and returns the per-ELCODE summary rows alongside them.
func BuildEOs(ws *model.Workspace, pfs []model.PF, cfg AttributorConfig) ([]*model.EO, []model.ElementSummary) {
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = currentYearFrom(pfs)
	}
	groups := groupBySFEOID(pfs)

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	eos := make([]*model.EO, 0, len(ids))
	for _, id := range ids {
		eos = append(eos, buildEO(groups[id], cfg))
	}

	summaries := buildElementSummaries(eos)
	ws.Log.WithFields(logrus.Fields{"eos": len(eos), "elements": len(summaries)}).Info("attributed EOs")
	return eos, summaries
}

func groupBySFEOID(pfs []model.PF) map[string][]model.PF {
	out := make(map[string][]model.PF)
	for _, pf := range pfs {
		out[pf.SFEOID] = append(out[pf.SFEOID], pf)
	}
	return out
}

func buildEO(pfs []model.PF, cfg AttributorConfig) *model.EO {
	geoms := make([]geom.Polygon, len(pfs))
	var area float64
	latestObs := pfs[0].EOLastObs
	for i, pf := range pfs {
		geoms[i] = pf.Geom
		area += pf.Geom.Area()
		if pf.EOLastObs.After(latestObs) {
			latestObs = pf.EOLastObs
		}
	}
	dissolved := geo.Dissolve(geoms)

	eo := &model.EO{
		SFEOID:     pfs[0].SFEOID,
		ELCode:     pfs[0].ELCode,
		NewGRank:   normalizeGRank(pfs[0].BiodivGRank),
		ObsYear:    latestObs.Year(),
		EORankNum:  eoRankNum(pfs[0].EORank),
		PFCount:    len(pfs),
		AreaHA:     area / 10000.0,
		EcoRegions: make(map[string]bool),
		Geom:       dissolved,
		Tier:       model.TierUnassigned,
	}
	eo.Recent = recency(eo.ObsYear, cfg.CurrentYear, cfg.UpdateCutoffYears, cfg.ExcludeCutoffYears)
	eo.Exclusion = classifyExclusion(pfs[0], eo, cfg)
	eo.PercentMil = percentOverlap(dissolved, cfg.ConservationLands, func(c ConservationLand) bool {
		return containsString(cfg.MilitaryMATypes, c.MAType)
	})
	eo.BMIScore = bmiScore(dissolved, cfg.ConservationLands)
	eo.YsnNAP = overlapsAnyNAP(dissolved, cfg.NAP)
	eo.MainEcoReg = attachEcoRegions(eo, dissolved, cfg.EcoRegions)
	return eo
}

// normalizeGRank maps a raw BIODIV_GRANK to a G-rank: T-ranks (subspecies/
// variety ranks, e.g. "G3T2") map to their G-component, and anything
// unrankable (GX, GU, GH, or empty) defaults to G5 per spec.md §3.
func normalizeGRank(raw string) string {
	if raw == "" {
		return "G5"
	}
	if i := indexByte(raw, 'T'); i > 0 {
		raw = raw[:i]
	}
	switch raw {
	case "GX", "GU", "GH":
		return "G5"
	}
	return raw
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// eoRankTable maps NatureServe EO-rank letter codes (and AB/BC/CD
// intergrades) to the 1..10 scale spec.md §3 calls for; anything else
// (H, X, F, U, blank) is unrankable (11).
var eoRankTable = map[string]int{
	"A": 1, "AB": 2, "B": 3, "BC": 4, "C": 5,
	"CD": 6, "D": 7, "E": 8,
}

func eoRankNum(raw string) int {
	if n, ok := eoRankTable[raw]; ok {
		return n
	}
	return 11
}

// recency implements spec.md §3's RECENT classification: 2 when the
// observation is within UpdateCutoffYears, 1 ("Update Needed") when older
// but within ExcludeCutoffYears, 0 (excluded) beyond that.
func recency(obsYear, currentYear, updateCutoff, excludeCutoff int) int {
	age := currentYear - obsYear
	switch {
	case age <= updateCutoff:
		return 2
	case age <= excludeCutoff:
		return 1
	default:
		return 0
	}
}

// classifyExclusion implements the EXCLUSION classification from §3/§4.G,
// checked in this order: non-viable rank, old observation, element-level
// exclusion, then empty geometry (Error Check Needed); anything else is
// Keep.
func classifyExclusion(pf model.PF, eo *model.EO, cfg AttributorConfig) model.Exclusion {
	if eo.EORankNum == 11 && (pf.EORank == "X" || pf.EORank == "H" || pf.EORank == "F") {
		return model.ExclusionNotViable
	}
	if eo.Recent == 0 {
		return model.ExclusionOldObservation
	}
	if cfg.ElementExclusions[eo.ELCode] {
		return model.ExclusionExcludedElement
	}
	if eo.Geom == nil || len(eo.Geom) == 0 {
		return model.ExclusionErrorCheck
	}
	return model.ExclusionKeep
}

func percentOverlap(g geom.Polygon, lands []ConservationLand, include func(ConservationLand) bool) float64 {
	area := g.Area()
	if area == 0 {
		return 0
	}
	var covered float64
	for _, l := range lands {
		if !include(l) || !geo.Intersects(g, l.Geom) {
			continue
		}
		covered += g.Intersection(l.Geom).Area()
	}
	return 100 * covered / area
}

func bmiScore(g geom.Polygon, lands []ConservationLand) float64 {
	area := g.Area()
	if area == 0 {
		return 0
	}
	var score float64
	for class, weight := range bmiWeight {
		var covered float64
		for _, l := range lands {
			if l.BMIClass != class || !geo.Intersects(g, l.Geom) {
				continue
			}
			covered += g.Intersection(l.Geom).Area()
		}
		score += weight * 100 * covered / area
	}
	return roundHalfUp(score)
}

func overlapsAnyNAP(g geom.Polygon, nap []NAPFeature) bool {
	for _, n := range nap {
		if geo.Intersects(g, n.Geom) {
			return true
		}
	}
	return false
}

// attachEcoRegions sets eo.EcoRegions for every ecoregion g overlaps and
// returns the code of the one with the largest overlap area.
func attachEcoRegions(eo *model.EO, g geom.Polygon, regions []EcoRegion) string {
	var best string
	var bestArea float64
	for _, r := range regions {
		if !geo.Intersects(g, r.Geom) {
			continue
		}
		eo.EcoRegions[r.Code] = true
		if a := g.Intersection(r.Geom).Area(); a > bestArea {
			bestArea = a
			best = r.Code
		}
	}
	return best
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func roundHalfUp(v float64) float64 {
	if v < 0 {
		return -roundHalfUp(-v)
	}
	return float64(int64(v + 0.5))
}

// grankOrder orders G-ranks from rarest to most secure, for the element
// target computation (spec.md §3: "10 if G1, 5 if G2, else 2").
var grankOrder = map[string]int{"G1": 1, "G2": 2, "G3": 3, "G4": 4, "G5": 5}

func elementTarget(eligible []*model.EO) int {
	rarest := 5
	for _, eo := range eligible {
		if r, ok := grankOrder[eo.NewGRank]; ok && r < rarest {
			rarest = r
		}
	}
	target := 2
	switch rarest {
	case 1:
		target = 10
	case 2:
		target = 5
	}
	if len(eligible) < target {
		target = len(eligible)
	}
	return target
}

func buildElementSummaries(eos []*model.EO) []model.ElementSummary {
	byElement := make(map[string][]*model.EO)
	for _, eo := range eos {
		byElement[eo.ELCode] = append(byElement[eo.ELCode], eo)
	}
	elcodes := make([]string, 0, len(byElement))
	for e := range byElement {
		elcodes = append(elcodes, e)
	}
	sort.Strings(elcodes)

	out := make([]model.ElementSummary, 0, len(elcodes))
	for _, ec := range elcodes {
		group := byElement[ec]
		var eligible []*model.EO
		ineligible := 0
		regionSet := make(map[string]bool)
		for _, eo := range group {
			if eo.Exclusion == model.ExclusionKeep {
				eligible = append(eligible, eo)
				for r := range eo.EcoRegions {
					regionSet[r] = true
				}
			} else {
				ineligible++
			}
		}
		target := elementTarget(eligible)
		initTier := model.TierUnassigned
		switch len(eligible) {
		case 0:
		case 1:
			initTier = model.TierIrreplaceable
		case 2:
			initTier = model.TierCritical
		}
		for _, eo := range eligible {
			eo.Tier = initTier
		}
		out = append(out, model.ElementSummary{
			ELCode:        ec,
			CountAllEO:    len(group),
			CountIneligEO: ineligible,
			CountEligEO:   len(eligible),
			NumRegions:    len(regionSet),
			Target:        target,
			InitTier:      initTier,
			TierCounts:    make(map[model.Tier]int),
		})
	}
	return out
}

// currentYearFrom derives a stable "current year" for a run from the
// latest observation in the input set, so a run is reproducible without
// reading the wall clock (SPEC_FULL.md §5); callers that want real-world
// recency should instead pass an explicit AttributorConfig.CurrentYear.
func currentYearFrom(pfs []model.PF) int {
	year := 0
	for _, pf := range pfs {
		if y := pf.EOLastObs.Year(); y > year {
			year = y
		}
	}
	if year == 0 {
		year = time.Now().Year()
	}
	return year
}
