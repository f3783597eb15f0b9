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

package sbb

import (
	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
)

const (
	coreExpandBuffer = 1000.0
	coreSmoothDist   = 120.0
)

// isExpansionCandidate reports whether intRule is a "PF of interest":
// every rule except the two SPEC_FULL.md §4.D excludes, AHZ (-1) and
// Rule 1.
func isExpansionCandidate(intRule int) bool {
	return intRule != -1 && intRule != 1
}

// Expand implements SPEC_FULL.md §4.D: for each habitat core intersecting
// at least one PF of interest, the SBBs belonging to those PFs are
// buffered by 1000 m, clipped to the core, stripped of fragments
// containing no PF, and unioned back into the originals. The result is
// smoothed by a 120 m closing as a stand-in for PAEK smoothing (see
// DESIGN.md).
func Expand(ws *model.Workspace, sbbs []model.SBB, pfs []model.PF, cores []geom.Polygon) []model.SBB {
	pfBySFID := make(map[string]model.PF, len(pfs))
	for _, pf := range pfs {
		pfBySFID[pf.SFID] = pf
	}

	extra := make(map[string][]geom.Polygon, len(sbbs))
	for _, core := range cores {
		var ofInterest []model.SBB
		var interestingPFs []geom.Polygon
		for _, s := range sbbs {
			pf, ok := pfBySFID[s.SFID]
			if !ok || !isExpansionCandidate(model.IntRule(pf.Rule)) {
				continue
			}
			if !geo.Intersects(pf.Geom, core) {
				continue
			}
			ofInterest = append(ofInterest, s)
			interestingPFs = append(interestingPFs, pf.Geom)
		}
		if len(ofInterest) == 0 {
			continue
		}
		for _, s := range ofInterest {
			buffered, err := geo.Buffer(s.Geom, coreExpandBuffer)
			if err != nil {
				ws.Log.WithField("sfid", s.SFID).Warn("core expansion buffer failed")
				continue
			}
			clipped := geo.CleanClip(ws, buffered, core)
			kept := geo.CullFrags(clipped, dissolvePFs(interestingPFs), 0)
			extra[s.SFID] = append(extra[s.SFID], kept...)
		}
	}

	out := make([]model.SBB, len(sbbs))
	for i, s := range sbbs {
		pieces := append([]geom.Polygon{s.Geom}, extra[s.SFID]...)
		union := geo.Dissolve(pieces)
		smoothed, err := geo.Coalesce([]geom.Polygon{union}, coreSmoothDist)
		if err != nil {
			out[i] = s
			continue
		}
		s.Geom = smoothed
		out[i] = s
	}
	return out
}

func dissolvePFs(pfs []geom.Polygon) geom.Polygon {
	return geo.Dissolve(pfs)
}
