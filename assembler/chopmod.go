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

package assembler

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
)

const (
	pfKeepFrac  = 0.01
	sbbKeepFrac = 0.25
)

// chopMod implements SPEC_FULL.md §4.E step (d): erase the merged
// modifier layer from the PFs and SBBs of a ProtoSite, eliminate the
// fragments that result from slivers, expand the kept SBB pieces to any
// neighbor within siteSearchDist, and re-cluster the survivors into
// sbbClusters. anyErased reports whether any PF lost its entire area and
// should only be logged, not treated as fatal.
func chopMod(ws *model.Workspace, pfs []model.PF, sbbs []model.SBB, coalErase geom.Polygon) (sbbClusters []geom.Polygon, anyErased bool, err error) {
	retainedPF := make(map[string][]geom.Polygon, len(pfs))
	for _, pf := range pfs {
		pieces := geo.CleanErase(ws, pf.Geom, coalErase)
		min := pf.Geom.Area() * pfKeepFrac
		var kept []geom.Polygon
		for _, p := range pieces {
			if p.Area() >= min {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			anyErased = true
			continue
		}
		retainedPF[pf.SFID] = kept
	}

	type chopPiece struct {
		sfid string
		geom geom.Polygon
	}
	var sbbChop []chopPiece
	for _, s := range sbbs {
		pieces := geo.CleanErase(ws, s.Geom, coalErase)
		min := s.Geom.Area() * sbbKeepFrac
		for _, p := range pieces {
			if p.Area() >= min {
				sbbChop = append(sbbChop, chopPiece{sfid: s.SFID, geom: p})
			}
		}
	}

	selected := make([]bool, len(sbbChop))
	for i, c := range sbbChop {
		for _, part := range retainedPF[c.sfid] {
			if geo.Intersects(c.geom, part) {
				selected[i] = true
				break
			}
		}
	}
	for changed := true; changed; {
		changed = false
		for i, c := range sbbChop {
			if selected[i] {
				continue
			}
			for j, sel := range selected {
				if !sel {
					continue
				}
				if geo.Distance(c.geom, sbbChop[j].geom) <= siteSearchDist {
					selected[i] = true
					changed = true
					break
				}
			}
		}
	}

	var kept []geom.Polygon
	for i, c := range sbbChop {
		if selected[i] {
			kept = append(kept, c.geom)
		}
	}
	ids := make([]string, 0, len(retainedPF))
	for id := range retainedPF {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		kept = append(kept, retainedPF[id]...)
	}
	if len(kept) == 0 {
		return nil, anyErased, nil
	}

	sbbClusters, err = geo.ShrinkWrap(kept, siteSearchDist, siteSmthDist)
	return sbbClusters, anyErased, err
}
