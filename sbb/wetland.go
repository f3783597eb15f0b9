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
	"context"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache"
	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/internal/hash"
	"github.com/natheritage/ecs/model"
)

// NWIFeature is a National Wetlands Inventory polygon, already joined to
// the four binary rule-subset columns and the Tidal flag. SPEC_FULL.md
// §4.C allows either precomputing these columns from the raw NWI code
// table or consuming them as given; this package consumes them as given
// (see DESIGN.md for the reasoning), so NWIFeature carries the columns
// directly rather than a raw System/Class/WaterRegime code string.
type NWIFeature struct {
	Geom   geom.Polygon
	Rule5  bool
	Rule6  bool
	Rule7  bool
	Rule9  bool
	Tidal  bool
}

const (
	wetlandMinBuff    = 250.0
	wetlandMaxBuff    = 500.0
	wetlandNWIBuff    = 100.0
	wetlandSearchDist = 15.0
)

// subsetForRule returns the NWI geometries flagged for intRule (5, 6, 7, or
// 9).
func subsetForRule(nwi []NWIFeature, intRule int) []geom.Polygon {
	var out []geom.Polygon
	for _, f := range nwi {
		var ok bool
		switch intRule {
		case 5:
			ok = f.Rule5
		case 6:
			ok = f.Rule6
		case 7:
			ok = f.Rule7
		case 9:
			ok = f.Rule9
		}
		if ok {
			out = append(out, f.Geom)
		}
	}
	return out
}

// bufferOrSelf buffers p by d, or returns p unchanged when d is zero
// (geo.Buffer rejects a zero distance).
func bufferOrSelf(p geom.Polygon, d float64) (geom.Polygon, error) {
	if d == 0 {
		return p, nil
	}
	return geo.Buffer(p, d)
}

type subsetRequest struct {
	nwi  []NWIFeature
	rule int
}

// NewSubsetCache returns a requestcache.Cache that memoizes subsetForRule
// per rule number, so that BuildAll's repeated per-PF wetland
// construction filters the NWI layer by rule at most once per run instead
// of once per PF, the same role the teacher's spatial-surrogate cache
// plays in emissions/aep/spatialize.go.
func NewSubsetCache() *requestcache.Cache {
	processor := func(ctx context.Context, payload interface{}) (interface{}, error) {
		req := payload.(subsetRequest)
		return subsetForRule(req.nwi, req.rule), nil
	}
	return requestcache.NewCache(processor, 1, requestcache.Deduplicate(), requestcache.Memory(16))
}

func subsetForRuleCached(cache *requestcache.Cache, nwi []NWIFeature, intRule int) ([]geom.Polygon, error) {
	if cache == nil {
		return subsetForRule(nwi, intRule), nil
	}
	req := cache.NewRequest(context.Background(), subsetRequest{nwi: nwi, rule: intRule}, hash.Hash(intRule))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.([]geom.Polygon), nil
}

// BuildWetland implements the SPEC_FULL.md §4.C wetland-rule (5/6/7/9)
// construction: an NWI-proximal fixpoint cluster buffered and unioned with
// a minimum buffer, clipped to a maximum buffer.
func BuildWetland(ws *model.Workspace, pf model.PF, nwi []NWIFeature, intRule int) (geom.Polygon, error) {
	return buildWetland(ws, pf, nwi, intRule, nil)
}

func buildWetland(ws *model.Workspace, pf model.PF, nwi []NWIFeature, intRule int, cache *requestcache.Cache) (geom.Polygon, error) {
	override := pf.Buffer != nil && *pf.Buffer == 0

	minD, maxD := wetlandMinBuff, wetlandMaxBuff
	if override {
		minD, maxD = 0, wetlandMinBuff
	}
	bmin, err := bufferOrSelf(pf.Geom, minD)
	if err != nil {
		return nil, err
	}
	bmax, err := bufferOrSelf(pf.Geom, maxD)
	if err != nil {
		return nil, err
	}

	subset, err := subsetForRuleCached(cache, nwi, intRule)
	if err != nil {
		return nil, err
	}
	var candidates []geom.Polygon
	for _, feat := range subset {
		if !geo.Intersects(feat, bmax) {
			continue
		}
		candidates = append(candidates, geo.CleanClip(ws, feat, bmax)...)
	}
	if len(candidates) == 0 {
		return bmin, nil
	}

	selected := make([]bool, len(candidates))
	any := false
	for i, c := range candidates {
		if geo.Distance(c, pf.Geom) <= wetlandSearchDist {
			selected[i] = true
			any = true
		}
	}
	if !any {
		return bmin, nil
	}
	// Expand the selection to a fixpoint: repeatedly pull in any
	// unselected candidate within searchDist of an already-selected one.
	for changed := true; changed; {
		changed = false
		for i, c := range candidates {
			if selected[i] {
				continue
			}
			for j, sel := range selected {
				if !sel {
					continue
				}
				if geo.Distance(c, candidates[j]) <= wetlandSearchDist {
					selected[i] = true
					changed = true
					break
				}
			}
		}
	}

	var chosen []geom.Polygon
	for i, sel := range selected {
		if sel {
			chosen = append(chosen, candidates[i])
		}
	}
	nwiUnion := geo.Dissolve(chosen)
	buffered, err := geo.Buffer(nwiUnion, wetlandNWIBuff)
	if err != nil {
		return nil, err
	}
	combined := geo.Dissolve([]geom.Polygon{buffered, bmin})
	clipped := geo.CleanClip(ws, combined, bmax)
	return geo.Dissolve(clipped), nil
}
