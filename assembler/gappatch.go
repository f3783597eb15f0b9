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
	"math"

	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
)

// gapPatch implements SPEC_FULL.md §4.E step (i)'s gap patch: when a
// ProtoSite split into more than one Split Site, candidate patches across
// narrow gaps are built from the intersection of each pair's outside
// buffers, filtered by size and by touching the originals, then clipped
// to the convex hull of the union and merged back in.
//
// "Retain only the shorter-perimeter member of each duplicate pair" is
// satisfied by construction here: each unordered pair (i,j) is visited
// once, so no duplicate gap fragment is ever produced to dedupe. The
// spec's "length" filter on a candidate patch is approximated by its own
// perimeter against the shorter of the two sites' perimeters, since the
// patch fragments here are polygons rather than single line measurements.
func gapPatch(ws *model.Workspace, sites []geom.Polygon) []geom.Polygon {
	var patches []geom.Polygon
	for i := 0; i < len(sites); i++ {
		for j := i + 1; j < len(sites); j++ {
			patch, ok := candidatePatch(ws, sites[i], sites[j])
			if ok {
				patches = append(patches, patch)
			}
		}
	}
	if len(patches) == 0 {
		return sites
	}
	merged := append(append([]geom.Polygon{}, sites...), patches...)
	return geo.ExplodeMultipart(geo.Dissolve(merged))
}

func candidatePatch(ws *model.Workspace, a, b geom.Polygon) (geom.Polygon, bool) {
	outerA, err := geo.Buffer(a, patchDist)
	if err != nil {
		return nil, false
	}
	ringA := geo.CleanErase(ws, outerA, a)
	outerB, err := geo.Buffer(b, patchDist)
	if err != nil {
		return nil, false
	}
	ringB := geo.CleanErase(ws, outerB, b)
	if len(ringA) == 0 || len(ringB) == 0 {
		return nil, false
	}

	gap := geo.CleanClip(ws, geo.Dissolve(ringA), geo.Dissolve(ringB))
	if len(gap) == 0 {
		return nil, false
	}
	gapUnion := geo.Dissolve(gap)

	shorterPerim := math.Min(geo.Perimeter(a), geo.Perimeter(b))
	minLen := math.Max(1000, shorterPerim/4)
	if geo.Perimeter(gapUnion) < minLen {
		return nil, false
	}
	if !geo.Intersects(gapUnion, a) || !geo.Intersects(gapUnion, b) {
		return nil, false
	}

	grown, err := geo.Buffer(gapUnion, patchDist*0.1)
	if err != nil {
		grown = gapUnion
	}
	hull := geo.ConvexHull(allPoints(a, b))
	clipped := geo.CleanClip(ws, grown, hull)
	if len(clipped) == 0 {
		return nil, false
	}
	return geo.Dissolve(clipped), true
}

func allPoints(polys ...geom.Polygon) []geom.Point {
	var out []geom.Point
	for _, p := range polys {
		for _, ring := range p {
			out = append(out, ring...)
		}
	}
	return out
}
