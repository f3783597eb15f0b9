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

package geo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/internal/retry"
	"github.com/natheritage/ecs/model"
)

// Coalesce performs a morphological closing (d > 0) or opening (d < 0) of
// features, per SPEC_FULL.md §4.A: closing merges features within 2d of
// each other; opening splits features at passages narrower than 2d.
// d == 0 is an error.
func Coalesce(features []geom.Polygon, d float64) (geom.Polygon, error) {
	if d == 0 {
		return nil, fmt.Errorf("geo: Coalesce distance must not be zero")
	}
	dissolved := dissolveAll(features)
	if d > 0 {
		grown := Dilate(dissolved, d)
		grown = EliminateHoles(grown, 900, false)
		return Erode(grown, d), nil
	}
	abs := -d
	shrunk := Erode(dissolved, abs)
	return Dilate(shrunk, abs), nil
}

// Dissolve unions a set of polygons into one, with no buffering applied,
// for callers (e.g. modprep.GetEraseFeats) that need a plain union rather
// than Coalesce's closing/opening.
func Dissolve(features []geom.Polygon) geom.Polygon {
	return dissolveAll(features)
}

// dissolveAll unions a set of polygons into one, in index order, so that
// the same input set always produces the same geometry regardless of
// slice ordering at the call site (callers are expected to have already
// applied a canonical ordering, e.g. by SFID, per spec.md §5).
func dissolveAll(features []geom.Polygon) geom.Polygon {
	if len(features) == 0 {
		return geom.Polygon{}
	}
	result := features[0]
	for _, f := range features[1:] {
		result = result.Union(f)
	}
	return result
}

// ShrinkWrap clusters features within searchDist of each other, then
// smooths (Coalesces) each cluster by smoothDist, per SPEC_FULL.md §4.A.
// Clusters are independent of each other and of input order.
func ShrinkWrap(features []geom.Polygon, searchDist, smoothDist float64) ([]geom.Polygon, error) {
	singleparts := make([]geom.Polygon, 0, len(features))
	for _, f := range features {
		singleparts = append(singleparts, ExplodeMultipart(f)...)
	}
	groups := clusterByProximity(singleparts, searchDist)

	out := make([]geom.Polygon, 0, len(groups))
	for _, group := range groups {
		members := make([]geom.Polygon, len(group))
		for i, idx := range group {
			members[i] = singleparts[idx]
		}
		smoothed, err := Coalesce(members, smoothDist)
		if err != nil {
			return nil, err
		}
		smoothed = EliminateHoles(smoothed, 1, true)
		out = append(out, smoothed)
	}
	return out, nil
}

// CullFrags drops any fragment whose nearest distance to ref exceeds
// searchDist. searchDist == 0 means the fragment must touch ref.
func CullFrags(frags []geom.Polygon, ref geom.Polygonal, searchDist float64) []geom.Polygon {
	out := make([]geom.Polygon, 0, len(frags))
	for _, frag := range frags {
		if searchDist == 0 {
			if Intersects(frag, ref) {
				out = append(out, frag)
			}
			continue
		}
		if Distance(frag, ref) <= searchDist {
			out = append(out, frag)
		}
	}
	return out
}

// CleanErase returns a minus b, repairs the result (retrying via
// internal/retry up to ten times, then falling back to the unrepaired
// difference), and explodes it into singlepart polygons.
func CleanErase(ws *model.Workspace, a, b geom.Polygonal) []geom.Polygon {
	raw := dissolveOne(a).Difference(b)
	repaired := retry.Geometry(ws.Log, "CleanErase", raw, func() (geom.Polygon, error) {
		return repairRings(raw)
	})
	return ExplodeMultipart(repaired)
}

// CleanClip returns the portion of a within b, with the same repair and
// explode treatment as CleanErase.
func CleanClip(ws *model.Workspace, a, b geom.Polygonal) []geom.Polygon {
	raw := dissolveOne(a).Intersection(b)
	repaired := retry.Geometry(ws.Log, "CleanClip", raw, func() (geom.Polygon, error) {
		return repairRings(raw)
	})
	return ExplodeMultipart(repaired)
}

// repairRings drops degenerate rings (fewer than 3 distinct vertices) and
// errors if nothing usable remains, so that retry.Geometry's fallback
// path is reachable.
func repairRings(p geom.Polygon) (geom.Polygon, error) {
	var out geom.Polygon
	for _, ring := range p {
		if len(ring) >= 4 && ringSignedArea(ring) != 0 {
			out = append(out, ring)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("geo: no valid rings remain after repair")
	}
	return out, nil
}

// ExplodeMultipart splits a Polygon whose rings describe more than one
// outer boundary into one Polygon per outer ring, each carrying the holes
// nested inside it. Outer rings are identified by winding order
// (counter-clockwise, i.e. positive signed area), the usual GIS/shapefile
// convention; a hole is assigned to the most recently seen outer ring.
func ExplodeMultipart(p geom.Polygon) []geom.Polygon {
	var out []geom.Polygon
	var current geom.Polygon
	for _, ring := range p {
		if len(ring) < 3 {
			continue
		}
		if ringSignedArea(ring) > 0 {
			if current != nil {
				out = append(out, current)
			}
			current = geom.Polygon{ring}
		} else if current != nil {
			current = append(current, ring)
		} else {
			// A hole with no preceding outer ring is kept as its own
			// (degenerate) piece rather than silently dropped.
			current = geom.Polygon{ring}
		}
	}
	if current != nil {
		out = append(out, current)
	}
	return out
}

// EliminateHoles removes inner rings (holes) of p whose area is at or
// below threshold. If relative is true, threshold is interpreted as a
// percent of p's total area (e.g. 1 means 1%); otherwise it is an
// absolute area in the same units as the geometry (e.g. square meters).
func EliminateHoles(p geom.Polygon, threshold float64, relative bool) geom.Polygon {
	total := p.Area()
	var out geom.Polygon
	for _, ring := range p {
		area := math.Abs(ringSignedArea(ring))
		isHole := ringSignedArea(ring) < 0
		if isHole {
			limit := threshold
			if relative {
				limit = threshold / 100 * total
			}
			if area <= limit {
				continue
			}
		}
		out = append(out, ring)
	}
	return out
}

// Generalize simplifies p to within tolerance, limiting vertex count
// (used after ProtoSite assembly and final Site smoothing per
// SPEC_FULL.md §4.E).
func Generalize(p geom.Polygon, tolerance float64) geom.Polygon {
	simplified, ok := p.Simplify(tolerance).(geom.Polygon)
	if !ok {
		return p
	}
	return simplified
}

// Perimeter returns the sum of the lengths of every ring of p (outer
// boundary plus holes), used by the Site Assembler's gap-patch length
// filter (SPEC_FULL.md §4.E step i).
func Perimeter(p geom.Polygon) float64 {
	var total float64
	for _, ring := range p {
		n := len(ring)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			total += math.Hypot(ring[j].X-ring[i].X, ring[j].Y-ring[i].Y)
		}
	}
	return total
}

// ringSignedArea returns the shoelace signed area of ring: positive for
// counter-clockwise winding, negative for clockwise.
func ringSignedArea(ring []geom.Point) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}
