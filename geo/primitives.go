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

// Package geo provides thin semantic wrappers over a polygon geometry
// library (github.com/ctessum/geom), plus the two geometric primitives
// that library does not implement: polygon buffering and polygon-to-
// polygon distance. Both are kept to a narrow surface (the Buffer/Dilate/
// Erode and Distance functions in this file) that the call sites use, since
// SPEC_FULL.md §4 places "real" geometry primitives out of scope and
// names them as something a production deployment supplies externally
// (e.g. a cgo GEOS binding) — this package's implementations are the
// stand-in used for development and testing.
package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// arcSegments is the number of segments used to approximate a circular
// arc when rounding convex corners during dilation.
const arcSegments = 12

// Dilate returns the Minkowski sum of g with a disk of radius d (d must be
// >= 0): the set of all points within d of g. It is built from the
// geometry library's real Union, as the union of g itself, a thickened
// rectangle along every edge, and a rounding fan of points at every
// vertex — the standard "buffer by unioning offset slabs" construction.
func Dilate(g geom.Polygonal, d float64) geom.Polygon {
	if d < 0 {
		panic("geo: Dilate requires d >= 0")
	}
	if d == 0 {
		return dissolveOne(g)
	}
	result := dissolveOne(g)
	for _, poly := range g.Polygons() {
		for _, ring := range poly {
			n := len(ring)
			for i := 0; i < n; i++ {
				a := ring[i]
				b := ring[(i+1)%n]
				if a == b {
					continue
				}
				result = result.Union(edgeSlab(a, b, d))
				result = result.Union(vertexFan(a, d))
			}
		}
	}
	return result
}

// Erode returns the morphological erosion of g by radius d (d must be >=
// 0): the set of points in g at least d from its boundary. It is
// implemented via the standard identity erode(g,d) = domain \ dilate(domain
// \ g, d), evaluated over a working domain (g's bounds expanded well
// beyond d) so the complement is well defined.
func Erode(g geom.Polygonal, d float64) geom.Polygon {
	if d < 0 {
		panic("geo: Erode requires d >= 0")
	}
	if d == 0 {
		return dissolveOne(g)
	}
	domain := domainRect(g, d)
	complement := domain.Difference(g)
	grown := Dilate(complement, d)
	return domain.Difference(grown)
}

// Buffer applies Dilate (d > 0) or Erode (d < 0, magnitude |d|) to g. A
// zero distance is an error per SPEC_FULL.md §4.A (Coalesce's
// underlying primitive).
func Buffer(g geom.Polygonal, d float64) (geom.Polygon, error) {
	switch {
	case d > 0:
		return Dilate(g, d), nil
	case d < 0:
		return Erode(g, -d), nil
	default:
		return nil, fmt.Errorf("geo: Buffer distance must not be zero")
	}
}

// domainRect returns a rectangle enclosing g's bounds, expanded by d plus
// a safety margin, for use as the bounded universe in Erode's complement
// trick.
func domainRect(g geom.Polygonal, d float64) geom.Polygon {
	b := g.Bounds()
	margin := d*2 + 1
	return geom.Polygon{{
		{X: b.Min.X - margin, Y: b.Min.Y - margin},
		{X: b.Max.X + margin, Y: b.Min.Y - margin},
		{X: b.Max.X + margin, Y: b.Max.Y + margin},
		{X: b.Min.X - margin, Y: b.Max.Y + margin},
		{X: b.Min.X - margin, Y: b.Min.Y - margin},
	}}
}

// edgeSlab returns a rectangle of half-width d centered on segment a-b,
// ending at a and b; the vertex fans at the endpoints supply the rounded
// ends.
func edgeSlab(a, b geom.Point, d float64) geom.Polygon {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return geom.Polygon{}
	}
	ux, uy := dx/length, dy/length // unit along the edge
	nx, ny := -uy, ux              // unit normal

	ext := func(p geom.Point, along, normal float64) geom.Point {
		return geom.Point{
			X: p.X + ux*along + nx*normal,
			Y: p.Y + uy*along + ny*normal,
		}
	}
	return geom.Polygon{{
		ext(a, 0, d),
		ext(b, 0, d),
		ext(b, 0, -d),
		ext(a, 0, -d),
		ext(a, 0, d),
	}}
}

// vertexFan returns a regular polygon approximating a disk of radius d
// centered at p, used to round convex corners during dilation.
func vertexFan(p geom.Point, d float64) geom.Polygon {
	ring := make([]geom.Point, 0, arcSegments+1)
	for i := 0; i <= arcSegments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(arcSegments)
		ring = append(ring, geom.Point{
			X: p.X + d*math.Cos(theta),
			Y: p.Y + d*math.Sin(theta),
		})
	}
	return geom.Polygon{ring}
}

// dissolveOne unions all of g's constituent polygons into a single
// (possibly multi-ring) Polygon.
func dissolveOne(g geom.Polygonal) geom.Polygon {
	polys := g.Polygons()
	if len(polys) == 0 {
		return geom.Polygon{}
	}
	result := polys[0]
	for _, p := range polys[1:] {
		result = result.Union(p)
	}
	return result
}

// Distance returns the shortest planar distance between two polygonal
// geometries, or 0 if they overlap or touch. The geometry library only
// implements point-to-point distance (see op.Distance), so polygon-to-
// polygon distance is computed directly here via segment-to-segment
// distance over every pair of ring edges — the same tier of primitive as
// Buffer above, and equally out of SPEC_FULL.md's scope to source from a
// real GIS engine.
func Distance(a, b geom.Polygonal) float64 {
	if Intersects(a, b) {
		return 0
	}
	min := math.Inf(1)
	for _, pa := range a.Polygons() {
		for _, ra := range pa {
			for i := range ra {
				a0, a1 := ra[i], ra[(i+1)%len(ra)]
				for _, pb := range b.Polygons() {
					for _, rb := range pb {
						for j := range rb {
							b0, b1 := rb[j], rb[(j+1)%len(rb)]
							if dd := segSegDistance(a0, a1, b0, b1); dd < min {
								min = dd
							}
						}
					}
				}
			}
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

// Intersects reports whether a and b share any area or boundary.
func Intersects(a, b geom.Polygonal) bool {
	if !a.Bounds().Overlaps(b.Bounds()) {
		return false
	}
	polys := a.Polygons()
	if len(polys) == 0 {
		return false
	}
	for _, pa := range polys {
		if pa.Intersection(b).Area() > 0 {
			return true
		}
	}
	return touches(a, b)
}

// touches handles the zero-area boundary-contact case (slivers, shared
// edges) that an area-based intersection test misses.
func touches(a, b geom.Polygonal) bool {
	for _, pa := range a.Polygons() {
		for _, ra := range pa {
			for _, pt := range ra {
				if pt.Within(b) != geom.Outside {
					return true
				}
			}
		}
	}
	for _, pb := range b.Polygons() {
		for _, rb := range pb {
			for _, pt := range rb {
				if pt.Within(a) != geom.Outside {
					return true
				}
			}
		}
	}
	return false
}

// ConvexHull returns the convex hull of pts via Andrew's monotone chain,
// another primitive SPEC_FULL.md §4.E's gap-patch step needs that the
// geometry library does not provide.
func ConvexHull(pts []geom.Point) geom.Polygon {
	uniq := make([]geom.Point, 0, len(pts))
	seen := make(map[geom.Point]bool, len(pts))
	for _, p := range pts {
		if !seen[p] {
			seen[p] = true
			uniq = append(uniq, p)
		}
	}
	sort.Slice(uniq, func(i, j int) bool {
		if uniq[i].X != uniq[j].X {
			return uniq[i].X < uniq[j].X
		}
		return uniq[i].Y < uniq[j].Y
	})
	if len(uniq) < 3 {
		return geom.Polygon{uniq}
	}
	cross := func(o, a, b geom.Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}
	var lower, upper []geom.Point
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	hull = append(hull, hull[0])
	return geom.Polygon{hull}
}

func segSegDistance(a0, a1, b0, b1 geom.Point) float64 {
	return math.Min(
		math.Min(distPointSeg(a0, b0, b1), distPointSeg(a1, b0, b1)),
		math.Min(distPointSeg(b0, a0, a1), distPointSeg(b1, a0, a1)),
	)
}

func distPointSeg(p, s0, s1 geom.Point) float64 {
	dx, dy := s1.X-s0.X, s1.Y-s0.Y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.X-s0.X, p.Y-s0.Y)
	}
	t := ((p.X-s0.X)*dx + (p.Y-s0.Y)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	projX, projY := s0.X+t*dx, s0.Y+t*dy
	return math.Hypot(p.X-projX, p.Y-projY)
}

// nearestPointOnSeg returns the closest point to p lying on segment s0-s1.
func nearestPointOnSeg(p, s0, s1 geom.Point) geom.Point {
	dx, dy := s1.X-s0.X, s1.Y-s0.Y
	if dx == 0 && dy == 0 {
		return s0
	}
	t := ((p.X-s0.X)*dx + (p.Y-s0.Y)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return geom.Point{X: s0.X + t*dx, Y: s0.Y + t*dy}
}

// PointIn reports whether pt lies within or on the boundary of g. The
// geometry library exposes this as Point.Within, but only returns a
// three-valued geom.WithinStatus; PointIn collapses that to the boolean
// callers in this package need.
func PointIn(pt geom.Point, g geom.Polygonal) bool {
	return pt.Within(g) != geom.Outside
}

// NearestPointOnLine returns the point on l closest to pt, the stream
// package's stand-in for a GIS engine's "snap to nearest flowline"
// operation (SPEC_FULL.md §4.F step 1).
func NearestPointOnLine(pt geom.Point, l geom.LineString) geom.Point {
	best := l[0]
	bestDist := math.Inf(1)
	for i := 0; i < len(l)-1; i++ {
		cand := nearestPointOnSeg(pt, l[i], l[i+1])
		if d := math.Hypot(pt.X-cand.X, pt.Y-cand.Y); d < bestDist {
			bestDist = d
			best = cand
		}
	}
	return best
}

// LineIntersectsPolygon reports whether any vertex of l lies within p or
// any segment of l crosses one of p's ring edges. Used in place of a true
// line/polygon clip, which the geometry library does not provide for
// LineString (only Polygon-Polygon operations).
func LineIntersectsPolygon(l geom.LineString, p geom.Polygonal) bool {
	for _, pt := range l {
		if PointIn(pt, p) {
			return true
		}
	}
	for i := 0; i < len(l)-1; i++ {
		for _, poly := range p.Polygons() {
			for _, ring := range poly {
				for j := range ring {
					b0, b1 := ring[j], ring[(j+1)%len(ring)]
					if segmentsIntersect(l[i], l[i+1], b0, b1) {
						return true
					}
				}
			}
		}
	}
	return false
}

// LinesIntersect reports whether a and b cross or touch anywhere along
// their length, the stream package's stand-in for the network engine's
// line-to-line adjacency test (SPEC_FULL.md §4.F step 4's "touches two or
// more SCS line segments").
func LinesIntersect(a, b geom.LineString) bool {
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

// segmentsIntersect reports whether segments a0-a1 and b0-b1 cross or
// touch, via the standard orientation test.
func segmentsIntersect(a0, a1, b0, b1 geom.Point) bool {
	orient := func(p, q, r geom.Point) float64 {
		return (q.X-p.X)*(r.Y-p.Y) - (q.Y-p.Y)*(r.X-p.X)
	}
	onSeg := func(p, q, r geom.Point) bool {
		return math.Min(p.X, r.X) <= q.X && q.X <= math.Max(p.X, r.X) &&
			math.Min(p.Y, r.Y) <= q.Y && q.Y <= math.Max(p.Y, r.Y)
	}
	o1 := orient(a0, a1, b0)
	o2 := orient(a0, a1, b1)
	o3 := orient(b0, b1, a0)
	o4 := orient(b0, b1, a1)
	if (o1 > 0) != (o2 > 0) && o1 != 0 && o2 != 0 && (o3 > 0) != (o4 > 0) && o3 != 0 && o4 != 0 {
		return true
	}
	if o1 == 0 && onSeg(a0, b0, a1) {
		return true
	}
	if o2 == 0 && onSeg(a0, b1, a1) {
		return true
	}
	if o3 == 0 && onSeg(b0, a0, b1) {
		return true
	}
	if o4 == 0 && onSeg(b0, a1, b1) {
		return true
	}
	return false
}
