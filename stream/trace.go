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

package stream

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/op"
	"github.com/sirupsen/logrus"

	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
)

// Fixed parameters from SPEC_FULL.md §4.F.
const (
	wideWaterCovThreshold  = 0.25
	minFlowlineIntersectLen = 50.0 // "few or short flowline intersections"
	downstreamCutoff       = 500.0
	upstreamCutoff         = 3000.0
	tidalCutoff            = 3000.0
	maxFlowlineLength      = 500.0
	damExclusionDist       = 100.0
	scsBuffDist            = 150.0
	scuBuffDist            = 5.0
	scsSmoothDist          = 50.0
	minHoleAreaHA          = 1.0
)

// AlignPF implements SPEC_FULL.md §4.F step 1. It reports whether pf
// should be treated as a river-width feature (wide-water coverage >= 25%)
// and, for stream-width features with few or short flowline intersections,
// returns pf translated so its pseudo-centroid snaps onto the nearest
// flowline.
func AlignPF(pf geom.Polygon, waterbodies []Waterbody, flowlines []Flowline) (aligned geom.Polygon, isRiver bool, err error) {
	cov := wideWaterCoverage(pf, waterbodies)
	if cov >= wideWaterCovThreshold {
		return pf, true, nil
	}
	if intersectingFlowlineLength(pf, flowlines) >= minFlowlineIntersectLen {
		return pf, false, nil
	}
	centroid, err := op.Centroid(pf)
	if err != nil {
		return pf, false, err
	}
	nearest, ok := nearestFlowlinePoint(centroid, flowlines)
	if !ok {
		return pf, false, nil
	}
	return translate(pf, nearest.X-centroid.X, nearest.Y-centroid.Y), false, nil
}

func wideWaterCoverage(pf geom.Polygon, waterbodies []Waterbody) float64 {
	area := pf.Area()
	if area == 0 {
		return 0
	}
	var covered float64
	for _, wb := range waterbodies {
		if !geo.Intersects(pf, wb.Geom) {
			continue
		}
		covered += pf.Intersection(wb.Geom).Area()
	}
	return covered / area
}

// intersectingFlowlineLength approximates the total length of flowlines
// running through pf by summing the full length of every flowline that
// intersects it. A true per-segment clip length would need a line/polygon
// overlay the geometry library doesn't provide for LineString; summing
// whole-flowline lengths is a conservative stand-in good enough to decide
// "few or short" against minFlowlineIntersectLen.
func intersectingFlowlineLength(pf geom.Polygon, flowlines []Flowline) float64 {
	var total float64
	for _, fl := range flowlines {
		if geo.LineIntersectsPolygon(fl.Geom, pf) {
			total += fl.Geom.Length()
		}
	}
	return total
}

func nearestFlowlinePoint(pt geom.Point, flowlines []Flowline) (geom.Point, bool) {
	best := geom.Point{}
	bestDist := math.Inf(1)
	found := false
	for _, fl := range flowlines {
		cand := geo.NearestPointOnLine(pt, fl.Geom)
		if d := math.Hypot(pt.X-cand.X, pt.Y-cand.Y); d < bestDist {
			bestDist = d
			best = cand
			found = true
		}
	}
	return best, found
}

func translate(p geom.Polygon, dx, dy float64) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		newRing := make([]geom.Point, len(ring))
		for j, pt := range ring {
			newRing[j] = geom.Point{X: pt.X + dx, Y: pt.Y + dy}
		}
		out[i] = newRing
	}
	return out
}

// facility is a network start/end point (step 2), tagged tidal or
// non-tidal per the flowline it sits on.
type facility struct {
	Geom  geom.Point
	Tidal bool
}

// facilityPoints returns one facility per flowline vertex that falls
// within aligned, deduplicated by coordinate. This stands in for "network
// start/end points along flowlines clipped by the aligned PF": the clipped
// segment's endpoints are exactly the flowline vertices lying inside the
// clip polygon, plus the polygon-boundary crossing point where a flowline
// runs through it without a vertex inside — approximated here by including
// the point on that flowline nearest the PF centroid when no vertex falls
// inside.
func facilityPoints(aligned geom.Polygon, flowlines []Flowline) []facility {
	seen := make(map[geom.Point]bool)
	var out []facility
	for _, fl := range flowlines {
		if !geo.LineIntersectsPolygon(fl.Geom, aligned) {
			continue
		}
		any := false
		for _, pt := range fl.Geom {
			if geo.PointIn(pt, aligned) {
				if !seen[pt] {
					seen[pt] = true
					out = append(out, facility{Geom: pt, Tidal: fl.Tidal})
				}
				any = true
			}
		}
		if !any {
			centroid, err := op.Centroid(aligned)
			if err != nil {
				continue
			}
			pt := geo.NearestPointOnLine(centroid, fl.Geom)
			if !seen[pt] {
				seen[pt] = true
				out = append(out, facility{Geom: pt, Tidal: fl.Tidal})
			}
		}
	}
	return out
}

// usableBarriers drops dams the network could not locate, per spec.md
// §4.F step 3's documented defensive workaround, logging each drop.
func usableBarriers(ws *model.Workspace, dams []Barrier) []Barrier {
	var out []Barrier
	for _, d := range dams {
		if d.Unlocatable {
			ws.Log.WithFields(logrus.Fields{"dam": d.Geom}).Warn("dropping network-unlocatable dam barrier")
			continue
		}
		out = append(out, d)
	}
	return out
}

func points(facs []facility) []geom.Point {
	out := make([]geom.Point, len(facs))
	for i, f := range facs {
		out[i] = f.Geom
	}
	return out
}

// solveTraces implements step 3: three directional service-area solves,
// merged into one flat slice of traced lines.
func solveTraces(net Network, facs []facility, barriers []Barrier) ([]geom.LineString, error) {
	var nonTidal, tidal []facility
	for _, f := range facs {
		if f.Tidal {
			tidal = append(tidal, f)
		} else {
			nonTidal = append(nonTidal, f)
		}
	}

	var lines []geom.LineString
	if len(nonTidal) > 0 {
		down, err := net.ServiceArea(ModeDownstream, points(nonTidal), downstreamCutoff, barriers)
		if err != nil {
			return nil, err
		}
		up, err := net.ServiceArea(ModeUpstream, points(nonTidal), upstreamCutoff, barriers)
		if err != nil {
			return nil, err
		}
		lines = append(lines, down...)
		lines = append(lines, up...)
	}
	if len(tidal) > 0 {
		both, err := net.ServiceArea(ModeAllDirections, points(tidal), tidalCutoff, barriers)
		if err != nil {
			return nil, err
		}
		lines = append(lines, both...)
	}
	return lines, nil
}

// gapFill implements step 4: pull in any un-included flowline no longer
// than maxFlowlineLength that bridges two traced segments, unless it runs
// within damExclusionDist of a dam.
func gapFill(traced []geom.LineString, flowlines []Flowline, dams []Barrier) []geom.LineString {
	out := append([]geom.LineString{}, traced...)
	included := make([]bool, len(flowlines))
	for i, fl := range flowlines {
		for _, t := range traced {
			if len(t) != len(fl.Geom) {
				continue
			}
			same := true
			for k := range t {
				if t[k] != fl.Geom[k] {
					same = false
					break
				}
			}
			if same {
				included[i] = true
				break
			}
		}
	}
	for i, fl := range flowlines {
		if included[i] || fl.Geom.Length() > maxFlowlineLength {
			continue
		}
		touchCount := 0
		for _, t := range out {
			if geo.LinesIntersect(fl.Geom, t) {
				touchCount++
			}
		}
		if touchCount < 2 {
			continue
		}
		if nearAnyDam(fl.Geom, dams) {
			continue
		}
		out = append(out, fl.Geom)
	}
	return out
}

func nearAnyDam(l geom.LineString, dams []Barrier) bool {
	for _, d := range dams {
		nearest := geo.NearestPointOnLine(d.Geom, l)
		if math.Hypot(d.Geom.X-nearest.X, d.Geom.Y-nearest.Y) < damExclusionDist {
			return true
		}
	}
	return false
}

// Build implements SPEC_FULL.md §4.F end-to-end for a single PF, returning
// the final SCS/SCU site polygon. siteType selects the step-5 buffer
// distance (150 m for model.SiteSCS, 5 m for model.SiteSCU); the catchment-
// vs-clip choice within step 5 is driven by pf.Rule=="SCS2" directly, per
// the spec's own wording.
func Build(ws *model.Workspace, net Network, pf model.PF, siteType model.SiteType, flowlines []Flowline, waterbodies []Waterbody, catchments []Catchment, dams []Barrier) (geom.Polygon, error) {
	aligned, _, err := AlignPF(pf.Geom, waterbodies, flowlines)
	if err != nil {
		return nil, err
	}
	facs := facilityPoints(aligned, flowlines)
	barriers := usableBarriers(ws, dams)
	traced, err := solveTraces(net, facs, barriers)
	if err != nil {
		return nil, err
	}
	filled := gapFill(traced, flowlines, dams)

	buffDist := scsBuffDist
	if siteType == model.SiteSCU {
		buffDist = scuBuffDist
	}

	var buffered []geom.Polygon
	for _, l := range filled {
		b, err := bufferLine(l, buffDist)
		if err != nil {
			return nil, err
		}
		buffered = append(buffered, b)
	}
	for _, wb := range waterbodies {
		for _, l := range filled {
			if geo.LineIntersectsPolygon(l, wb.Geom) {
				buffered = append(buffered, wb.Geom)
				break
			}
		}
	}
	if len(buffered) == 0 {
		return aligned, nil
	}
	diss := geo.Dissolve(buffered)

	entireCatchment := pf.Rule == "SCS2"
	var dissolveUnit geom.Polygon
	for _, c := range catchments {
		touches := false
		for _, l := range filled {
			if geo.LineIntersectsPolygon(l, c.Geom) {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		if entireCatchment {
			dissolveUnit = geo.Dissolve([]geom.Polygon{dissolveUnit, c.Geom})
		} else {
			dissolveUnit = geo.Dissolve([]geom.Polygon{dissolveUnit, geo.Dissolve(geo.CleanClip(ws, c.Geom, diss))})
		}
	}
	final := geo.Dissolve([]geom.Polygon{diss, dissolveUnit})

	smoothed, err := geo.Coalesce([]geom.Polygon{final}, scsSmoothDist)
	if err != nil {
		return nil, err
	}
	const sqMetersPerHa = 10000.0
	smoothed = geo.EliminateHoles(smoothed, minHoleAreaHA*sqMetersPerHa, false)
	return smoothed, nil
}

// bufferLine buffers a LineString by treating it as a zero-width polygon
// ring and reusing geo.Buffer's Minkowski-sum approach; the geometry
// library's buffering gap (see geo/primitives.go) applies equally to lines.
func bufferLine(l geom.LineString, d float64) (geom.Polygon, error) {
	ring := append(geom.LineString{}, l...)
	degenerate := geom.Polygon{ring}
	return geo.Buffer(degenerate, d)
}
