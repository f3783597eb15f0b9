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
	"testing"

	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/model"
)

func square(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}}
}

// mockNetwork returns a fixed set of lines regardless of facilities, for
// tests that only care about pre/post-processing around the Network seam.
type mockNetwork struct {
	lines []geom.LineString
}

func (m mockNetwork) ServiceArea(mode TravelMode, facilities []geom.Point, cutoff float64, barriers []Barrier) ([]geom.LineString, error) {
	return m.lines, nil
}

func TestAlignPFTreatsWideWaterAsRiver(t *testing.T) {
	pf := square(0, 0, 100, 100)
	wb := []Waterbody{{ID: "w1", Geom: square(0, 0, 100, 100)}} // 100% coverage
	_, isRiver, err := AlignPF(pf, wb, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !isRiver {
		t.Error("expected wide-water coverage to classify as river process")
	}
}

func TestAlignPFSnapsToNearestFlowlineWhenNoIntersection(t *testing.T) {
	pf := square(0, 0, 10, 10)
	fl := []Flowline{{ID: "f1", Geom: geom.LineString{{X: 1000, Y: 5}, {X: 2000, Y: 5}}}}
	aligned, isRiver, err := AlignPF(pf, nil, fl)
	if err != nil {
		t.Fatal(err)
	}
	if isRiver {
		t.Fatal("did not expect river classification with no waterbodies")
	}
	if aligned[0][0].X == pf[0][0].X {
		t.Error("expected pf to be translated toward the flowline")
	}
}

func TestGapFillInsertsShortBridgingFlowline(t *testing.T) {
	traced := []geom.LineString{
		{{X: 0, Y: 0}, {X: 10, Y: 0}},
		{{X: 20, Y: 0}, {X: 30, Y: 0}},
	}
	bridge := Flowline{ID: "bridge", Geom: geom.LineString{{X: 10, Y: 0}, {X: 20, Y: 0}}}
	out := gapFill(traced, []Flowline{bridge}, nil)
	if len(out) != 3 {
		t.Fatalf("expected the bridging flowline to be added, got %d lines", len(out))
	}
}

func TestGapFillRejectsFlowlineNearDam(t *testing.T) {
	traced := []geom.LineString{
		{{X: 0, Y: 0}, {X: 10, Y: 0}},
		{{X: 20, Y: 0}, {X: 30, Y: 0}},
	}
	bridge := Flowline{ID: "bridge", Geom: geom.LineString{{X: 10, Y: 0}, {X: 20, Y: 0}}}
	dam := Barrier{Geom: geom.Point{X: 15, Y: 0}}
	out := gapFill(traced, []Flowline{bridge}, []Barrier{dam})
	if len(out) != 2 {
		t.Fatalf("expected the bridging flowline to be rejected near a dam, got %d lines", len(out))
	}
}

func TestGapFillSkipsFlowlineTouchingOnlyOneSegment(t *testing.T) {
	traced := []geom.LineString{
		{{X: 0, Y: 0}, {X: 10, Y: 0}},
	}
	spur := Flowline{ID: "spur", Geom: geom.LineString{{X: 10, Y: 0}, {X: 10, Y: 50}}}
	out := gapFill(traced, []Flowline{spur}, nil)
	if len(out) != 1 {
		t.Fatalf("expected a single-touch flowline to be skipped, got %d lines", len(out))
	}
}

func TestUsableBarriersDropsUnlocatableDams(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	dams := []Barrier{
		{Geom: geom.Point{X: 0, Y: 0}},
		{Geom: geom.Point{X: 1, Y: 1}, Unlocatable: true},
	}
	out := usableBarriers(ws, dams)
	if len(out) != 1 {
		t.Fatalf("expected one usable barrier, got %d", len(out))
	}
}

func TestBuildDissolvesBufferedTrace(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pf := model.PF{SFID: "1", Rule: "SCS1", Geom: square(0, 0, 10, 10)}
	fl := []Flowline{{ID: "f1", Geom: geom.LineString{{X: 0, Y: 5}, {X: 10, Y: 5}}}}
	net := mockNetwork{lines: []geom.LineString{{{X: 0, Y: 5}, {X: 10, Y: 5}}}}

	g, err := Build(ws, net, pf, model.SiteSCS, fl, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.Area() == 0 {
		t.Error("expected a non-degenerate buffered trace polygon")
	}
}
