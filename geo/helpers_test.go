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
	"math"
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

func TestDilateGrowsArea(t *testing.T) {
	s := square(0, 0, 100, 100)
	before := s.Area()
	grown := Dilate(s, 10)
	after := grown.Area()
	if after <= before {
		t.Fatalf("dilated area %v should exceed original %v", after, before)
	}
	// A 100x100 square dilated by 10 should cover at least the 120x120
	// bounding square's inscribed area (exact area depends on corner
	// rounding, so just check it's in a sane range).
	want := 120.0 * 120.0
	if after < want*0.8 || after > want*1.2 {
		t.Errorf("dilated area = %v, want near %v", after, want)
	}
}

func TestErodeShrinksArea(t *testing.T) {
	s := square(0, 0, 100, 100)
	shrunk := Erode(s, 10)
	after := shrunk.Area()
	want := 80.0 * 80.0
	if after < want*0.7 || after > want*1.3 {
		t.Errorf("eroded area = %v, want near %v", after, want)
	}
}

func TestBufferRejectsZero(t *testing.T) {
	s := square(0, 0, 10, 10)
	if _, err := Buffer(s, 0); err == nil {
		t.Error("Buffer(0) should error")
	}
}

func TestCoalesceMergesNearbyFeatures(t *testing.T) {
	a := square(0, 0, 10, 10)
	b := square(10.5, 0, 20.5, 10) // 0.5 m gap
	merged, err := Coalesce([]geom.Polygon{a, b}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(ExplodeMultipart(merged)) != 1 {
		t.Errorf("expected a and b to merge into one polygon, got %d pieces", len(ExplodeMultipart(merged)))
	}
}

func TestCoalesceRejectsZero(t *testing.T) {
	if _, err := Coalesce([]geom.Polygon{square(0, 0, 1, 1)}, 0); err == nil {
		t.Error("Coalesce(0) should error")
	}
}

func TestShrinkWrapClustersByProximity(t *testing.T) {
	near := []geom.Polygon{
		square(0, 0, 10, 10),
		square(10.5, 0, 20.5, 10),
	}
	far := square(1000, 1000, 1010, 1010)
	all := append(near, far)
	clusters, err := ShrinkWrap(all, 5, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters (2 near features merged, 1 far alone), got %d", len(clusters))
	}
}

func TestCullFragsDropsDistantFragments(t *testing.T) {
	ref := square(0, 0, 10, 10)
	near := square(10.5, 0, 20, 10)
	far := square(1000, 0, 1010, 10)
	out := CullFrags([]geom.Polygon{near, far}, ref, 5)
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving fragment, got %d", len(out))
	}
}

func TestCullFragsMustTouchWhenZero(t *testing.T) {
	ref := square(0, 0, 10, 10)
	touching := square(10, 0, 20, 10)
	apart := square(10.1, 0, 20, 10)
	out := CullFrags([]geom.Polygon{touching, apart}, ref, 0)
	if len(out) != 1 {
		t.Fatalf("expected only the touching fragment to survive, got %d", len(out))
	}
}

func TestCleanErase(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	a := square(0, 0, 10, 10)
	b := square(5, 0, 15, 10)
	out := CleanErase(ws, a, b)
	if len(out) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(out))
	}
	if math.Abs(out[0].Area()-50) > 1e-6 {
		t.Errorf("erased area = %v, want 50", out[0].Area())
	}
}

func TestCleanClip(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	a := square(0, 0, 10, 10)
	b := square(5, 0, 15, 10)
	out := CleanClip(ws, a, b)
	if len(out) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(out))
	}
	if math.Abs(out[0].Area()-50) > 1e-6 {
		t.Errorf("clipped area = %v, want 50", out[0].Area())
	}
}

func TestEliminateHolesAbsolute(t *testing.T) {
	outer := []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}, {X: 0, Y: 0}}
	smallHole := []geom.Point{{X: 10, Y: 10}, {X: 10, Y: 12}, {X: 12, Y: 12}, {X: 12, Y: 10}, {X: 10, Y: 10}}
	p := geom.Polygon{outer, smallHole}
	out := EliminateHoles(p, 900, false)
	if len(out) != 1 {
		t.Fatalf("expected the small hole to be eliminated, got %d rings", len(out))
	}
}

func TestDistanceZeroWhenOverlapping(t *testing.T) {
	a := square(0, 0, 10, 10)
	b := square(5, 5, 15, 15)
	if d := Distance(a, b); d != 0 {
		t.Errorf("Distance of overlapping polygons = %v, want 0", d)
	}
}

func TestDistanceBetweenDisjointSquares(t *testing.T) {
	a := square(0, 0, 10, 10)
	b := square(20, 0, 30, 10)
	if d := Distance(a, b); math.Abs(d-10) > 1e-9 {
		t.Errorf("Distance = %v, want 10", d)
	}
}
