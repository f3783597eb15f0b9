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

package modprep

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/model"
)

func sq(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}}
}

func TestSelectByQueryHydro(t *testing.T) {
	features := []Feature{
		{Attrs: map[string]interface{}{"Hydro": 1.0}, Geom: sq(0, 0, 10, 10)},
		{Attrs: map[string]interface{}{"Hydro": 0.0}, Geom: sq(20, 0, 30, 10)},
	}
	out, err := SelectByQuery(features, "Hydro=1")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 match, got %d", len(out))
	}
}

func TestSelectByQueryOrNull(t *testing.T) {
	features := []Feature{
		{Attrs: map[string]interface{}{"NH_IGNORE": 0.0}, Geom: sq(0, 0, 10, 10)},
		{Attrs: map[string]interface{}{"NH_IGNORE": 1.0}, Geom: sq(20, 0, 30, 10)},
		{Attrs: map[string]interface{}{}, Geom: sq(40, 0, 50, 10)}, // NH_IGNORE absent -> null
	}
	out, err := SelectByQuery(features, "NH_IGNORE=0 OR NULL")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 matches (explicit 0 and null), got %d", len(out))
	}
}

func TestCompilePredicateRejectsUnsupportedQuery(t *testing.T) {
	if _, err := CompilePredicate("Hydro > 1 AND Foo < 2"); err == nil {
		t.Error("expected an error for an unsupported query shape")
	}
}

func TestGetEraseFeatsPreservesPFs(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	hydro := []Feature{
		{Attrs: map[string]interface{}{"Hydro": 1.0}, Geom: sq(0, 0, 100, 100)},
	}
	pf := []geom.Polygon{sq(40, 40, 60, 60)}
	out, err := GetEraseFeats(ws, hydro, "Hydro=1", 10, pf)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("expected at least one erase feature")
	}
	for _, piece := range out {
		for _, p := range pf {
			if piece.Intersection(p).Area() > 1e-6 {
				t.Errorf("erase feature overlaps a preserved PF by %v", piece.Intersection(p).Area())
			}
		}
	}
}

func TestCullEraseFeatsDropsFullCoverage(t *testing.T) {
	sbb := []geom.Polygon{sq(0, 0, 10, 10)}
	fullyCovers := sq(-5, -5, 15, 15)
	partial := sq(5, 5, 20, 20)
	out := CullEraseFeats([]geom.Polygon{fullyCovers, partial}, sbb, 100)
	if len(out) != 1 {
		t.Fatalf("expected only the partial-coverage eraser to survive, got %d", len(out))
	}
}

func TestFormatFloat(t *testing.T) {
	if got := formatFloat(1.0); got != "1" {
		t.Errorf("formatFloat(1.0) = %q, want %q", got, "1")
	}
}
