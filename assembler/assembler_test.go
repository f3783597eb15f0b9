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

func TestAssembleProducesASiteForAnIsolatedPF(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pf := model.PF{SFID: "1", Rule: "1", Geom: square(0, 0, 100, 100)}
	s := model.SBB{SFID: "1", IntRule: 1, FltBuffer: 150, Geom: square(-150, -150, 250, 250)}

	failures := model.NewFailureReport()
	sites := Assemble(ws, Input{
		SBBs:     []model.SBB{s},
		PFs:      []model.PF{pf},
		SiteType: model.SiteTerrestrial,
		Workers:  1,
	}, failures)

	if len(sites) == 0 {
		t.Fatal("expected at least one Site for an isolated PF with no modifiers")
	}
	if !failures.Empty() {
		t.Errorf("did not expect any recorded failures, got %+v", failures)
	}
}

func TestAssembleHandlesEmptyInput(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	failures := model.NewFailureReport()
	sites := Assemble(ws, Input{SiteType: model.SiteTerrestrial, Workers: 1}, failures)
	if len(sites) != 0 {
		t.Errorf("expected no sites from empty input, got %d", len(sites))
	}
}

func TestChopModDropsSliverFragments(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pf := model.PF{SFID: "1", Rule: "1", Geom: square(0, 0, 100, 100)}
	s := model.SBB{SFID: "1", IntRule: 1, Geom: square(0, 0, 100, 100)}
	// An eraser covering 99.5% of the SBB/PF leaves only a sliver, below
	// both the 1% (PF) and 25% (SBB) retention thresholds.
	eraser := square(0, 0, 100, 99.5)

	clusters, anyErased, err := chopMod(ws, []model.PF{pf}, []model.SBB{s}, eraser)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 0 {
		t.Errorf("expected no surviving clusters, got %d", len(clusters))
	}
	if !anyErased {
		t.Error("expected anyErased to be true")
	}
}

func TestChopModRetainsSurvivingPieces(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pf := model.PF{SFID: "1", Rule: "1", Geom: square(0, 0, 100, 100)}
	s := model.SBB{SFID: "1", IntRule: 1, Geom: square(0, 0, 100, 100)}
	eraser := square(90, 0, 100, 100) // erases 10%, well above both thresholds

	clusters, anyErased, err := chopMod(ws, []model.PF{pf}, []model.SBB{s}, eraser)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) == 0 {
		t.Fatal("expected a surviving cluster")
	}
	if anyErased {
		t.Error("did not expect a PF to be entirely erased")
	}
}
