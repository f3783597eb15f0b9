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

func f(v float64) *float64 { return &v }

func TestBuildSimpleRule(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pf := model.PF{SFID: "1", Rule: "1", Geom: square(0, 0, 10, 10)}
	s, ok := Build(ws, pf, nil)
	if !ok {
		t.Fatal("expected Build to succeed")
	}
	if s.FltBuffer != 150 {
		t.Errorf("FltBuffer = %v, want 150", s.FltBuffer)
	}
	if s.Geom.Area() <= pf.Geom.Area() {
		t.Error("buffered SBB should be larger than the PF")
	}
}

func TestBuildZeroBufferRule(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pf := model.PF{SFID: "1", Rule: "15", Geom: square(0, 0, 10, 10)}
	s, ok := Build(ws, pf, nil)
	if !ok {
		t.Fatal("expected Build to succeed")
	}
	if s.Geom.Area() != pf.Geom.Area() {
		t.Errorf("zero-buffer SBB area = %v, want %v", s.Geom.Area(), pf.Geom.Area())
	}
}

func TestBuildInvalidRule10Fails(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pf := model.PF{SFID: "1", Rule: "10", Buffer: f(42), Geom: square(0, 0, 10, 10)}
	_, ok := Build(ws, pf, nil)
	if ok {
		t.Fatal("expected Build to fail for a disallowed Rule 10 buffer")
	}
}

func TestBuildAllRecordsFailures(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pfs := []model.PF{
		{SFID: "good", Rule: "1", Geom: square(0, 0, 10, 10)},
		{SFID: "bad", Rule: "10", Buffer: f(42), Geom: square(20, 0, 30, 10)},
	}
	failures := model.NewFailureReport()
	out := BuildAll(ws, pfs, nil, failures)
	if len(out) != 1 {
		t.Fatalf("expected 1 successful SBB, got %d", len(out))
	}
	if failures.Empty() {
		t.Error("expected a recorded failure for the bad PF")
	}
}

func TestBuildWetlandFallsBackToBmin(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir())
	pf := model.PF{SFID: "1", Rule: "5", Geom: square(0, 0, 10, 10)}
	s, ok := Build(ws, pf, nil) // no NWI features in range
	if !ok {
		t.Fatal("expected Build to succeed with no NWI features")
	}
	want := 10*10 + 4*10*250 + math.Pi*250*250 // square, edge bands, rounded corners
	got := s.Geom.Area()
	if got < want*0.9 || got > want*1.1 {
		t.Errorf("wetland fallback area = %v, want near %v", got, want)
	}
}
