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

package store

import (
	"os"
	"testing"

	"github.com/natheritage/ecs/model"
)

func TestNewScratchWorkspaceCreatesUniqueDir(t *testing.T) {
	ws1, err := NewScratchWorkspace("ecs-test")
	if err != nil {
		t.Fatalf("NewScratchWorkspace: %v", err)
	}
	defer CleanupScratch(ws1)
	ws2, err := NewScratchWorkspace("ecs-test")
	if err != nil {
		t.Fatalf("NewScratchWorkspace: %v", err)
	}
	defer CleanupScratch(ws2)

	if ws1.ScratchDir == ws2.ScratchDir {
		t.Fatalf("expected distinct scratch dirs, got %q twice", ws1.ScratchDir)
	}
	if _, err := os.Stat(ws1.ScratchDir); err != nil {
		t.Fatalf("expected scratch dir to exist: %v", err)
	}
	if ws1.Log == nil {
		t.Fatal("expected a non-nil logger")
	}
}

func TestCleanupScratchRemovesDir(t *testing.T) {
	ws, err := NewScratchWorkspace("ecs-test")
	if err != nil {
		t.Fatalf("NewScratchWorkspace: %v", err)
	}
	if err := CleanupScratch(ws); err != nil {
		t.Fatalf("CleanupScratch: %v", err)
	}
	if _, err := os.Stat(ws.ScratchDir); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed, stat returned: %v", err)
	}
}

func TestCleanupScratchOnEmptyDirIsNoop(t *testing.T) {
	ws := &model.Workspace{}
	if err := CleanupScratch(ws); err != nil {
		t.Fatalf("expected no error cleaning up a Workspace with no ScratchDir, got %v", err)
	}
}
