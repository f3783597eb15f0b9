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
	"io/ioutil"
	"os"
	"time"

	"github.com/natheritage/ecs/model"
)

// NewScratchWorkspace creates a fresh, uniquely-named scratch directory
// under the system temp root (mirroring sr.go's and inmaputil's own
// ioutil.TempDir("", prefix) pattern) and returns a model.Workspace
// rooted there. Callers are responsible for calling CleanupScratch once
// the run completes.
func NewScratchWorkspace(prefix string) (*model.Workspace, error) {
	if prefix == "" {
		prefix = "ecs"
	}
	dir, err := ioutil.TempDir("", prefix+"-"+time.Now().Format("20060102-150405")+"-")
	if err != nil {
		return nil, err
	}
	return model.NewWorkspace(dir), nil
}

// CleanupScratch removes a Workspace's scratch directory and everything
// under it. Safe to call on a Workspace whose ScratchDir no longer exists.
func CleanupScratch(ws *model.Workspace) error {
	if ws.ScratchDir == "" {
		return nil
	}
	return os.RemoveAll(ws.ScratchDir)
}
