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

// Package sbb builds Site Building Blocks from Procedural Features
// (SPEC_FULL.md §4.C) and expands them against habitat core polygons
// (§4.D).
package sbb

import (
	"github.com/sirupsen/logrus"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache"
	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
)

// Build constructs the SBB for a single PF, dispatching to the wetland
// construction for rules 5/6/7/9 and to plain buffering otherwise. It
// returns ok == false when the rule/buffer combination is invalid (Rule 10
// with a disallowed supplied buffer); the caller is expected to record the
// failure in a model.FailureReport and move on, per spec.md §7.
func Build(ws *model.Workspace, pf model.PF, nwi []NWIFeature) (model.SBB, bool) {
	return build(ws, pf, nwi, nil)
}

func build(ws *model.Workspace, pf model.PF, nwi []NWIFeature, cache *requestcache.Cache) (model.SBB, bool) {
	intRule := model.IntRule(pf.Rule)

	if model.IsWetlandRule(intRule) {
		g, err := buildWetland(ws, pf, nwi, intRule, cache)
		if err != nil {
			ws.Log.WithFields(logrus.Fields{"sfid": pf.SFID, "rule": pf.Rule}).Warn("wetland SBB construction failed")
			return model.SBB{}, false
		}
		return model.SBB{SFID: pf.SFID, IntRule: intRule, Geom: g}, true
	}

	buffer, ok := model.FltBuffer(intRule, pf.Buffer)
	if !ok {
		ws.Log.WithFields(logrus.Fields{"sfid": pf.SFID, "rule": pf.Rule}).Warn("invalid buffer configuration for rule; skipping PF")
		return model.SBB{}, false
	}

	var g geom.Polygon
	if buffer == 0 {
		g = pf.Geom
	} else {
		buffered, err := geo.Buffer(pf.Geom, buffer)
		if err != nil {
			ws.Log.WithFields(logrus.Fields{"sfid": pf.SFID}).Warn("buffer construction failed")
			return model.SBB{}, false
		}
		g = buffered
	}
	return model.SBB{SFID: pf.SFID, IntRule: intRule, FltBuffer: buffer, Geom: g}, true
}

// BuildAll constructs SBBs for every PF, recording per-PF failures in
// failures rather than aborting the run. A single NWI rule-subset cache is
// shared across all PFs, so the NWI layer is filtered by rule at most once
// regardless of how many PFs share that rule.
func BuildAll(ws *model.Workspace, pfs []model.PF, nwi []NWIFeature, failures *model.FailureReport) []model.SBB {
	cache := NewSubsetCache()
	out := make([]model.SBB, 0, len(pfs))
	for _, pf := range pfs {
		sbb, ok := build(ws, pf, nwi, cache)
		if !ok {
			failures.AddPF(pf.SFID)
			continue
		}
		out = append(out, sbb)
	}
	return out
}
