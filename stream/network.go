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

// Package stream builds SCS/SCU Conservation Sites (SPEC_FULL.md §4.F) by
// aligning PFs to a hydrologic flow network, solving directional
// service-area traces around each PF, gap-filling the result, and buffering
// or dissolving against catchments.
package stream

import "github.com/ctessum/geom"

// TravelMode selects the direction(s) a Network traversal is allowed to
// follow, matching the three HydroNet travel modes spec.md §4.F names.
type TravelMode string

// Travel modes a Network must support.
const (
	ModeDownstream   TravelMode = "SCS Downstream"
	ModeUpstream     TravelMode = "SCS Upstream"
	ModeAllDirections TravelMode = "SCS All Directions"
)

// Barrier is a point obstruction a service-area solve must not traverse
// past, e.g. a dam. Unlocatable is set when the barrier could not be
// snapped onto the network; spec.md §4.F directs deleting such barriers
// defensively rather than failing the solve.
type Barrier struct {
	Geom         geom.Point
	Unlocatable  bool
}

// Network is the seam for the directional flow-traversal dataset spec.md
// §1 places out of scope ("the HydroNet routing engine is assumed
// available"). ServiceArea returns the network edges reachable from
// facilities within cutoff distance, honoring mode and barriers.
type Network interface {
	ServiceArea(mode TravelMode, facilities []geom.Point, cutoff float64, barriers []Barrier) ([]geom.LineString, error)
}

// Flowline is one NHD flow line, optionally tidal.
type Flowline struct {
	ID     string
	Geom   geom.LineString
	Tidal  bool
}

// Waterbody is an NHD area/waterbody polygon used to detect river-width
// PFs (step 1) and as part of the final buffer/dissolve union (step 5).
type Waterbody struct {
	ID   string
	Geom geom.Polygon
}

// Catchment is an NHDPlus catchment polygon associated with a flowline, the
// dissolve unit for step 5.
type Catchment struct {
	FlowlineID string
	Geom       geom.Polygon
}
