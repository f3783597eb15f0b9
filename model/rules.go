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

package model

import "strconv"

// IntRule normalizes a PF's raw Rule string to the canonical integer rule
// used throughout delineation: -1 for AHZ, 0 for anything unrecognized,
// else the parsed 1..15 value.
func IntRule(rule string) int {
	if rule == "AHZ" {
		return -1
	}
	n, err := strconv.Atoi(rule)
	if err != nil || n < 1 || n > 15 {
		return 0
	}
	return n
}

// IsWetlandRule reports whether intRule selects one of the wetland rules
// (5, 6, 7, 9) that require NWI-proximal construction.
func IsWetlandRule(intRule int) bool {
	switch intRule {
	case 5, 6, 7, 9:
		return true
	default:
		return false
	}
}

// FltBuffer computes the SPEC_FULL.md §4.C fltBuffer for a PF given its
// canonical rule and supplied buffer override. ok is false when the rule
// configuration is invalid (Rule 10 with a non-permissible buffer), in
// which case the caller should warn, set the buffer to null, and skip the
// PF for the simple/zero-buffer paths.
func FltBuffer(intRule int, supplied *float64) (buffer float64, ok bool) {
	switch intRule {
	case 1:
		buffer = 150
	case 2, 3, 4, 8, 14:
		buffer = 250
	case 11, 12:
		buffer = 405
	case 15:
		buffer = 0
	case 10:
		if supplied == nil {
			return 0, false
		}
		switch *supplied {
		case 0, 150, 500:
			buffer = *supplied
		default:
			return 0, false
		}
	case 13:
		if supplied == nil {
			return 0, false
		}
		buffer = *supplied
	case -1: // AHZ
		if supplied != nil {
			buffer = *supplied
		}
	case 5, 6, 7, 9:
		// Wetland rules carry no single fltBuffer; handled by package sbb.
		return 0, true
	default:
		return 0, false
	}
	if supplied != nil && *supplied == 0 {
		buffer = 0
	}
	return buffer, true
}
