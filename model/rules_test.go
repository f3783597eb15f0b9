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

import "testing"

func TestIntRule(t *testing.T) {
	cases := []struct {
		rule string
		want int
	}{
		{"AHZ", -1},
		{"1", 1},
		{"15", 15},
		{"KCS", 0},
		{"MACS", 0},
		{"16", 0},
		{"0", 0},
	}
	for _, c := range cases {
		if got := IntRule(c.rule); got != c.want {
			t.Errorf("IntRule(%q) = %d, want %d", c.rule, got, c.want)
		}
	}
}

func f(v float64) *float64 { return &v }

func TestFltBuffer(t *testing.T) {
	cases := []struct {
		name      string
		intRule   int
		supplied  *float64
		wantBuf   float64
		wantOK    bool
	}{
		{"rule1 no supplied", 1, nil, 150, true},
		{"rule2 override zero", 2, f(0), 0, true},
		{"rule11", 11, nil, 405, true},
		{"rule15 zero-buffer", 15, nil, 0, true},
		{"rule10 valid 150", 10, f(150), 150, true},
		{"rule10 valid 0", 10, f(0), 0, true},
		{"rule10 invalid", 10, f(75), 0, false},
		{"rule10 missing", 10, nil, 0, false},
		{"rule13 verbatim", 13, f(333), 333, true},
		{"rule13 missing", 13, nil, 0, false},
		{"AHZ default", -1, nil, 0, true},
		{"AHZ supplied", -1, f(75), 75, true},
		{"wetland rule", 5, nil, 0, true},
		{"unknown rule", 0, nil, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf, ok := FltBuffer(c.intRule, c.supplied)
			if ok != c.wantOK {
				t.Fatalf("ok = %v, want %v", ok, c.wantOK)
			}
			if ok && buf != c.wantBuf {
				t.Errorf("buffer = %v, want %v", buf, c.wantBuf)
			}
		})
	}
}

func TestIsWetlandRule(t *testing.T) {
	for _, r := range []int{5, 6, 7, 9} {
		if !IsWetlandRule(r) {
			t.Errorf("IsWetlandRule(%d) = false, want true", r)
		}
	}
	for _, r := range []int{1, 2, 10, 11, -1, 0} {
		if IsWetlandRule(r) {
			t.Errorf("IsWetlandRule(%d) = true, want false", r)
		}
	}
}
