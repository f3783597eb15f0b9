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
	"testing"

	"github.com/natheritage/ecs/model"
)

func TestParseDateTriesEachLayout(t *testing.T) {
	cases := map[string]struct{ y, m, d int }{
		"2024-03-05": {2024, 3, 5},
		"3/5/2024":   {2024, 3, 5},
		"20240305":   {2024, 3, 5},
	}
	for in, want := range cases {
		got, err := parseDate(in)
		if err != nil {
			t.Fatalf("parseDate(%q): %v", in, err)
		}
		if got.Year() != want.y || int(got.Month()) != want.m || got.Day() != want.d {
			t.Fatalf("parseDate(%q) = %v, want %d-%d-%d", in, got, want.y, want.m, want.d)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := parseDate("not a date"); err == nil {
		t.Fatal("expected an error for an unparseable date string")
	}
}

func TestSortedELCodesIsDeterministic(t *testing.T) {
	summaries := []model.ElementSummary{{ELCode: "ZEBRA1"}, {ELCode: "AARD1"}, {ELCode: "MIDL1"}}
	got := sortedELCodes(summaries)
	want := []string{"AARD1", "MIDL1", "ZEBRA1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedELCodes() = %v, want %v", got, want)
		}
	}
}
