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

// Package modprep classifies and prepares hydrography, transportation, and
// exclusion layers so they can be used as erasers by the Site Assembler,
// per SPEC_FULL.md §4.B. Selection predicates ("NH_IGNORE=0 OR NULL",
// "Hydro=1") are compiled to github.com/Knetic/govaluate expressions
// rather than hard-coded field checks, the same library the teacher uses
// for its output-variable expressions in io.go. CompilePredicate accepts
// only the "FIELD=VALUE" and "FIELD=VALUE OR NULL" forms.
package modprep

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
)

// Feature is a modifier-layer record: an attribute set plus its geometry.
// Attrs values are float64, string, or bool; a missing attribute is
// represented by its absence from the map, not a nil entry.
type Feature struct {
	Attrs map[string]interface{}
	Geom  geom.Polygon
}

var isNullFunc = map[string]govaluate.ExpressionFunction{
	"ISNULL": func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 || args[0] == nil {
			return true, nil
		}
		return false, nil
	},
}

// orNullClause matches a "FIELD=VALUE OR NULL" query clause.
var orNullClause = regexp.MustCompile(`^(\w+)\s*=\s*(\S+)\s+OR\s+NULL$`)

// equalsClause matches a bare "FIELD=VALUE" query clause.
var equalsClause = regexp.MustCompile(`^(\w+)\s*=\s*(\S+)$`)

// CompilePredicate translates a modifier selection query (the two forms
// SPEC_FULL.md §4.B names: "FIELD=VALUE" and "FIELD=VALUE OR NULL") into a
// govaluate expression. "OR NULL" becomes an ISNULL(FIELD) call so that a
// feature missing the field entirely still selects, matching the source
// query semantics where a null attribute satisfies an "OR NULL" clause.
func CompilePredicate(query string) (*govaluate.EvaluableExpression, error) {
	query = strings.TrimSpace(query)
	var translated string
	switch {
	case orNullClause.MatchString(query):
		m := orNullClause.FindStringSubmatch(query)
		field, value := m[1], m[2]
		translated = fmt.Sprintf("(%s == %s || ISNULL(%s))", field, value, field)
	case equalsClause.MatchString(query):
		m := equalsClause.FindStringSubmatch(query)
		field, value := m[1], m[2]
		translated = fmt.Sprintf("%s == %s", field, value)
	default:
		return nil, fmt.Errorf("modprep: unsupported query %q", query)
	}
	return govaluate.NewEvaluableExpressionWithFunctions(translated, isNullFunc)
}

// matches reports whether feature satisfies expr, treating an absent
// attribute as nil so ISNULL() and direct comparisons both behave
// correctly regardless of which fields a given feature carries.
func matches(expr *govaluate.EvaluableExpression, f Feature) (bool, error) {
	params := make(map[string]interface{}, len(f.Attrs)+4)
	for _, v := range expr.Vars() {
		if val, ok := f.Attrs[v]; ok {
			params[v] = val
		} else {
			params[v] = nil
		}
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("modprep: predicate did not evaluate to a boolean: %v", result)
	}
	return b, nil
}

// SelectByQuery returns the subset of features matching query.
func SelectByQuery(features []Feature, query string) ([]Feature, error) {
	expr, err := CompilePredicate(query)
	if err != nil {
		return nil, err
	}
	var out []Feature
	for _, f := range features {
		ok, err := matches(expr, f)
		if err != nil {
			return nil, fmt.Errorf("modprep: evaluating %q: %w", query, err)
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// GetEraseFeats implements SPEC_FULL.md §4.B: select features by query,
// dissolve them, open by elimDist to drop slivers narrower than
// 2*elimDist, then close by elimDist to restore the outer shape, then erase
// preserveFeats so a PF is never swallowed by its own eraser layer.
func GetEraseFeats(ws *model.Workspace, features []Feature, query string, elimDist float64, preserveFeats []geom.Polygon) ([]geom.Polygon, error) {
	selected, err := SelectByQuery(features, query)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, nil
	}
	polys := make([]geom.Polygon, len(selected))
	for i, f := range selected {
		polys[i] = f.Geom
	}
	dissolved := geo.Dissolve(polys)

	closed, err := geo.Coalesce([]geom.Polygon{dissolved}, -elimDist)
	if err != nil {
		return nil, err
	}
	restored, err := geo.Coalesce([]geom.Polygon{closed}, elimDist)
	if err != nil {
		return nil, err
	}
	if len(preserveFeats) == 0 {
		return geo.ExplodeMultipart(restored), nil
	}
	preserved := geo.Dissolve(preserveFeats)
	return geo.CleanErase(ws, restored, preserved), nil
}

// CullEraseFeats drops any eraser polygon whose coverage of any one target
// polygon reaches perCov percent, per SPEC_FULL.md §4.B's "per-hydro max,
// drop if >= cutoff" rule. Coverage is intersection area over target area,
// tabulated for every (target, eraser) pair.
func CullEraseFeats(erasers []geom.Polygon, targets []geom.Polygon, perCov float64) []geom.Polygon {
	out := make([]geom.Polygon, 0, len(erasers))
	for _, eraser := range erasers {
		maxCoverage := 0.0
		for _, target := range targets {
			targetArea := target.Area()
			if targetArea <= 0 {
				continue
			}
			inter := eraser.Intersection(target).Area()
			coverage := inter / targetArea * 100
			if coverage > maxCoverage {
				maxCoverage = coverage
			}
		}
		if maxCoverage < perCov {
			out = append(out, eraser)
		}
	}
	return out
}

// formatFloat renders a float64 the way a raw attribute-query literal
// would appear, used by tests constructing query strings programmatically.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
