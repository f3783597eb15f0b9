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

// Package retry wraps geometry-repair attempts in a bounded exponential
// backoff, mirroring the retry shape sr/sr.go uses around remote
// service-area solves, adapted per spec.md §7: retry a repair operation
// up to ten times, then fall back to an unrepaired copy and log a
// warning.
package retry

import (
	"github.com/cenkalti/backoff"
	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// MaxAttempts is the number of retries spec.md §7 allows after the first
// failed repair attempt, before falling back to the unrepaired geometry.
const MaxAttempts = 10

// Geometry runs repair, retrying on error up to MaxAttempts times. If
// every attempt fails, it logs a warning through log and returns original
// unchanged, per the "fall back to copying features unchanged" policy.
func Geometry(log logrus.FieldLogger, context string, original geom.Polygon, repair func() (geom.Polygon, error)) geom.Polygon {
	var result geom.Polygon
	attempts := 0
	operation := func() error {
		attempts++
		r, err := repair()
		if err != nil {
			return err
		}
		result = r
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(MaxAttempts))
	if err := backoff.Retry(operation, b); err != nil {
		log.WithFields(logrus.Fields{
			"context":  context,
			"attempts": attempts,
		}).Warn("geometry repair failed; falling back to unrepaired copy")
		return original
	}
	return result
}
