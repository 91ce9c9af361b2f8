// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package plugin

import (
	"path"
	"strings"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

const maxNameSegments = 32

// IsPattern reports whether s contains a glob and must be expanded against a
// catalog rather than looked up directly.
func IsPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// MatchName reports whether a dotted plugin name matches pattern.
//
// A segment that is exactly "*" matches one or more whole name segments.
// Any other segment is matched with path.Match, so "web*" matches "webbridge"
// but never crosses a dot. Names with empty segments never match.
func MatchName(pattern, name string) (bool, error) {
	if !validDotted(pattern) || !validDotted(name) {
		return false, nil
	}

	ps := strings.Split(pattern, ".")
	ns := strings.Split(name, ".")
	if len(ps) > maxNameSegments || len(ns) > maxNameSegments {
		return false, errors.Errorf(errors.CodePluginArgumentInvalid,
			"plugin name pattern exceeds %d segments", maxNameSegments)
	}
	for _, seg := range ps {
		if _, err := path.Match(seg, ""); err != nil {
			return false, errors.Wrapf(err, errors.CodePluginArgumentInvalid,
				"invalid plugin name pattern %q", pattern)
		}
	}

	// reach[j] is true when the pattern prefix consumed so far can end
	// right before name segment j.
	reach := make([]bool, len(ns)+1)
	reach[0] = true
	for _, seg := range ps {
		next := make([]bool, len(ns)+1)
		for j := range ns {
			if !reach[j] {
				continue
			}
			if seg == "*" {
				for k := j + 1; k <= len(ns); k++ {
					next[k] = true
				}
				continue
			}
			if ok, _ := path.Match(seg, ns[j]); ok {
				next[j+1] = true
			}
		}
		reach = next
	}
	return reach[len(ns)], nil
}

func validDotted(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	return !strings.Contains(s, "..")
}
