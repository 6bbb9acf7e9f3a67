// Package grouping partitions SLO inventory into selectable entities:
// all SLOs of a project, all SLOs of a service, or an ad-hoc set picked
// by position. Pure — no I/O, no presentation.
package grouping

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ebagen/internal/inventory"
)

// Mode selects the grouping dimension.
type Mode int

const (
	ByProject Mode = iota
	ByService
	Individual
)

// UnassignedService labels SLOs whose spec carries no service.
const UnassignedService = "unassigned"

// adHocEntity names an individual selection that resolved to zero records.
const adHocEntity = "selection"

// Group is a named bucket of records sharing a grouping key, or an
// ad-hoc selection. Members keep inventory order.
type Group struct {
	Name    string
	Members []inventory.Record
}

// SelectionError reports an unusable menu or index input. Recoverable:
// callers re-prompt.
type SelectionError struct {
	Input  string
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Input, e.Reason)
}

// Groups buckets records by the mode's key, sorted by group name for
// deterministic menus. Individual mode has no precomputed buckets; use
// ParseSelection and Pick instead.
func Groups(records []inventory.Record, mode Mode) []Group {
	buckets := make(map[string][]inventory.Record)
	for _, r := range records {
		key := r.Project
		if mode == ByService {
			key = r.Service
			if key == "" {
				key = UnassignedService
			}
		}
		buckets[key] = append(buckets[key], r)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, Group{Name: name, Members: buckets[name]})
	}
	return groups
}

// AllToken is the literal a user types to select every listed SLO.
const AllToken = "all"

// ParseSelection turns an individual-mode input into 0-based indices
// into a list of n records. Accepts AllToken or a comma-separated list
// of distinct 1-based positions. Anything else is a SelectionError;
// out-of-range values are never clamped.
func ParseSelection(input string, n int) ([]int, error) {
	trimmed := strings.TrimSpace(input)
	if strings.EqualFold(trimmed, AllToken) {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}
	if trimmed == "" {
		return nil, &SelectionError{Input: input, Reason: "empty"}
	}

	seen := make(map[int]bool)
	var indices []int
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		pos, err := strconv.Atoi(part)
		if err != nil {
			return nil, &SelectionError{Input: input, Reason: fmt.Sprintf("%q is not a number", part)}
		}
		if pos < 1 || pos > n {
			return nil, &SelectionError{Input: input, Reason: fmt.Sprintf("index %d out of range 1..%d", pos, n)}
		}
		if seen[pos] {
			return nil, &SelectionError{Input: input, Reason: fmt.Sprintf("index %d listed twice", pos)}
		}
		seen[pos] = true
		indices = append(indices, pos-1)
	}
	return indices, nil
}

// Pick resolves 0-based indices into an ad-hoc Group. The entity name is
// the first member's project; an empty selection gets a sentinel name.
func Pick(records []inventory.Record, indices []int) Group {
	members := make([]inventory.Record, 0, len(indices))
	for _, i := range indices {
		members = append(members, records[i])
	}
	name := adHocEntity
	if len(members) > 0 {
		name = members[0].Project
	}
	return Group{Name: name, Members: members}
}
