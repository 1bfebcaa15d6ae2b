// Package peers models the static replica topology: the set of sibling
// replicas a service propagates to, and the round-robin pools the gateway
// and order service pick backends from. Membership is fixed for the process
// lifetime; there is no health tracking and no dynamic join.
package peers

import "strings"

// ReplicaSet is the configured list of peer base URLs for one service plus
// the replica's own URL. Self and blank entries are never propagation
// targets.
type ReplicaSet struct {
	self  string
	peers []string
}

// NewReplicaSet builds a replica set from the configured URL list. The self
// URL is trimmed so stray whitespace in the environment cannot defeat
// self-exclusion.
func NewReplicaSet(self string, urls []string) *ReplicaSet {
	return &ReplicaSet{self: strings.TrimSpace(self), peers: urls}
}

// Self returns this replica's own URL.
func (rs *ReplicaSet) Self() string {
	return rs.self
}

// Others returns every peer URL except this replica's own and blanks.
func (rs *ReplicaSet) Others() []string {
	var out []string
	for _, u := range rs.peers {
		u = strings.TrimSpace(u)
		if u == "" || u == rs.self {
			continue
		}
		out = append(out, u)
	}
	return out
}
