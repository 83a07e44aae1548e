package graph

import (
	"fmt"

	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
)

// RootPolicy decides what happens when an element is reached from roots
// where neither contains the other.
type RootPolicy int

const (
	// RootPolicyStrict fails with DisjointRootError.
	RootPolicyStrict RootPolicy = iota
	// RootPolicyLastWins keeps the root of the later-registered chunk.
	RootPolicyLastWins
)

// String returns the policy name used in configuration.
func (p RootPolicy) String() string {
	if p == RootPolicyLastWins {
		return "last-wins"
	}
	return "strict"
}

// ParseRootPolicy parses a policy name.
func ParseRootPolicy(s string) (RootPolicy, error) {
	switch s {
	case "", "strict":
		return RootPolicyStrict, nil
	case "last-wins":
		return RootPolicyLastWins, nil
	}
	return RootPolicyStrict, fmt.Errorf("unknown root policy %q", s)
}

// DisjointRootError reports an element reachable from two roots that do not
// contain each other.
type DisjointRootError struct {
	Node  *dom.Node
	Roots [2]*dom.Node
}

func (e *DisjointRootError) Error() string {
	return fmt.Sprintf("element %s is reachable from disjoint roots %s and %s", e.Node, e.Roots[0], e.Roots[1])
}

type rootCandidate struct {
	root *dom.Node
	// order is the registration index of the chunk that supplied root
	order int
}

// resolveRoot picks the candidate that contains every other one. Candidates
// must be sorted by order.
func resolveRoot(n *dom.Node, candidates []rootCandidate, policy RootPolicy) (*dom.Node, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case best.root.Contains(c.root):
		case c.root.Contains(best.root):
			best = c
		case policy == RootPolicyLastWins:
			if c.order >= best.order {
				best = c
			}
		default:
			return nil, &DisjointRootError{Node: n, Roots: [2]*dom.Node{best.root, c.root}}
		}
	}
	return best.root, nil
}
