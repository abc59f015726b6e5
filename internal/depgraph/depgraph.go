// Package depgraph expands document dependency sets to their transitive
// closure and finds dependency cycles.
package depgraph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// Graph maps a node to its direct dependencies.
type Graph[K cmp.Ordered] map[K][]K

// CycleError reports one dependency cycle. Path starts and ends at the same node.
type CycleError[K cmp.Ordered] struct {
	Path []K
}

// Error returns the error string.
func (e CycleError[K]) Error() string {
	parts := make([]string, len(e.Path))
	for i, k := range e.Path {
		parts[i] = toString(k)
	}
	return "dependency cycle: " + strings.Join(parts, " -> ")
}

// Closure returns, for every node of g, the set of nodes reachable from it
// in breadth-first discovery order. A node never appears in its own closure,
// even when it lies on a cycle. Nodes referenced but absent from g are kept
// in the closure and contribute no edges.
func Closure[K cmp.Ordered](g Graph[K]) Graph[K] {
	out := make(Graph[K], len(g))
	for _, k := range sortedKeys(g) {
		out[k] = reach(g, k)
	}
	return out
}

func reach[K cmp.Ordered](g Graph[K], from K) []K {
	seen := map[K]bool{from: true}
	var list []K
	queue := append([]K(nil), g[from]...)
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if seen[k] {
			continue
		}
		seen[k] = true
		list = append(list, k)
		queue = append(queue, g[k]...)
	}
	return list
}

// Cycles returns every distinct cycle found by a depth-first walk over g,
// starting from nodes in sorted order. Each cycle is reported once.
func Cycles[K cmp.Ordered](g Graph[K]) []CycleError[K] {
	states := make(map[K]visitState, len(g))
	var stack []K
	var found []CycleError[K]
	reported := map[string]bool{}

	var visit func(k K)
	visit = func(k K) {
		switch states[k] {
		case stateVisiting:
			i := slices.Index(stack, k)
			path := append(append([]K(nil), stack[i:]...), k)
			if key := canonical(path); !reported[key] {
				reported[key] = true
				found = append(found, CycleError[K]{Path: path})
			}
			return
		case stateDone:
			return
		}
		states[k] = stateVisiting
		stack = append(stack, k)
		for _, next := range g[k] {
			visit(next)
		}
		stack = stack[:len(stack)-1]
		states[k] = stateDone
	}

	for _, k := range sortedKeys(g) {
		visit(k)
	}
	return found
}

// Detect returns the first cycle reachable from starts, or nil.
func Detect[K cmp.Ordered](g Graph[K], starts ...K) error {
	sub := make(Graph[K])
	for _, s := range starts {
		sub[s] = g[s]
		for _, k := range reach(g, s) {
			sub[k] = g[k]
		}
	}
	if cs := Cycles(sub); len(cs) > 0 {
		return cs[0]
	}
	return nil
}

// canonical rotates the cycle (without its closing node) so the smallest node
// comes first; A->B->A and B->A->B share a key.
func canonical[K cmp.Ordered](path []K) string {
	ring := path[:len(path)-1]
	lo := 0
	for i := range ring {
		if ring[i] < ring[lo] {
			lo = i
		}
	}
	var b strings.Builder
	for i := range ring {
		b.WriteString(toString(ring[(lo+i)%len(ring)]))
		b.WriteByte(0)
	}
	return b.String()
}

func sortedKeys[K cmp.Ordered](g Graph[K]) []K {
	keys := make([]K, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func toString[K cmp.Ordered](k K) string {
	if s, ok := any(k).(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
