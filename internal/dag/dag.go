// Package dag derives execution order from table-level lineage. Edges
// point from source tables to the tables built from them, so a
// topological order is a valid build order.
package dag

import (
	"strings"

	"github.com/sqltrace-labs/sqltrace/internal/lineage"
)

// Graph is a dependency graph over table identifiers. Nodes remember
// their registration order, which makes every derived ordering
// deterministic for the same sequence of inputs.
type Graph struct {
	order    []string
	nodes    map[string]struct{}
	children map[string][]string
	parents  map[string][]string
	edgeSet  map[[2]string]struct{}
}

func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]struct{}),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
		edgeSet:  make(map[[2]string]struct{}),
	}
}

// FromLineage builds a dependency graph from a lineage graph. Every
// table node registers in lineage registration order; only
// table-to-table edges contribute dependencies.
func FromLineage(lg *lineage.Graph) *Graph {
	g := NewGraph()
	for _, id := range lg.TableIDs() {
		g.AddNode(id)
	}
	for _, e := range lg.TableEdges() {
		g.AddEdge(e.Source, e.Target)
	}
	return g
}

// AddNode registers a node. Re-registration is a no-op, keeping the
// original position.
func (g *Graph) AddNode(id string) {
	id = canonical(id)
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = struct{}{}
	g.order = append(g.order, id)
}

// AddEdge records that child is built from parent. Edges whose
// endpoints were never registered are dropped; duplicates collapse.
// Self-edges are kept and resolve as cycles during ordering.
func (g *Graph) AddEdge(parentID, childID string) {
	parent, child := canonical(parentID), canonical(childID)
	if _, ok := g.nodes[parent]; !ok {
		return
	}
	if _, ok := g.nodes[child]; !ok {
		return
	}
	key := [2]string{parent, child}
	if _, ok := g.edgeSet[key]; ok {
		return
	}
	g.edgeSet[key] = struct{}{}
	g.children[parent] = append(g.children[parent], child)
	g.parents[child] = append(g.parents[child], parent)
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.edgeSet) }

// Roots returns nodes with no dependencies, in registration order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns nodes nothing depends on, in registration order.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.children[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// ExecutionOrder returns a total order over all nodes: a Kahn traversal
// with ties broken by registration order. Nodes left over by cycles are
// appended at the end, again in registration order, so the result always
// contains every node exactly once.
func (g *Graph) ExecutionOrder() []string {
	indegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		indegree[id] = len(g.parents[id])
	}

	var ready []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	result := make([]string, 0, len(g.order))
	emitted := make(map[string]struct{}, len(g.order))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		result = append(result, id)
		emitted[id] = struct{}{}
		for _, child := range g.children[id] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	// Cycle members never reach in-degree zero; append them so the
	// order stays total.
	for _, id := range g.order {
		if _, ok := emitted[id]; !ok {
			result = append(result, id)
		}
	}
	return result
}

// Levels groups nodes into parallelizable stages: every node in level N
// depends only on nodes in levels below N. Cycle members form a single
// trailing level.
func (g *Graph) Levels() [][]string {
	indegree := make(map[string]int, len(g.order))
	level := make(map[string]int, len(g.order))
	for _, id := range g.order {
		indegree[id] = len(g.parents[id])
	}

	var ready []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	emitted := make(map[string]struct{}, len(g.order))
	maxLevel := -1
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		emitted[id] = struct{}{}
		if level[id] > maxLevel {
			maxLevel = level[id]
		}
		for _, child := range g.children[id] {
			if level[id]+1 > level[child] {
				level[child] = level[id] + 1
			}
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, id := range g.order {
		if _, ok := emitted[id]; ok {
			levels[level[id]] = append(levels[level[id]], id)
		}
	}

	var leftover []string
	for _, id := range g.order {
		if _, ok := emitted[id]; !ok {
			leftover = append(leftover, id)
		}
	}
	if len(leftover) > 0 {
		levels = append(levels, leftover)
	}
	return levels
}

// ExecutionOrder is a convenience over FromLineage for callers that only
// need the final ordering.
func ExecutionOrder(lg *lineage.Graph) []string {
	return FromLineage(lg).ExecutionOrder()
}

// canonical applies the same identity rule lineage uses, so ids from
// direct callers and from lineage graphs always collide correctly.
func canonical(id string) string {
	return strings.ToLower(id)
}
