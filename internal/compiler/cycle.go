package compiler

import (
	"fmt"
	"slices"
	"strings"
)

// GroupCycle describes groups that contain each other, directly or
// through other groups. Expansion of such a group would never terminate,
// so cycles are errors.
type GroupCycle struct {
	Path    []string `json:"path"`    // ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeGroups finds group cycles.
//
// The algorithm:
//  1. Build group -> member-group graph (members that are not groups are leaves)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Nodes and edges are visited in declaration order so the report is stable.
func AnalyzeGroups(groups []GroupDecl) []GroupCycle {
	if len(groups) == 0 {
		return nil
	}

	graph, order := buildGroupGraph(groups)
	sccs := tarjanSCC(graph, order)

	var cycles []GroupCycle
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

// groupGraph maps a group name to the groups among its members.
type groupGraph map[string][]string

func buildGroupGraph(groups []GroupDecl) (groupGraph, []string) {
	isGroup := make(map[string]bool, len(groups))
	order := make([]string, 0, len(groups))
	for _, g := range groups {
		if !isGroup[g.Name] {
			order = append(order, g.Name)
		}
		isGroup[g.Name] = true
	}

	graph := make(groupGraph, len(groups))
	for _, g := range groups {
		if graph[g.Name] == nil {
			graph[g.Name] = []string{}
		}
		for _, m := range g.Members {
			if isGroup[m] {
				graph[g.Name] = append(graph[g.Name], m)
			}
		}
	}
	return graph, order
}

func hasSelfLoop(node string, graph groupGraph) bool {
	return slices.Contains(graph[node], node)
}

// sccFinder holds Tarjan's bookkeeping for one pass over a group graph.
type sccFinder struct {
	graph   groupGraph
	next    int
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	sccs    [][]string
}

// tarjanSCC returns the strongly connected components of graph, each listed
// in pop order so its last element is the component's root. Roots are
// tried in order. Single-node components without self-loops are NOT cycles.
func tarjanSCC(graph groupGraph, order []string) [][]string {
	f := &sccFinder{
		graph:   graph,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, node := range order {
		if _, seen := f.index[node]; !seen {
			f.visit(node)
		}
	}
	return f.sccs
}

func (f *sccFinder) visit(v string) {
	f.index[v], f.low[v] = f.next, f.next
	f.next++
	f.push(v)

	for _, w := range f.graph[v] {
		switch _, seen := f.index[w]; {
		case !seen:
			f.visit(w)
			f.low[v] = min(f.low[v], f.low[w])
		case f.onStack[w]:
			f.low[v] = min(f.low[v], f.index[w])
		}
	}

	if f.low[v] != f.index[v] {
		return
	}
	var scc []string
	for {
		w := f.pop()
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	f.sccs = append(f.sccs, scc)
}

func (f *sccFinder) push(v string) {
	f.stack = append(f.stack, v)
	f.onStack[v] = true
}

func (f *sccFinder) pop() string {
	w := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	f.onStack[w] = false
	return w
}

func sccToCycle(scc []string, graph groupGraph) GroupCycle {
	if len(scc) == 1 {
		name := scc[0]
		return GroupCycle{
			Path:    []string{name, name},
			Message: fmt.Sprintf("group %q contains itself", name),
		}
	}

	path := cyclePath(scc, graph)
	return GroupCycle{
		Path:    path,
		Message: fmt.Sprintf("group cycle: %s", strings.Join(path, " -> ")),
	}
}

// cyclePath follows edges that stay inside the component, starting at its
// root, until the walk returns to the root.
func cyclePath(scc []string, graph groupGraph) []string {
	root := scc[len(scc)-1]
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	path := []string{root}
	walked := map[string]bool{root: true}
	for at := root; ; {
		step := ""
		for _, m := range graph[at] {
			if members[m] && (m == root || !walked[m]) {
				step = m
				break
			}
		}
		if step == "" {
			return path
		}
		path = append(path, step)
		if step == root {
			return path
		}
		walked[step] = true
		at = step
	}
}
