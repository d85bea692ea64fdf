package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/sigflow/internal/ir"
)

// CycleWarning represents a loop between entities in a graph declaration.
//
// Entity loops are warnings, not errors: a loop between entities only
// becomes a signal cycle if the signals along it depend on each other, and
// that is only known once the entities are built. Signal cycles are caught
// at evaluation time with CYCLE_DETECTED.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles performs static loop analysis on a graph declaration.
//
// It builds an entity dependency graph with one edge per plug (source
// entity → plugged entity) and one per reference (referenced feature →
// feature), then uses Tarjan's algorithm to find strongly connected
// components. Each component with more than one entity, or an entity with
// an edge to itself, is reported.
//
// An acyclic declaration returns an empty warning list.
func AnalyzeCycles(spec *ir.GraphSpec) []CycleWarning {
	if spec == nil || (len(spec.Plugs) == 0 && !hasReferences(spec)) {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(spec)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		return strings.Join(warnings[i].Path, ",") < strings.Join(warnings[j].Path, ",")
	})
	return warnings
}

func hasReferences(spec *ir.GraphSpec) bool {
	for _, ent := range spec.Entities {
		if ent.Reference != "" {
			return true
		}
	}
	return false
}

// dependencyGraph maps entity → entities whose inputs it feeds.
type dependencyGraph map[string][]string

func buildDependencyGraph(spec *ir.GraphSpec) dependencyGraph {
	graph := make(dependencyGraph)

	for _, ent := range spec.Entities {
		if graph[ent.Name] == nil {
			graph[ent.Name] = []string{}
		}
		if ent.Reference != "" {
			graph[ent.Reference] = append(graph[ent.Reference], ent.Name)
		}
	}

	for _, p := range spec.Plugs {
		from, _, err := ir.SignalPath(p.From)
		if err != nil {
			continue
		}
		to, _, err := ir.SignalPath(p.To)
		if err != nil {
			continue
		}
		graph[from] = append(graph[from], to)
		if graph[to] == nil {
			graph[to] = []string{}
		}
	}

	for node := range graph {
		sort.Strings(graph[node])
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in name order so results are deterministic.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning. The path starts at
// the smallest entity name in the SCC.
func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Entity feeds itself: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Entity loop detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its smallest
// member until it returns to it.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	sorted := append([]string(nil), scc...)
	sort.Strings(sorted)
	start := sorted[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
