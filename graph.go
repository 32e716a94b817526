package walletflow

import "fmt"

// CheckEdges verifies that every edge references nodes present in nodes.
func CheckEdges(nodes []Node, edges []Edge) error {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("%w: source %q", ErrDanglingEdge, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("%w: target %q", ErrDanglingEdge, e.Target)
		}
	}
	return nil
}

// CheckAcyclic checks that the edges don't form a cycle using DFS.
func CheckAcyclic(nodes []Node, edges []Edge) error {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int)
	order := make([]string, 0, len(nodes))
	add := func(id string) {
		if _, ok := state[id]; !ok {
			state[id] = unvisited
			order = append(order, id)
		}
	}
	for _, n := range nodes {
		add(n.ID)
	}
	// Also include nodes referenced only in edges.
	for _, e := range edges {
		add(e.Source)
		add(e.Target)
	}

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for _, id := range order {
		if state[id] == unvisited && dfs(id) {
			return ErrCycleDetected
		}
	}

	return nil
}
