package compiler

import (
	"strconv"

	"github.com/meikuraledutech/walletflow"
)

// flowFromDocument builds a Flow from a decoded document the validator accepted.
// Numbers in string fields are formatted; values of any other wrong type read as empty.
func flowFromDocument(doc map[string]any) *walletflow.Flow {
	f := &walletflow.Flow{
		ID:      text(doc["id"]),
		Version: text(doc["version"]),
		Network: walletflow.Network(text(doc["network"])),
	}

	nodes, _ := doc["nodes"].([]any)
	f.Nodes = make([]walletflow.Node, 0, len(nodes))
	for _, raw := range nodes {
		n, _ := raw.(map[string]any)
		data, _ := n["data"].(map[string]any)
		f.Nodes = append(f.Nodes, walletflow.Node{
			ID:       text(n["id"]),
			Type:     walletflow.NodeType(text(n["type"])),
			Position: position(n["position"]),
			Data:     data,
		})
	}

	edges, _ := doc["edges"].([]any)
	f.Edges = make([]walletflow.Edge, 0, len(edges))
	for _, raw := range edges {
		e, _ := raw.(map[string]any)
		f.Edges = append(f.Edges, walletflow.Edge{
			ID:           text(e["id"]),
			Source:       text(e["source"]),
			Target:       text(e["target"]),
			SourceHandle: text(e["sourceHandle"]),
			TargetHandle: text(e["targetHandle"]),
		})
	}
	return f
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func position(v any) *walletflow.Position {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	x, _ := m["x"].(float64)
	y, _ := m["y"].(float64)
	return &walletflow.Position{X: x, Y: y}
}
