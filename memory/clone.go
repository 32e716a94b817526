package memory

import "github.com/meikuraledutech/walletflow"

func cloneFlow(f walletflow.Flow) walletflow.Flow {
	out := f
	out.Nodes = make([]walletflow.Node, len(f.Nodes))
	for i, n := range f.Nodes {
		out.Nodes[i] = cloneNode(n)
	}
	out.Edges = append(make([]walletflow.Edge, 0, len(f.Edges)), f.Edges...)
	if f.Metadata != nil {
		m := *f.Metadata
		out.Metadata = &m
	}
	return out
}

func cloneNode(n walletflow.Node) walletflow.Node {
	out := n
	if n.Position != nil {
		p := *n.Position
		out.Position = &p
	}
	if n.Data != nil {
		out.Data = cloneValue(n.Data).(map[string]any)
	}
	return out
}

func cloneProgram(p walletflow.CompiledProgram) walletflow.CompiledProgram {
	out := p
	out.Instructions = make([]walletflow.Instruction, len(p.Instructions))
	for i, ins := range p.Instructions {
		out.Instructions[i] = ins
		if ins.Data != nil {
			out.Instructions[i].Data = cloneValue(ins.Data).(map[string]any)
		}
	}
	return out
}

// cloneValue deep-copies the maps and slices of a decoded JSON value.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
