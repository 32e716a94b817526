package walletflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func nodes(ids ...string) []Node {
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, Node{ID: id, Type: NodeWallet})
	}
	return out
}

func TestCheckAcyclic(t *testing.T) {
	tests := []struct {
		name    string
		edges   []Edge
		wantErr bool
	}{
		{"no edges", nil, false},
		{"chain", []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}}, false},
		{"diamond", []Edge{{Source: "a", Target: "b"}, {Source: "a", Target: "c"}, {Source: "b", Target: "d"}, {Source: "c", Target: "d"}}, false},
		{"self loop", []Edge{{Source: "a", Target: "a"}}, true},
		{"triangle", []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "c", Target: "a"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAcyclic(nodes("a", "b", "c", "d"), tt.edges)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCycleDetected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckEdges(t *testing.T) {
	assert.NoError(t, CheckEdges(nodes("a", "b"), []Edge{{Source: "a", Target: "b"}}))

	err := CheckEdges(nodes("a"), []Edge{{Source: "a", Target: "zz"}})
	assert.ErrorIs(t, err, ErrDanglingEdge)
	assert.Contains(t, err.Error(), `target "zz"`)

	err = CheckEdges(nodes("a"), []Edge{{Source: "q", Target: "a"}})
	assert.ErrorIs(t, err, ErrDanglingEdge)
	assert.Contains(t, err.Error(), `source "q"`)
}
