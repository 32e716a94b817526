package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/walletflow"
)

// Mode selects how much of a flow's shape is checked before compilation.
type Mode int

const (
	// ModeBasic only requires a nodes sequence, as the compile endpoint always did.
	ModeBasic Mode = iota
	// ModeStrict checks every required field, duplicate ids and dangling edges.
	ModeStrict
)

// ParseMode maps "strict" to ModeStrict and anything else to ModeBasic.
func ParseMode(s string) Mode {
	if s == "strict" {
		return ModeStrict
	}
	return ModeBasic
}

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "basic"
}

// ValidationResult is either OK or an ordered, non-empty list of problems.
type ValidationResult struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// Err returns a *StructuralError for a failed result, nil otherwise.
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return &StructuralError{Errors: r.Errors}
}

func result(errs []string) ValidationResult {
	if len(errs) == 0 {
		return ValidationResult{OK: true, Errors: []string{}}
	}
	return ValidationResult{Errors: errs}
}

// ValidateFlow parses raw as JSON and checks its structure.
// Input that does not parse yields the single error "Invalid JSON format".
func ValidateFlow(raw []byte, mode Mode) ValidationResult {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return result([]string{MsgInvalidJSON})
	}
	doc, _ := v.(map[string]any)
	return ValidateDocument(doc, mode)
}

// ValidateDocument checks an already decoded flow document. A nil document is read as
// an empty one. Every node and edge is visited once and all problems are accumulated.
func ValidateDocument(doc map[string]any, mode Mode) ValidationResult {
	if mode != ModeStrict {
		if _, ok := doc["nodes"].([]any); !ok {
			return result([]string{MsgInvalidStructure})
		}
		return result(nil)
	}

	var errs []string
	if !truthy(doc["version"]) {
		errs = append(errs, "Missing version field")
	}
	if !truthy(doc["network"]) {
		errs = append(errs, "Missing network field")
	} else if s, ok := doc["network"].(string); !ok || !walletflow.Network(s).Valid() {
		errs = append(errs, fmt.Sprintf("Invalid network %q", fmt.Sprint(doc["network"])))
	}
	nodes, nodesOK := doc["nodes"].([]any)
	if !nodesOK {
		errs = append(errs, "Missing or invalid nodes array")
	}
	edges, edgesOK := doc["edges"].([]any)
	if !edgesOK {
		errs = append(errs, "Missing or invalid edges array")
	}

	ids := make(map[string]struct{}, len(nodes))
	for i, raw := range nodes {
		node, _ := raw.(map[string]any)
		switch id := node["id"]; {
		case !truthy(id):
			errs = append(errs, fmt.Sprintf("Node %d: Missing id", i))
		default:
			s, ok := id.(string)
			if !ok {
				errs = append(errs, fmt.Sprintf("Node %d: Invalid id", i))
				break
			}
			if _, dup := ids[s]; dup {
				errs = append(errs, fmt.Sprintf("Node %d: Duplicate id %q", i, s))
			}
			ids[s] = struct{}{}
		}
		switch t := node["type"]; {
		case !truthy(t):
			errs = append(errs, fmt.Sprintf("Node %d: Missing type", i))
		default:
			if _, ok := t.(string); !ok {
				errs = append(errs, fmt.Sprintf("Node %d: Invalid type", i))
			}
		}
		switch d := node["data"]; {
		case !truthy(d):
			errs = append(errs, fmt.Sprintf("Node %d: Missing data", i))
		default:
			if _, ok := d.(map[string]any); !ok {
				errs = append(errs, fmt.Sprintf("Node %d: Invalid data", i))
			}
		}
	}

	for i, raw := range edges {
		edge, _ := raw.(map[string]any)
		errs = append(errs, checkEndpoint(edge, "source", i, ids, nodesOK)...)
		errs = append(errs, checkEndpoint(edge, "target", i, ids, nodesOK)...)
	}

	return result(errs)
}

func checkEndpoint(edge map[string]any, key string, i int, ids map[string]struct{}, resolve bool) []string {
	v := edge[key]
	if !truthy(v) {
		return []string{fmt.Sprintf("Edge %d: Missing %s", i, key)}
	}
	s, ok := v.(string)
	if !ok {
		return []string{fmt.Sprintf("Edge %d: Invalid %s", i, key)}
	}
	if !resolve {
		return nil
	}
	if _, ok := ids[s]; !ok {
		return []string{fmt.Sprintf("Edge %d: Unknown %s %q", i, key, s)}
	}
	return nil
}

// Check validates a typed flow with the same rules as ValidateFlow.
func Check(f *walletflow.Flow, mode Mode) ValidationResult {
	if f == nil {
		return result([]string{MsgInvalidStructure})
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return result([]string{MsgInvalidJSON})
	}
	return ValidateFlow(raw, mode)
}

// DecodeFlow validates raw and decodes it into the typed model. Decoding never rejects
// a flow the validator accepted: ill-typed fields are coerced or dropped.
func DecodeFlow(raw []byte, mode Mode) (*walletflow.Flow, ValidationResult) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return nil, result([]string{MsgInvalidJSON})
	}
	doc, _ := v.(map[string]any)
	res := ValidateDocument(doc, mode)
	if !res.OK {
		return nil, res
	}
	return flowFromDocument(doc), res
}

// truthy mirrors the editor's notion of a present value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case json.Number:
		return t != "0" && t != ""
	default:
		return true
	}
}
