// Package oscquery advertises the control socket so VRChat sends avatar
// parameters to it, using the OSCQuery HTTP surface and DNS-SD.
package oscquery

import (
	"sort"
	"strings"

	"github.com/AymNine/vrc-osc-scripts/internal/osc"
	"github.com/AymNine/vrc-osc-scripts/internal/store"
)

// Access values from the OSCQuery proposal.
const (
	AccessNone  = 0
	AccessRead  = 1
	AccessWrite = 2
	AccessRW    = 3
)

// Param is one advertised OSC method.
type Param struct {
	Address     string
	Type        string
	Description string
}

// Node is an element of the OSCQuery address space.
type Node struct {
	FullPath    string           `json:"FULL_PATH"`
	Access      int              `json:"ACCESS"`
	Type        string           `json:"TYPE,omitempty"`
	Description string           `json:"DESCRIPTION,omitempty"`
	Contents    map[string]*Node `json:"CONTENTS,omitempty"`
}

// Parameters lists MuteSelf and one node per runtime config key.
func Parameters(cfg *store.Store) []Param {
	params := []Param{{Address: osc.MuteSelfAddress, Type: "T", Description: "mic mute state"}}
	for _, key := range cfg.Keys() {
		v, _ := cfg.Get(key)
		params = append(params, Param{Address: osc.ConfigAddress(key), Type: typeTag(v), Description: key})
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Address < params[j].Address })
	return params
}

func typeTag(v any) string {
	switch v.(type) {
	case bool:
		return "T"
	case int, int32, int64:
		return "i"
	case float32, float64:
		return "f"
	default:
		return "s"
	}
}

// BuildTree arranges params into a node tree rooted at "/".
func BuildTree(params []Param) *Node {
	root := &Node{FullPath: "/", Access: AccessNone}
	for _, p := range params {
		n := root
		path := ""
		for _, part := range splitPath(p.Address) {
			path += "/" + part
			if n.Contents == nil {
				n.Contents = make(map[string]*Node)
			}
			child, ok := n.Contents[part]
			if !ok {
				child = &Node{FullPath: path, Access: AccessNone}
				n.Contents[part] = child
			}
			n = child
		}
		n.Access = AccessWrite
		n.Type = p.Type
		n.Description = p.Description
	}
	return root
}

// Lookup returns the node at path.
func (n *Node) Lookup(path string) (*Node, bool) {
	cur := n
	for _, part := range splitPath(path) {
		next, ok := cur.Contents[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
