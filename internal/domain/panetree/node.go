package panetree

import (
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/menuterm/backend/internal/shared/id"
)

// Direction is the axis a branch splits along
type Direction int

const (
	// Horizontal places children side by side
	Horizontal Direction = iota
	// Vertical stacks children top to bottom
	Vertical
)

// String returns the string representation of the direction
func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// ParseDirection converts "horizontal" or "vertical" to a Direction
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	default:
		return 0, fmt.Errorf("invalid direction: %q", s)
	}
}

// MarshalJSON encodes the direction as its name
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a direction name
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Node is a pane tree node: either *Leaf or *Branch
type Node interface {
	NodeID() string
	node()
}

// Leaf is a concrete terminal pane. SessionID is empty until its PTY session exists.
type Leaf struct {
	ID        string
	SessionID string
}

// Branch is a split container. Ratio is First's share along Direction; Second gets 1-Ratio.
type Branch struct {
	ID        string
	Direction Direction
	Ratio     float64
	First     Node
	Second    Node
}

func (l *Leaf) NodeID() string   { return l.ID }
func (b *Branch) NodeID() string { return b.ID }

func (*Leaf) node()   {}
func (*Branch) node() {}

// NewLeaf creates a leaf with a freshly generated pane id
func NewLeaf() *Leaf {
	return &Leaf{ID: id.NewPaneID().String()}
}

// NewBranch creates a branch with a freshly generated id
func NewBranch(direction Direction, first, second Node, ratio float64) *Branch {
	return &Branch{
		ID:        id.NewBranchID().String(),
		Direction: direction,
		Ratio:     ratio,
		First:     first,
		Second:    second,
	}
}

// with returns b if nothing differs, otherwise a copy carrying the new values
func (b *Branch) with(ratio float64, first, second Node) *Branch {
	if ratio == b.Ratio && first == b.First && second == b.Second {
		return b
	}
	return &Branch{
		ID:        b.ID,
		Direction: b.Direction,
		Ratio:     ratio,
		First:     first,
		Second:    second,
	}
}

type leafJSON struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	SessionID *string `json:"session_id"`
}

type branchJSON struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Direction Direction       `json:"direction"`
	Ratio     float64         `json:"ratio"`
	First     json.RawMessage `json:"first"`
	Second    json.RawMessage `json:"second"`
}

// MarshalJSON encodes the leaf with a "type" tag; an unset session is null
func (l *Leaf) MarshalJSON() ([]byte, error) {
	out := leafJSON{Type: "leaf", ID: l.ID}
	if l.SessionID != "" {
		sid := l.SessionID
		out.SessionID = &sid
	}
	return json.Marshal(out)
}

// MarshalJSON encodes the branch and both subtrees
func (b *Branch) MarshalJSON() ([]byte, error) {
	first, err := json.Marshal(b.First)
	if err != nil {
		return nil, err
	}
	second, err := json.Marshal(b.Second)
	if err != nil {
		return nil, err
	}
	return json.Marshal(branchJSON{
		Type:      "branch",
		ID:        b.ID,
		Direction: b.Direction,
		Ratio:     b.Ratio,
		First:     first,
		Second:    second,
	})
}

// Unmarshal decodes a tree produced by MarshalJSON
func Unmarshal(data []byte) (Node, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}

	switch head.Type {
	case "leaf":
		var l leafJSON
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("failed to decode leaf: %w", err)
		}
		leaf := &Leaf{ID: l.ID}
		if l.SessionID != nil {
			leaf.SessionID = *l.SessionID
		}
		return leaf, nil
	case "branch":
		var b branchJSON
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to decode branch: %w", err)
		}
		first, err := Unmarshal(b.First)
		if err != nil {
			return nil, err
		}
		second, err := Unmarshal(b.Second)
		if err != nil {
			return nil, err
		}
		return &Branch{ID: b.ID, Direction: b.Direction, Ratio: b.Ratio, First: first, Second: second}, nil
	default:
		return nil, fmt.Errorf("unknown node type: %q", head.Type)
	}
}
