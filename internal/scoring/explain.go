package scoring

import (
	"fmt"
	"strings"
)

// Explanation describes how a score was computed, as a tree.
type Explanation struct {
	Value       float64        `json:"value"`
	Description string         `json:"description"`
	Details     []*Explanation `json:"details,omitempty"`
}

// Match builds an explanation node.
func Match(value float64, description string, details ...*Explanation) *Explanation {
	return &Explanation{Value: value, Description: description, Details: details}
}

// String renders the tree, one node per line, children indented.
func (e *Explanation) String() string {
	var b strings.Builder
	e.write(&b, 0)
	return b.String()
}

func (e *Explanation) write(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%s%g = %s\n", strings.Repeat("  ", depth), e.Value, e.Description)
	for _, d := range e.Details {
		d.write(b, depth+1)
	}
}
