package docvalues

import (
	"fmt"

	"go.uber.org/zap"
)

// State is the position of a Cursor relative to the last accepted document.
type State int

const (
	// StateUnpositioned means no advance has been accepted yet.
	StateUnpositioned State = iota
	// StateWithValue means the current document has a value.
	StateWithValue
	// StateWithoutValue means the current document has no value.
	StateWithoutValue
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnpositioned:
		return "unpositioned"
	case StateWithValue:
		return "positioned_with_value"
	case StateWithoutValue:
		return "positioned_without_value"
	default:
		return "unknown"
	}
}

// Cursor drives a BinaryValues accessor forward one requested document at a time.
// Requests that would move the accessor backwards are refused and logged; the
// cursor keeps its previous state. A Cursor is not safe for concurrent use.
type Cursor struct {
	values    BinaryValues
	logger    *zap.Logger
	state     State
	doc       int
	requested int
}

// NewCursor wraps values. A nil logger discards diagnostics.
func NewCursor(values BinaryValues, logger *zap.Logger) *Cursor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cursor{
		values:    values,
		logger:    logger,
		state:     StateUnpositioned,
		doc:       NoDoc,
		requested: NoDoc,
	}
}

// State returns the state of the last accepted advance.
func (c *Cursor) State() State {
	return c.state
}

// Doc returns the document of the last accepted advance, or NoDoc.
func (c *Cursor) Doc() int {
	return c.doc
}

// AdvanceTo positions the cursor on target. It returns false when the request is
// refused because the accessor is already past target. Errors come from the accessor.
func (c *Cursor) AdvanceTo(target int) (bool, error) {
	c.requested = target
	current := c.values.DocID()

	switch {
	case current < target:
		hasValue, err := c.values.AdvanceExact(target)
		if err != nil {
			return false, fmt.Errorf("advance to doc %d: %w", target, err)
		}
		c.doc = target
		if hasValue {
			c.state = StateWithValue
		} else {
			c.state = StateWithoutValue
		}
		return true, nil
	case current == target && c.doc == target && c.state != StateUnpositioned:
		return true, nil
	default:
		c.logger.Error("refusing to advance doc values",
			zap.Int("doc_values_doc", current),
			zap.Int("target_doc", target),
			zap.Int("cursor_doc", c.doc),
		)
		return false, nil
	}
}

// CurrentValue returns the value of the last requested document. ok is false when
// that document has no value, the request was refused, or the accessor has been
// moved since the advance.
func (c *Cursor) CurrentValue() (value []byte, ok bool, err error) {
	if c.state != StateWithValue || c.requested != c.doc {
		return nil, false, nil
	}
	if current := c.values.DocID(); current != c.doc {
		c.logger.Error("doc values moved since advance",
			zap.Int("doc_values_doc", current),
			zap.Int("cursor_doc", c.doc),
		)
		return nil, false, nil
	}
	value, err = c.values.BinaryValue()
	if err != nil {
		return nil, false, fmt.Errorf("read value of doc %d: %w", c.doc, err)
	}
	return value, true, nil
}
