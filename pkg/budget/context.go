// Package budget provides token estimation and budget-driven context
// reduction for LLM prompt assembly.
package budget

import (
	"strings"
)

// FieldKind describes the semantic type of a context field value.
type FieldKind string

const (
	// KindText is a free-form text block (conversation history, instructions).
	KindText FieldKind = "text"

	// KindFileList is a newline-joined list of file references.
	KindFileList FieldKind = "files"

	// KindSummary is an already-condensed text block.
	KindSummary FieldKind = "summary"
)

// Well-known field names with defined drop priorities.
const (
	FieldConversationHistory = "conversation_history"
	FieldActiveFiles         = "active_files"
	FieldProjectSummary      = "project_summary"
	FieldDirective           = "optimization_directive"
)

// dropPriority ranks fields for the drop-fields strategy. Lower values are
// dropped first. Unknown field names sit between conversation history and
// the active file list.
//
//nolint:gochecknoglobals // static priority table, not mutable state
var dropPriority = map[string]int{
	FieldConversationHistory: 0,
	FieldActiveFiles:         2,
	FieldProjectSummary:      3,
	FieldDirective:           4,
}

const unknownFieldPriority = 1

// DropRank returns the drop priority for a field name. Lower ranks are
// dropped first.
func DropRank(name string) int {
	if rank, ok := dropPriority[name]; ok {
		return rank
	}
	return unknownFieldPriority
}

// Field is a single named value inside a Context.
type Field struct {
	Name  string    `json:"name"`
	Kind  FieldKind `json:"kind"`
	Value string    `json:"value"`
}

// Context is an ordered collection of named fields. Field names are unique;
// setting an existing name replaces the value in place, preserving order.
// A Context is owned by the caller that constructs it; the optimizer never
// retains a reference after returning.
type Context struct {
	fields []Field
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{fields: make([]Field, 0)}
}

// Set adds or replaces a field. Replacement keeps the field's position.
func (c *Context) Set(field Field) {
	for i := range c.fields {
		if c.fields[i].Name == field.Name {
			c.fields[i] = field
			return
		}
	}
	c.fields = append(c.fields, field)
}

// SetText adds or replaces a text field.
func (c *Context) SetText(name, value string) {
	c.Set(Field{Name: name, Kind: KindText, Value: value})
}

// SetFiles adds or replaces a file-list field. Files are newline-joined so
// estimation and truncation see one deterministic value.
func (c *Context) SetFiles(name string, files []string) {
	c.Set(Field{Name: name, Kind: KindFileList, Value: strings.Join(files, "\n")})
}

// SetSummary adds or replaces a summary field.
func (c *Context) SetSummary(name, value string) {
	c.Set(Field{Name: name, Kind: KindSummary, Value: value})
}

// Get returns the field with the given name.
func (c *Context) Get(name string) (Field, bool) {
	for i := range c.fields {
		if c.fields[i].Name == name {
			return c.fields[i], true
		}
	}
	return Field{}, false
}

// Remove deletes the named field. Returns whether the field existed.
func (c *Context) Remove(name string) bool {
	for i := range c.fields {
		if c.fields[i].Name == name {
			c.fields = append(c.fields[:i], c.fields[i+1:]...)
			return true
		}
	}
	return false
}

// Fields returns a copy of the fields in declaration order.
func (c *Context) Fields() []Field {
	result := make([]Field, len(c.fields))
	copy(result, c.fields)
	return result
}

// Len returns the number of fields.
func (c *Context) Len() int {
	return len(c.fields)
}

// Clone returns a deep copy. Strategies operate on clones so the caller's
// context is never mutated.
func (c *Context) Clone() *Context {
	clone := &Context{fields: make([]Field, len(c.fields))}
	copy(clone.fields, c.fields)
	return clone
}

// Serialize produces the deterministic text form used for estimation:
// fields in declaration order, one "name: value" line per field.
func (c *Context) Serialize() string {
	var sb strings.Builder
	for i := range c.fields {
		sb.WriteString(c.fields[i].Name)
		sb.WriteString(": ")
		sb.WriteString(c.fields[i].Value)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ValueBytes returns the total byte length of all field values.
func (c *Context) ValueBytes() int {
	total := 0
	for i := range c.fields {
		total += len(c.fields[i].Value)
	}
	return total
}
