package budget

import (
	"strings"
	"testing"
)

func TestNewContextIsEmpty(t *testing.T) {
	c := NewContext()
	if c.Len() != 0 {
		t.Errorf("Expected empty context, got %d fields", c.Len())
	}
	if c.Serialize() != "" {
		t.Errorf("Expected empty serialization, got %q", c.Serialize())
	}
}

func TestSetPreservesOrderOnReplace(t *testing.T) {
	c := NewContext()
	c.SetText("first", "a")
	c.SetText("second", "b")
	c.SetText("first", "updated")

	fields := c.Fields()
	if len(fields) != 2 {
		t.Fatalf("Expected 2 fields, got %d", len(fields))
	}
	if fields[0].Name != "first" || fields[0].Value != "updated" {
		t.Errorf("Expected first field updated in place, got %+v", fields[0])
	}
	if fields[1].Name != "second" {
		t.Errorf("Expected second field unchanged, got %+v", fields[1])
	}
}

func TestSetFilesJoinsWithNewlines(t *testing.T) {
	c := NewContext()
	c.SetFiles(FieldActiveFiles, []string{"main.go", "util.go"})

	field, ok := c.Get(FieldActiveFiles)
	if !ok {
		t.Fatal("Expected active_files field to exist")
	}
	if field.Kind != KindFileList {
		t.Errorf("Expected file-list kind, got %s", field.Kind)
	}
	if field.Value != "main.go\nutil.go" {
		t.Errorf("Unexpected joined value: %q", field.Value)
	}
}

func TestSerializeIsDeterministic(t *testing.T) {
	c := NewContext()
	c.SetText("alpha", "one")
	c.SetText("beta", "two")

	first := c.Serialize()
	second := c.Serialize()
	if first != second {
		t.Error("Expected identical serialization on repeated calls")
	}
	if !strings.HasPrefix(first, "alpha: one\n") {
		t.Errorf("Expected declaration order preserved, got %q", first)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := NewContext()
	c.SetText("field", "value")

	clone := c.Clone()
	clone.SetText("field", "changed")
	clone.SetText("extra", "new")

	original, _ := c.Get("field")
	if original.Value != "value" {
		t.Errorf("Clone mutation leaked into original: %q", original.Value)
	}
	if c.Len() != 1 {
		t.Errorf("Expected original to keep 1 field, got %d", c.Len())
	}
}

func TestRemove(t *testing.T) {
	c := NewContext()
	c.SetText("keep", "a")
	c.SetText("drop", "b")

	if !c.Remove("drop") {
		t.Error("Expected Remove to report success for existing field")
	}
	if c.Remove("drop") {
		t.Error("Expected Remove to report failure for missing field")
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 field after removal, got %d", c.Len())
	}
}

func TestDropRank(t *testing.T) {
	if DropRank(FieldConversationHistory) >= DropRank(FieldActiveFiles) {
		t.Error("Expected conversation history to be dropped before active files")
	}
	if DropRank(FieldActiveFiles) >= DropRank(FieldProjectSummary) {
		t.Error("Expected active files to be dropped before project summary")
	}
	if DropRank(FieldProjectSummary) >= DropRank(FieldDirective) {
		t.Error("Expected project summary to be dropped before the directive")
	}
	if DropRank("custom_field") <= DropRank(FieldConversationHistory) {
		t.Error("Expected unknown fields to outrank conversation history")
	}
}
