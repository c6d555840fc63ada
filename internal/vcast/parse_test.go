package vcast

import (
	"strings"
	"testing"
)

const sampleListing = `-- VectorCAST 2024
-- Test Case Script
--
-- Environment    : CALC
-- Unit(s) Under Test: calc
--
-- Script Features
TEST.SCRIPT_FEATURE:C_DIRECT_ARRAY_INDEXING
--

-- Unit: calc

-- Subprogram: add

TEST.UNIT:calc
TEST.SUBPROGRAM:add
TEST.NEW
TEST.NAME:add.001
TEST.END

-- SUBPROGRAM: subtract

TEST.UNIT:calc
TEST.SUBPROGRAM:subtract
TEST.NEW
TEST.NAME:subtract.001
TEST.END

-- Subprogram: add

-- Subprogram: <<COMPOUND>>

-- Subprogram: <<INIT>>

-- end of script
`

func TestParseSubprograms_StructuralRule(t *testing.T) {
	got, err := ParseSubprograms(strings.NewReader(sampleListing))
	if err != nil {
		t.Fatalf("ParseSubprograms: %v", err)
	}
	want := []string{"add", "subtract"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestParseSubprograms_EmptyListing(t *testing.T) {
	got, err := ParseSubprograms(strings.NewReader("-- header only\n-- footer\n"))
	if err != nil {
		t.Fatalf("ParseSubprograms: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v want empty", got)
	}
}

func TestParseSubprograms_IndentedAndCaseInsensitive(t *testing.T) {
	in := "   --   subprogram:   deep_fn\n"
	got, err := ParseSubprograms(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseSubprograms: %v", err)
	}
	if len(got) != 1 || got[0] != "deep_fn" {
		t.Fatalf("got %v want [deep_fn]", got)
	}
}

func TestParseSubprograms_DoesNotMatchTestDirectives(t *testing.T) {
	// TEST.SUBPROGRAM payload lines are not listing entries.
	in := "TEST.SUBPROGRAM:add\nSubprogram: add\n"
	got, err := ParseSubprograms(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseSubprograms: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v want empty", got)
	}
}
