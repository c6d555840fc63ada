package engine

import (
	"context"
	"fmt"

	"vcreport/internal/vcast"
)

// FunctionRecord is one discovered testable function. Ordinal preserves the
// tool's listing order, which downstream stages must not reshuffle.
type FunctionRecord struct {
	Name    string
	Ordinal int
}

// enumerateFunctions queries the tool for the environment's testable
// functions. The tool already deduplicates and strips sentinels; the checks
// here defend the downstream invariants against a misbehaving implementation.
func enumerateFunctions(ctx context.Context, tool vcast.Tool, env vcast.Environment) ([]FunctionRecord, error) {
	names, err := tool.ListFunctions(ctx, env)
	if err != nil {
		return nil, &EnumerationError{
			Reason: fmt.Sprintf("listing functions for environment %s: %v", env.Name, err),
			Err:    err,
		}
	}
	seen := map[string]bool{}
	records := make([]FunctionRecord, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		records = append(records, FunctionRecord{Name: name, Ordinal: len(records)})
	}
	if len(records) == 0 {
		return nil, &EnumerationError{
			Reason: fmt.Sprintf("environment %s defines no testable functions", env.Name),
		}
	}
	return records, nil
}
