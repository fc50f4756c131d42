package patch

import (
	"fmt"
	"strings"
)

// ValidatePatchOperations checks that every op is an add or replace of a
// non-empty string on an allowed path. An empty allowed set rejects everything.
func ValidatePatchOperations(ops []Operation, allowedPaths map[string]bool) error {
	for i, op := range ops {
		if op.Op != OperationAdd && op.Op != OperationReplace {
			return fmt.Errorf("operation %d: op %q is not allowed on slots", i, op.Op)
		}
		if !allowedPaths[op.Path] {
			return fmt.Errorf("operation %d: path %q is not writable", i, op.Path)
		}
		value, ok := op.Value.(string)
		if !ok || strings.TrimSpace(value) == "" {
			return fmt.Errorf("operation %d: value for %q must be a non-empty string", i, op.Path)
		}
	}
	return nil
}

// FilterAllowed drops the ops that ValidatePatchOperations would reject.
func FilterAllowed(ops []Operation, allowedPaths map[string]bool) []Operation {
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if ValidatePatchOperations([]Operation{op}, allowedPaths) == nil {
			out = append(out, op)
		}
	}
	return out
}
