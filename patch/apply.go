package patch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/homi/types"
)

// ApplySlots writes ops onto a copy of current and returns the copy. Unset
// slots are absent from the document, so replace is sent as add, which
// overwrites an existing member.
func ApplySlots(current *types.ScopingState, ops []Operation) (*types.ScopingState, error) {
	if current == nil {
		current = &types.ScopingState{}
	}
	if len(ops) == 0 {
		next := *current
		return &next, nil
	}

	writes := make([]Operation, 0, len(ops))
	for i, op := range ops {
		if op.Op != OperationAdd && op.Op != OperationReplace {
			return nil, fmt.Errorf("operation %d: op %q is not a slot write", i, op.Op)
		}
		if !isSlotPointer(op.Path) {
			return nil, fmt.Errorf("operation %d: path %q is not a slot", i, op.Path)
		}
		op.Op = OperationAdd
		writes = append(writes, op)
	}

	doc, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current slots: %w", err)
	}
	patchJSON, err := sonic.Marshal(writes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal slot writes: %w", err)
	}
	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode slot writes: %w", err)
	}
	modified, err := p.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to apply slot writes: %w", err)
	}

	var next types.ScopingState
	if err := sonic.Unmarshal(modified, &next); err != nil {
		return nil, fmt.Errorf("slot write is not a string: %w", err)
	}
	return &next, nil
}

// isSlotPointer reports whether path names a top-level member like "/budget".
func isSlotPointer(path string) bool {
	name, ok := strings.CutPrefix(path, "/")
	return ok && name != "" && !strings.Contains(name, "/")
}
