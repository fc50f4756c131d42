package patch

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// GeneratePatchesFromInitial returns the ops that copy every non-zero top level
// value of initial into current.
func GeneratePatchesFromInitial[T any](current, initial T) ([]Operation, error) {
	currentMap, err := toMap(current)
	if err != nil {
		return nil, fmt.Errorf("failed to convert current state: %w", err)
	}
	initialMap, err := toMap(initial)
	if err != nil {
		return nil, fmt.Errorf("failed to convert initial state: %w", err)
	}

	ops := make([]Operation, 0)
	for _, path := range AllJSONPointerPaths[T]() {
		key := path[1:]
		initialValue, ok := initialMap[key]
		if !ok || isZeroValue(initialValue) {
			continue
		}
		currentValue, exists := currentMap[key]
		switch {
		case !exists:
			ops = append(ops, Operation{Op: OperationAdd, Path: path, Value: initialValue})
		case !reflect.DeepEqual(currentValue, initialValue):
			ops = append(ops, Operation{Op: OperationReplace, Path: path, Value: initialValue})
		}
	}
	return ops, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isZeroValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
