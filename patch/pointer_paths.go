package patch

import (
	"encoding/json"
	"reflect"
	"strings"
)

// AllJSONPointerPaths lists the pointer of every exported field of T, nested
// structs included.
func AllJSONPointerPaths[T any]() []string {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return []string{}
	}

	paths := make([]string, 0)
	collectPaths(typ, "", &paths, map[reflect.Type]bool{})
	return paths
}

func collectPaths(typ reflect.Type, prefix string, paths *[]string, visited map[reflect.Type]bool) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct || visited[typ] {
		return
	}
	visited[typ] = true
	defer delete(visited, typ)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonFieldName(field)
		if name == "-" {
			continue
		}
		path := prefix + "/" + name
		*paths = append(*paths, path)
		collectPaths(field.Type, path, paths, visited)
	}
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

// EmptyPaths returns the top level pointers of T whose value in current is
// unset. Together with ValidatePatchOperations it keeps fields write-once.
func EmptyPaths[T any](current T) (map[string]bool, error) {
	data, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	empty := make(map[string]bool)
	for _, path := range AllJSONPointerPaths[T]() {
		if strings.Count(path, "/") != 1 {
			continue
		}
		value, ok := doc[path[1:]]
		if !ok || value == nil || value == "" {
			empty[path] = true
		}
	}
	return empty, nil
}
