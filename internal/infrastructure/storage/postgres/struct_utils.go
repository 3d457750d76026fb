package postgres

import (
	"reflect"
	"sync"
)

// column is one "db"-tagged field, addressed through any embedded structs.
type column struct {
	name  string
	index []int
}

var columnCache sync.Map // reflect.Type -> []column

// columnsOf returns the tagged fields of t in declaration order, with
// embedded structs (entity.BaseCatalog, entity.Document) flattened in place.
func columnsOf(t reflect.Type) []column {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}

	var cols []column
	if t.Kind() == reflect.Struct {
		cols = collectColumns(t, nil)
	}
	actual, _ := columnCache.LoadOrStore(t, cols)
	return actual.([]column)
}

func collectColumns(t reflect.Type, prefix []int) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cols = append(cols, collectColumns(f.Type, index)...)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, column{name: tag, index: index})
	}
	return cols
}

// ExtractDBColumns lists the column names of T. Repositories call it once at
// construction.
//
//	columns := ExtractDBColumns[item.Item]()
//	// ["id", "owner_id", "created_at", "updated_at", "version", "name", ...]
func ExtractDBColumns[T any]() []string {
	cols := columnsOf(reflect.TypeFor[T]())
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// StructToMap converts a struct (or pointer to one) to a column map for
// squirrel's SetMap. Untagged fields and fields tagged "-" are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	cols := columnsOf(rv.Type())
	res := make(map[string]any, len(cols))
	for _, c := range cols {
		res[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return res
}
