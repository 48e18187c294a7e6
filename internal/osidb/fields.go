package osidb

import (
	"fmt"
	"strconv"
	"strings"
)

// PathSeparator joins the segments of a field path, the way OSIDB query
// parameters spell nested fields (affects__trackers__ps_update_stream).
const PathSeparator = "__"

// FieldValues walks path through the flaw and returns every scalar it
// reaches, rendered as text. Arrays fan out: each element is walked with
// the rest of the path. Missing keys and nulls contribute nothing.
func FieldValues(f Flaw, path string) []string {
	var out []string
	walk(map[string]any(f), strings.Split(path, PathSeparator), &out)
	return out
}

// FieldValue is FieldValues joined with ", ", for substring checks.
func FieldValue(f Flaw, path string) string {
	return strings.Join(FieldValues(f, path), ", ")
}

func walk(v any, path []string, out *[]string) {
	switch x := v.(type) {
	case nil:
		return
	case []any:
		for _, e := range x {
			walk(e, path, out)
		}
		return
	case map[string]any:
		if len(path) == 0 {
			return
		}
		walk(x[path[0]], path[1:], out)
		return
	}
	if len(path) == 0 {
		*out = append(*out, render(v))
	}
}

func render(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
