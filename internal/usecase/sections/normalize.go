package sections

import (
	"fmt"
	"sort"
	"strings"
)

// Normalize flattens a draft value into the display string that gets
// approved. This happens exactly once, at approval time; drafts keep
// their raw structure so later merges still see it.
//
//	map  -> one "key: value" line per entry
//	list -> one "• item" bullet per element
//	nil  -> empty string
//	else -> fmt.Sprint
func Normalize(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, Normalize(v[k])))
		}
		return strings.Join(lines, "\n")
	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			lines = append(lines, "• "+Normalize(item))
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprint(v)
	}
}
