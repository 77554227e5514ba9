package dot

import (
	"fmt"
	"sort"
	"strings"
)

// attributesToString renders attribs in key order. Values wrapped in <> are
// HTML labels and are written unquoted.
func attributesToString(attribs map[string]string) string {
	if len(attribs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attribs))
	for k := range attribs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]string, 0, len(keys))
	for _, k := range keys {
		v := attribs[k]
		if len(v) > 1 && v[0] == '<' && v[len(v)-1] == '>' {
			list = append(list, fmt.Sprintf(`%s=%s`, k, v))
		} else {
			list = append(list, fmt.Sprintf(`%s="%s"`, k, escape(v)))
		}
	}
	return " [" + strings.Join(list, ", ") + "]"
}

func escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return strings.ReplaceAll(v, "\n", `\n`)
}
