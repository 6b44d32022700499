package document

import "strings"

// Classes builds a class attribute value. It accepts strings (which may
// hold several space separated classes), string slices, nested []any and
// bools; nil and false are skipped. Duplicates keep their first position.
func Classes(values ...any) string {
	seen := make(map[string]struct{})
	var out []string

	var add func(v any)
	add = func(v any) {
		switch v := v.(type) {
		case string:
			for _, class := range strings.Fields(v) {
				if _, dup := seen[class]; dup {
					continue
				}
				seen[class] = struct{}{}
				out = append(out, class)
			}
		case []string:
			for _, s := range v {
				add(s)
			}
		case []any:
			for _, item := range v {
				add(item)
			}
		}
	}
	for _, v := range values {
		add(v)
	}

	return strings.Join(out, " ")
}

// when returns classes if cond holds, else nil.
func when(cond bool, classes ...string) any {
	if !cond {
		return nil
	}
	return classes
}
