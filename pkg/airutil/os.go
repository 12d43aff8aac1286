package airutil

import (
	"net/url"

	"github.com/drone/envsubst"
)

func ExpandEnv(s string) string {
	val, _ := envsubst.EvalEnv(s)
	return val
}

// Expand replaces ${var} references in s using the given values.
// Unknown variables expand to an empty string.
func Expand(s string, values map[string]string) (string, error) {
	return envsubst.Eval(s, func(k string) string {
		return values[k]
	})
}

// ExpandURL is the same as Expand, however each value is
// query-escaped before it is substituted into the template.
func ExpandURL(s string, values map[string]string) (string, error) {
	return envsubst.Eval(s, func(k string) string {
		v, ok := values[k]
		if !ok {
			return ""
		}
		return url.QueryEscape(v)
	})
}
