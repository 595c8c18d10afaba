package domain

import (
	"sort"
	"strings"
)

const TagName = "Name"

// Tags maps tag key to tag value.
type Tags map[string]string

// Missing returns every pair of t whose key is absent from target or carries
// a different value there. Keys that only target has are ignored, so a sync
// built on Missing only ever adds or overwrites.
func (t Tags) Missing(target Tags) Tags {
	missing := Tags{}
	for k, v := range t {
		if cur, ok := target[k]; !ok || cur != v {
			missing[k] = v
		}
	}
	return missing
}

func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// WithoutPrefix drops keys starting with any of the given prefixes.
func (t Tags) WithoutPrefix(prefixes ...string) Tags {
	out := Tags{}
outer:
	for k, v := range t {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				continue outer
			}
		}
		out[k] = v
	}
	return out
}

// Keys returns the keys in lexical order.
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
