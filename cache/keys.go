package cache

import (
	"fmt"
	"strings"
)

// Key builds a deterministic cache key from a resource family name and the
// full effective parameter set of a read. Distinct queries never collide;
// invalidating the family name alone sweeps every keyed variant.
//
// The separator is escaped inside each part, so a caller-supplied string
// containing ':' cannot alias the key of a differently-shaped read.
func Key(family string, parts ...interface{}) string {
	if len(parts) == 0 {
		return family
	}
	b := strings.Builder{}
	b.WriteString(family)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(escapePart(fmt.Sprintf("%v", p)))
	}
	return b.String()
}

func escapePart(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, ":", "%3A")
}
