package xmldoc

import "strings"

// nsPrefix splits "prefix:local" into its prefix, reporting whether a
// prefix was present.
func nsPrefix(name string) (prefix string, found bool) {
	i := strings.IndexByte(name, ':')
	if i < 0 {
		return "", false
	}
	return name[:i], true
}
