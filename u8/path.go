package u8

import "strings"

// NormalizePath converts a user-provided archive path to the form used by
// Archive methods.
//
// It performs the following transformations:
//   - Strips leading slashes: "/arc/anim" → "arc/anim"
//   - Strips trailing slashes: "arc/anim/" → "arc/anim"
//   - Collapses consecutive slashes: "arc//anim" → "arc/anim"
//   - Converts the root ("" or "/") to ""
//
// Elements such as "." and ".." are kept as literal names; U8 has no notion
// of relative paths.
func NormalizePath(p string) string {
	return strings.Join(splitPath(p), "/")
}

// splitPath returns the non-empty components of p.
func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// joinPath joins a directory path and a name.
func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// FoldName returns name with ASCII letters lower-cased. Two names are the
// same node name when they fold to the same string; like the console's
// loader, only ASCII letters compare case-insensitively.
func FoldName(name string) string {
	for i := 0; i < len(name); i++ {
		if c := name[i]; 'A' <= c && c <= 'Z' {
			b := []byte(name)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return name
}

// sameName reports whether x and y name the same node.
func sameName(x, y string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		if lowerASCII(x[i]) != lowerASCII(y[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// validName reports whether name can be stored in the string table.
func validName(name string) bool {
	return name != "" && !strings.ContainsRune(name, 0)
}
