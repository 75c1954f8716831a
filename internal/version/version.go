// Package version holds the front end's own release identity, exposed to
// preprocessed sources through the __VERSION__ family of built-in macros.
package version

import "fmt"

const (
	Major = 1
	Minor = 3
	Patch = 0
)

// Numeric encodes Major/Minor/Patch into the MMmmpp integer form used by
// the __VERSION__ built-in.
func Numeric() int64 {
	return int64(Major)*10000 + int64(Minor)*100 + int64(Patch)
}

// String returns the dotted "major.minor.patch" form used by __VERSION_STR__.
func String() string {
	return fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}
