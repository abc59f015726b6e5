package schemakit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cgalavis/schemakit/schemaerr"
)

// Version is a "major.minor.revision" schema version.
type Version struct {
	Major, Minor, Revision int
}

// DefaultSupportedVersion is the format version this package understands.
var DefaultSupportedVersion = Version{Major: 1, Minor: 0}

// ParseVersion parses "major.minor.revision". A missing revision or minor
// reads as zero; anything else that is not a non-negative integer fails with
// invalid_version.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if s == "" || len(parts) > 3 {
		return Version{}, schemaerr.Schema(schemaerr.CodeInvalidVersion, "version", s)
	}
	var out [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, schemaerr.Schema(schemaerr.CodeInvalidVersion, "version", s)
		}
		out[i] = n
	}
	return Version{Major: out[0], Minor: out[1], Revision: out[2]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// CompatibleWith reports whether a document at version v can be read by a
// loader supporting version supported: majors must match and v's minor may
// not exceed the supported minor. Revisions are ignored.
func (v Version) CompatibleWith(supported Version) bool {
	return v.Major == supported.Major && v.Minor <= supported.Minor
}

// IsValidVersion reports whether s parses and is compatible with
// DefaultSupportedVersion.
func IsValidVersion(s string) bool {
	v, err := ParseVersion(s)
	return err == nil && v.CompatibleWith(DefaultSupportedVersion)
}
