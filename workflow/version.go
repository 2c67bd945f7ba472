package workflow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// ValidVersion reports whether v matches the N.X version format.
func ValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}

// ParseVersion splits an N.X version string into its components.
func ParseVersion(v string) (major, minor int, err error) {
	if !ValidVersion(v) {
		return 0, 0, fmt.Errorf("version must be N.X format, got %q", v)
	}
	dot := strings.IndexByte(v, '.')
	major, _ = strconv.Atoi(v[:dot])
	minor, _ = strconv.Atoi(v[dot+1:])
	return major, minor, nil
}

// IsMajorVersion reports whether v is an X.0 version, meaning the
// document has been effective at least once when X >= 1.
func IsMajorVersion(v string) bool {
	_, minor, err := ParseVersion(v)
	return err == nil && minor == 0
}

// BumpMajor increments the major component and resets the minor
// (N.X -> N+1.0). Applied on approval.
func BumpMajor(v string) (string, error) {
	major, _, err := ParseVersion(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.0", major+1), nil
}

// BumpMinor increments the minor component (N.X -> N.X+1). Applied on
// checkout from an effective version.
func BumpMinor(v string) (string, error) {
	major, minor, err := ParseVersion(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d", major, minor+1), nil
}
