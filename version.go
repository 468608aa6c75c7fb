package ecschema

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a schema version triple. Ordering compares Read, then
// Write, then Minor.
type Version struct {
	Read  int
	Write int
	Minor int
}

// ParseVersion parses "RR.WW.mm" or the short "RR.mm" form.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 && len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q: want RR.WW.mm or RR.mm", s)
	}
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("version %q: invalid component %q", s, part)
		}
		nums[i] = n
	}
	if len(nums) == 2 {
		return Version{Read: nums[0], Minor: nums[1]}, nil
	}
	return Version{Read: nums[0], Write: nums[1], Minor: nums[2]}, nil
}

// Compare returns a negative value when v orders before other, zero
// when equal, positive when after.
func (v Version) Compare(other Version) int {
	if v.Read != other.Read {
		return v.Read - other.Read
	}
	if v.Write != other.Write {
		return v.Write - other.Write
	}
	return v.Minor - other.Minor
}

// String returns the zero-padded "RR.WW.mm" form.
func (v Version) String() string {
	return fmt.Sprintf("%02d.%02d.%02d", v.Read, v.Write, v.Minor)
}
