package convert

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unit multipliers expressed in MiB. VirtualBox, like most hypervisors, counts memory and
// disk in binary megabytes, so the decimal spellings (MB, GB) are read as their binary
// counterparts.
const (
	MiB uint64 = 1
	GiB        = 1024 * MiB
	TiB        = 1024 * GiB
)

var mibUnits = map[string]uint64{
	"":    MiB,
	"M":   MiB,
	"MB":  MiB,
	"MIB": MiB,
	"G":   GiB,
	"GB":  GiB,
	"GIB": GiB,
	"T":   TiB,
	"TB":  TiB,
	"TIB": TiB,
}

var sizeRegex = regexp.MustCompile(`^(\d+)\s*([A-Z]*)$`)

// ParseMiB converts a human size ("12288", "512M", "12G", "2GiB") to MiB. A bare number is
// already MiB. Matching is case-insensitive; zero and negative sizes are rejected.
func ParseMiB(size string) (uint64, error) {
	s := strings.ToUpper(strings.TrimSpace(size))

	m := sizeRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid size format: %q", size)
	}

	value, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse numeric value %q: %w", m[1], err)
	}
	if value == 0 {
		return 0, fmt.Errorf("size must be greater than zero: %q", size)
	}

	mult, ok := mibUnits[m[2]]
	if !ok {
		return 0, fmt.Errorf("unknown size unit: %q", m[2])
	}
	if value > math.MaxUint64/mult {
		return 0, fmt.Errorf("size out of range: %q", size)
	}
	return value * mult, nil
}

// FormatMiB renders MiB the way ParseMiB accepts it, preferring the largest exact unit.
func FormatMiB(mib uint64) string {
	switch {
	case mib != 0 && mib%TiB == 0:
		return fmt.Sprintf("%dT", mib/TiB)
	case mib != 0 && mib%GiB == 0:
		return fmt.Sprintf("%dG", mib/GiB)
	default:
		return fmt.Sprintf("%dM", mib)
	}
}
