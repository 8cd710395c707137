package mpd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

const durationNumber = `(?:\d+(?:\.\d*)?|\.\d+)`

// durationPattern accepts the P[nD][T[nH][nM][nS]] subset of ISO 8601 used by
// MPD timing attributes. Years and months have no fixed length and are rejected.
var durationPattern = regexp2.MustCompile(
	`^P(?:(?<days>`+durationNumber+`)D)?`+
		`(?:T(?:(?<hours>`+durationNumber+`)H)?`+
		`(?:(?<minutes>`+durationNumber+`)M)?`+
		`(?:(?<seconds>`+durationNumber+`)S)?)?$`,
	regexp2.None)

var durationUnits = []struct {
	group   string
	seconds float64
}{
	{"seconds", 1},
	{"minutes", 60},
	{"hours", 60 * 60},
	{"days", 24 * 60 * 60},
}

// ParseDuration converts a duration string such as "PT0H1M59.89S" into seconds.
func ParseDuration(duration string) (float64, error) {
	match, err := durationPattern.FindStringMatch(strings.TrimSpace(duration))
	if err != nil {
		return 0, fmt.Errorf("failed to match duration %q: %w", duration, err)
	}
	if match == nil {
		return 0, fmt.Errorf("%w: unsupported duration %q", ErrFormat, duration)
	}

	var total float64
	found := false
	for _, unit := range durationUnits {
		g := match.GroupByName(unit.group)
		if g == nil || g.String() == "" {
			continue
		}
		value, err := strconv.ParseFloat(g.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s in duration %q: %w", unit.group, duration, err)
		}
		total += value * unit.seconds
		found = true
	}
	if !found {
		return 0, fmt.Errorf("%w: no numeric components in duration %q", ErrFormat, duration)
	}
	return total, nil
}

// FormatDuration renders seconds back into a "PT..H..M..S" string.
func FormatDuration(seconds float64) string {
	ret := []byte("PT")
	if seconds >= 3600 {
		h := math.Floor(seconds / 3600)
		ret = strconv.AppendInt(ret, int64(h), 10)
		ret = append(ret, 'H')
		seconds -= h * 3600
	}
	if seconds >= 60 {
		m := math.Floor(seconds / 60)
		ret = strconv.AppendInt(ret, int64(m), 10)
		ret = append(ret, 'M')
		seconds -= m * 60
	}
	if seconds != 0 || len(ret) == 2 {
		ret = strconv.AppendFloat(ret, seconds, 'f', -1, 64)
		ret = append(ret, 'S')
	}
	return string(ret)
}
