package generate

import (
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-sim/common"
)

// Rule is a parsed B/S rulestring. Bit n of Birth is set when a dead cell with n live
// neighbours comes alive; bit n of Survive when a live cell with n live neighbours stays alive.
type Rule struct {
	Birth   uint32
	Survive uint32
}

// ParseRule parses "B<digits>/S<digits>". Either part may be empty ("B/S23") and the parts may
// appear in either order.
//
// Parameters:
//   - s: the rulestring
//
// Returns:
//   - Rule: the birth and survive bitsets
//   - error: a *common.InvalidSettingError naming rulestring
func ParseRule(s string) (Rule, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Rule{}, common.InvalidSetting("rulestring", "%q is not of the form B<digits>/S<digits>", s)
	}
	var r Rule
	var seenB, seenS bool
	for _, part := range parts {
		if part == "" {
			return Rule{}, common.InvalidSetting("rulestring", "%q has an empty part", s)
		}
		var dst *uint32
		switch part[0] {
		case 'B', 'b':
			if seenB {
				return Rule{}, common.InvalidSetting("rulestring", "%q repeats B", s)
			}
			seenB, dst = true, &r.Birth
		case 'S', 's':
			if seenS {
				return Rule{}, common.InvalidSetting("rulestring", "%q repeats S", s)
			}
			seenS, dst = true, &r.Survive
		default:
			return Rule{}, common.InvalidSetting("rulestring", "%q: part %q must start with B or S", s, part)
		}
		for _, c := range part[1:] {
			if c < '0' || c > '9' {
				return Rule{}, common.InvalidSetting("rulestring", "%q: %q is not a digit", s, c)
			}
			*dst |= 1 << uint(c-'0')
		}
	}
	return r, nil
}

// Next applies the rule to one cell.
func (r Rule) Next(alive bool, liveNeighbors int) bool {
	if liveNeighbors < 0 || liveNeighbors > 31 {
		return false
	}
	bit := uint32(1) << uint(liveNeighbors)
	if alive {
		return r.Survive&bit != 0
	}
	return r.Birth&bit != 0
}

// String formats the rule canonically, digits ascending.
func (r Rule) String() string {
	var b strings.Builder
	b.WriteByte('B')
	writeDigits(&b, r.Birth)
	b.WriteString("/S")
	writeDigits(&b, r.Survive)
	return b.String()
}

func writeDigits(b *strings.Builder, set uint32) {
	for n := 0; n <= 9; n++ {
		if set&(1<<uint(n)) != 0 {
			b.WriteString(strconv.Itoa(n))
		}
	}
}
