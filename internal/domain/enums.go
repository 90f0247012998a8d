package domain

import (
	"fmt"
	"strings"
)

type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Days lists every Day in weekday order. Renderers and encoders iterate
// this instead of ranging over day-keyed maps.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDay accepts a full or three-letter day name in any case.
func ParseDay(s string) (Day, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Days {
		if v == string(d) || (len(v) == 3 && strings.HasPrefix(string(d), v)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid day %q", s)
}

// Short returns the three-letter label, e.g. "Mon".
func (d Day) Short() string {
	if len(d) < 3 {
		return string(d)
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:3])
}

type BlockType string

const (
	BlockSubject  BlockType = "subject"
	BlockActivity BlockType = "activity"
	BlockBreak    BlockType = "break"
)

// ValidBlockTypes is the canonical set of accepted block type strings.
var ValidBlockTypes = map[string]bool{
	"subject": true, "activity": true, "break": true,
}

// ParseBlockType validates s against ValidBlockTypes.
func ParseBlockType(s string) (BlockType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if !ValidBlockTypes[v] {
		return "", fmt.Errorf("invalid block type %q (want subject, activity or break)", s)
	}
	return BlockType(v), nil
}

type ActivityOrigin string

const (
	OriginStandard ActivityOrigin = "standard"
	OriginCustom   ActivityOrigin = "custom"
)
