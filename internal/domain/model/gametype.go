package model

import (
	"fmt"
	"strings"
)

// GameType selects the comparison and aggregation rules of an activity.
type GameType int

// Known game types. The zero value is invalid so that an unset field never
// scores as points.
const (
	GameTypeUnknown GameType = iota
	PointBased
	TimeBased
	StageBased
)

func (g GameType) String() string {
	switch g {
	case PointBased:
		return "point"
	case TimeBased:
		return "time"
	case StageBased:
		return "stage"
	default:
		return "unknown"
	}
}

// Valid reports whether g is one of the known variants.
func (g GameType) Valid() bool {
	switch g {
	case PointBased, TimeBased, StageBased:
		return true
	default:
		return false
	}
}

// LowerIsBetter reports whether a smaller unit score ranks first.
func (g GameType) LowerIsBetter() bool {
	return g == TimeBased
}

// ParseGameType accepts the names produced by String, case-insensitively.
func ParseGameType(s string) (GameType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point", "points", "point_based":
		return PointBased, nil
	case "time", "time_based":
		return TimeBased, nil
	case "stage", "stages", "stage_based":
		return StageBased, nil
	default:
		return GameTypeUnknown, fmt.Errorf("%w: %q", ErrUnknownGameType, s)
	}
}

// MarshalText encodes the game type by name.
func (g GameType) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a game type name.
func (g *GameType) UnmarshalText(b []byte) error {
	parsed, err := ParseGameType(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
