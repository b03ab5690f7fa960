package entity

import (
	"encoding/json"
	"fmt"
)

// Color identifies a seat. The zero value means "nobody" and is used for
// unclaimed boxes.
type Color uint8

const (
	ColorNone Color = iota
	ColorRed
	ColorBlue
)

const (
	colorRedName  = "red"
	colorBlueName = "blue"
)

func (that Color) String() string {
	switch that {
	case ColorRed:
		return colorRedName
	case ColorBlue:
		return colorBlueName
	default:
		return ""
	}
}

// Opponent returns the other seat color.
func (that Color) Opponent() Color {
	switch that {
	case ColorRed:
		return ColorBlue
	case ColorBlue:
		return ColorRed
	default:
		return ColorNone
	}
}

func (that Color) MarshalJSON() ([]byte, error) {
	if that == ColorNone {
		return []byte("null"), nil
	}

	return json.Marshal(that.String())
}

func (that *Color) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = ColorNone
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("failed to unmarshal color: %w", err)
	}

	switch name {
	case colorRedName:
		*that = ColorRed
	case colorBlueName:
		*that = ColorBlue
	case "":
		*that = ColorNone
	default:
		return fmt.Errorf("unknown color %q", name)
	}

	return nil
}

// Player binds a connection to a seat of a game.
type Player struct {
	ID     string `json:"id"`
	GameID string `json:"game_id,omitempty"`
	Color  Color  `json:"color,omitempty"`
}
