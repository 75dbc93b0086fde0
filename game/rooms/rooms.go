// Package rooms parses Screeps room names and computes room-grid distances.
//
// Room names encode world coordinates: E/W for the horizontal axis and N/S for
// the vertical one. E0 and N0 map to 0, W0 and S0 to -1, so every room has a
// unique integer coordinate.
package rooms

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidRoomName = errors.New("invalid room name")

var roomPattern = regexp.MustCompile(`^([EW])(\d+)([NS])(\d+)$`)

// Coordinates is a room position on the world grid.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Parse converts a room name such as "E1N8" or "W50S3" into grid coordinates.
func Parse(name string) (Coordinates, error) {
	m := roomPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(name)))
	if m == nil {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidRoomName, name)
	}

	x, err := strconv.Atoi(m[2])
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidRoomName, name)
	}
	y, err := strconv.Atoi(m[4])
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidRoomName, name)
	}

	if m[1] == "W" {
		x = -(x + 1)
	}
	if m[3] == "S" {
		y = -(y + 1)
	}
	return Coordinates{X: x, Y: y}, nil
}

// Valid reports whether name is a well-formed room name.
func Valid(name string) bool {
	_, err := Parse(name)
	return err == nil
}

// Distance is the result of comparing two rooms.
type Distance struct {
	From       string      `json:"from"`
	To         string      `json:"to"`
	FromCoords Coordinates `json:"fromCoords"`
	ToCoords   Coordinates `json:"toCoords"`
	DeltaX     int         `json:"deltaX"`
	DeltaY     int         `json:"deltaY"`
	// Chebyshev counts diagonal room moves as one step.
	Chebyshev int     `json:"chebyshevDistance"`
	Manhattan int     `json:"manhattanDistance"`
	Euclidean float64 `json:"euclideanDistance"`
}

// Measure computes the grid distances between two rooms.
func Measure(from, to string) (Distance, error) {
	a, err := Parse(from)
	if err != nil {
		return Distance{}, err
	}
	b, err := Parse(to)
	if err != nil {
		return Distance{}, err
	}

	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)

	return Distance{
		From:       from,
		To:         to,
		FromCoords: a,
		ToCoords:   b,
		DeltaX:     dx,
		DeltaY:     dy,
		Chebyshev:  max(dx, dy),
		Manhattan:  dx + dy,
		Euclidean:  math.Sqrt(float64(dx*dx + dy*dy)),
	}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
