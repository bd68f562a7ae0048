package surveillance

import (
	"strconv"
	"strings"
)

// Replay key bits. Keyboard presses also set the matching mouse bit.
const (
	KeyM1 = 1 << 0
	KeyM2 = 1 << 1
	KeyK1 = 1 << 2
	KeyK2 = 1 << 3
)

// Frame is one replay input sample: Delta ms since the previous frame, the
// cursor position and the held keys.
type Frame struct {
	Delta int64
	X, Y  float64
	Keys  int
}

// ParseFrames splits a decompressed replay stream into frames. The seed
// frame and trailing blank entry are dropped; malformed frames are skipped.
func ParseFrames(data string) (frames []Frame, skipped int) {
	parts := strings.Split(data, ",")
	if len(parts) < 2 {
		return nil, 0
	}
	for _, action := range parts[:len(parts)-2] {
		f, ok := parseFrame(action)
		if !ok {
			skipped++
			continue
		}
		frames = append(frames, f)
	}
	return frames, skipped
}

func parseFrame(s string) (Frame, bool) {
	fields := strings.Split(strings.TrimSpace(s), "|")
	if len(fields) != 4 {
		return Frame{}, false
	}
	w, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Frame{}, false
	}
	x, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Frame{}, false
	}
	y, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Frame{}, false
	}
	keys, err := strconv.Atoi(fields[3])
	if err != nil {
		return Frame{}, false
	}
	return Frame{Delta: w, X: x, Y: y, Keys: keys}, true
}
