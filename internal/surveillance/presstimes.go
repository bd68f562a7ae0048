package surveillance

// Key is a logical input key.
type Key int

const (
	M1 Key = iota
	M2
	K1
	K2
)

// Keys in alert order.
var Keys = []Key{M1, M2, K1, K2}

var keyNames = [...]string{"M1", "M2", "K1", "K2"}

func (k Key) String() string { return keyNames[k] }

func (k Key) opposite() Key {
	switch k {
	case M1:
		return M2
	case M2:
		return M1
	case K1:
		return K2
	default:
		return K1
	}
}

// held reports whether k is down in a frame's key bits. A keyboard press
// carries the matching mouse bit too, so a mouse key only counts on its own.
func (k Key) held(bits int) bool {
	switch k {
	case M1:
		return bits&KeyM1 != 0 && bits&KeyK1 == 0
	case M2:
		return bits&KeyM2 != 0 && bits&KeyK2 == 0
	case K1:
		return bits&KeyK1 != 0
	default:
		return bits&KeyK2 != 0
	}
}

// PressTimes returns, per key, the time in ms between consecutive presses of
// that key. An interval during which the opposite key went down is ignored.
func PressTimes(frames []Frame) map[Key][]float64 {
	out := make(map[Key][]float64, len(Keys))
	type state struct {
		last        int64
		pressed     bool
		interrupted bool
	}
	var st [len(keyNames)]state

	var now int64
	prev := 0
	for _, f := range frames {
		now += f.Delta
		for _, k := range Keys {
			if !k.held(f.Keys) || k.held(prev) {
				continue
			}
			s := &st[k]
			if s.pressed && !s.interrupted {
				out[k] = append(out[k], float64(now-s.last))
			}
			s.last, s.pressed, s.interrupted = now, true, false
		}
		for _, k := range Keys {
			o := k.opposite()
			if o.held(f.Keys) && !o.held(prev) && !(k.held(f.Keys) && !k.held(prev)) {
				st[k].interrupted = true
			}
		}
		prev = f.Keys
	}
	return out
}

// Threshold flags a key whose mean press time is below Value once it has at
// least MinPresses samples.
type Threshold struct {
	Value      float64
	MinPresses int
}

// Flagged reports whether any key's press times trip the threshold.
func (t Threshold) Flagged(times map[Key][]float64) bool {
	for _, k := range Keys {
		if t.flagged(times[k]) {
			return true
		}
	}
	return false
}

func (t Threshold) flagged(pt []float64) bool {
	if len(pt) == 0 || len(pt) < t.MinPresses {
		return false
	}
	m, _ := mean(pt)
	return m < t.Value
}

func mean(pt []float64) (float64, bool) {
	if len(pt) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range pt {
		sum += v
	}
	return sum / float64(len(pt)), true
}
