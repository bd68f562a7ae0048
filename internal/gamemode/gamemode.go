package gamemode

import (
	"fmt"
	"strings"
)

// GameMode combines a ruleset with a mod-based leaderboard variant.
type GameMode int

const (
	VanillaOsu GameMode = iota
	VanillaTaiko
	VanillaCatch
	VanillaMania

	RelaxOsu
	RelaxTaiko
	RelaxCatch

	AutopilotOsu
)

var reprs = [...]string{
	VanillaOsu:   "vn!std",
	VanillaTaiko: "vn!taiko",
	VanillaCatch: "vn!catch",
	VanillaMania: "vn!mania",
	RelaxOsu:     "rx!std",
	RelaxTaiko:   "rx!taiko",
	RelaxCatch:   "rx!catch",
	AutopilotOsu: "ap!std",
}

func (m GameMode) Valid() bool { return m >= VanillaOsu && m <= AutopilotOsu }

// AsVanilla returns the base ruleset of m (relax taiko -> vanilla taiko).
func (m GameMode) AsVanilla() GameMode {
	if m == AutopilotOsu {
		return VanillaOsu
	}
	return m % 4
}

func (m GameMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return reprs[m]
}

// Parse accepts either the repr form ("vn!taiko") or a bare ruleset name
// ("taiko", "std", "osu", "catch", "ctb", "mania").
func Parse(s string) (GameMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, r := range reprs {
		if r == s {
			return GameMode(i), nil
		}
	}
	switch s {
	case "std", "osu", "standard":
		return VanillaOsu, nil
	case "taiko":
		return VanillaTaiko, nil
	case "catch", "ctb", "fruits":
		return VanillaCatch, nil
	case "mania":
		return VanillaMania, nil
	}
	return 0, fmt.Errorf("unknown game mode %q", s)
}

// All lists every valid mode in ascending order.
func All() []GameMode {
	out := make([]GameMode, 0, len(reprs))
	for i := range reprs {
		out = append(out, GameMode(i))
	}
	return out
}
