package condition

import "github.com/ovaphlow/pitchfork/service-bancho-go/internal/gamemode"

// ScoreFact is the read-only view of a finished score that achievement
// conditions are evaluated against. It is filled in by the scoring
// subsystem; nothing else is reachable from a condition.
type ScoreFact struct {
	Mode     gamemode.GameMode
	Mods     int
	Score    int64
	PP       float64
	Acc      float64
	SR       float64
	MaxCombo int
	Perfect  bool
	Passed   bool

	N300  int
	N100  int
	N50   int
	NMiss int
	NGeki int
	NKatu int
}

type getter func(*ScoreFact) float64

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// fields maps every name a condition may reference to its accessor.
var fields = map[string]getter{
	"mode":            func(s *ScoreFact) float64 { return float64(s.Mode) },
	"mode.as_vanilla": func(s *ScoreFact) float64 { return float64(s.Mode.AsVanilla()) },
	"mods":            func(s *ScoreFact) float64 { return float64(s.Mods) },
	"score":           func(s *ScoreFact) float64 { return float64(s.Score) },
	"pp":              func(s *ScoreFact) float64 { return s.PP },
	"acc":             func(s *ScoreFact) float64 { return s.Acc },
	"sr":              func(s *ScoreFact) float64 { return s.SR },
	"max_combo":       func(s *ScoreFact) float64 { return float64(s.MaxCombo) },
	"combo":           func(s *ScoreFact) float64 { return float64(s.MaxCombo) },
	"perfect":         func(s *ScoreFact) float64 { return boolNum(s.Perfect) },
	"passed":          func(s *ScoreFact) float64 { return boolNum(s.Passed) },
	"n300":            func(s *ScoreFact) float64 { return float64(s.N300) },
	"n100":            func(s *ScoreFact) float64 { return float64(s.N100) },
	"n50":             func(s *ScoreFact) float64 { return float64(s.N50) },
	"nmiss":           func(s *ScoreFact) float64 { return float64(s.NMiss) },
	"ngeki":           func(s *ScoreFact) float64 { return float64(s.NGeki) },
	"nkatu":           func(s *ScoreFact) float64 { return float64(s.NKatu) },
}

// Fields returns the names a condition may reference, for operator tooling.
func Fields() []string {
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	return out
}
