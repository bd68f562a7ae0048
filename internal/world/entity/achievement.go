package entity

import (
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/condition"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/gamemode"
)

// Achievement is unlocked when its condition holds for a submitted score.
type Achievement struct {
	ID   int64
	File string
	Name string
	Desc string
	Mode gamemode.GameMode
	Cond *condition.Condition
}

// Unlocked evaluates the achievement against a score.
func (a *Achievement) Unlocked(s condition.ScoreFact) bool {
	return a.Cond.Matches(s)
}
