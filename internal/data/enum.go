package data

import (
	"fmt"
	"strings"

	"github.com/l1jgo/companions/internal/companion"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeEnum folds the free spellings content packs use for enum values
// ("Walk_Square", "WALKSQUARE", "walk square") to one upper-case key.
func normalizeEnum(s string) string {
	s = cases.Upper(language.Und).String(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

func parseBehavior(s string) (companion.Behavior, error) {
	switch normalizeEnum(s) {
	case "", "NOTHING", "NONE", "IDLE":
		return companion.BehaviorNone, nil
	case "WANDER":
		return companion.BehaviorWander, nil
	case "HOVER":
		return companion.BehaviorHover, nil
	case "JUMPER":
		return companion.BehaviorJumper, nil
	case "WALKSQUARE":
		return companion.BehaviorWalkSquare, nil
	}
	return 0, fmt.Errorf("unknown idle behavior %q", s)
}

func parseLocomotion(s string) (companion.Locomotion, error) {
	switch normalizeEnum(s) {
	case "", "WALKING", "GROUND":
		return companion.Ground, nil
	case "FLYING":
		return companion.Flying, nil
	}
	return 0, fmt.Errorf("unknown companion type %q", s)
}

func parseSoundWhen(s string) (companion.SoundWhen, error) {
	switch normalizeEnum(s) {
	case "IDLE":
		return companion.SoundIdle, nil
	case "MOVING":
		return companion.SoundMoving, nil
	case "ALWAYS":
		return companion.SoundAlways, nil
	}
	return 0, fmt.Errorf("unknown WhenToPlay %q", s)
}
