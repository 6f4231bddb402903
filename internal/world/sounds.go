package world

import (
	"fmt"

	"go.uber.org/zap"
)

// SoundBank knows which sound ids exist. It has no audio device; Play logs
// the request and counts it. A bank built without a list accepts any id.
type SoundBank struct {
	known  map[string]bool
	open   bool
	played map[string]int
	log    *zap.Logger
}

func NewSoundBank(ids []string, log *zap.Logger) *SoundBank {
	b := &SoundBank{
		known:  make(map[string]bool, len(ids)),
		open:   ids == nil,
		played: make(map[string]int),
		log:    log,
	}
	for _, id := range ids {
		b.known[id] = true
	}
	return b
}

func (b *SoundBank) IsValid(soundID string) bool { return b.open || b.known[soundID] }

func (b *SoundBank) Play(soundID string) error {
	if !b.IsValid(soundID) {
		return fmt.Errorf("play %q: no such sound", soundID)
	}
	b.played[soundID]++
	b.log.Debug("sound played", zap.String("sound", soundID))
	return nil
}

// Played returns how often a sound was played.
func (b *SoundBank) Played(soundID string) int { return b.played[soundID] }

func (b *SoundBank) Len() int { return len(b.known) }
