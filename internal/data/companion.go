package data

import (
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/companions/internal/companion"
	"gopkg.in/yaml.v3"
)

// AnimationModel is one animation block of companion.json.
type AnimationModel struct {
	StartingFrame  int             `yaml:"StartingFrame"`
	NumberOfFrames int             `yaml:"NumberOfFrames"`
	Duration       int             `yaml:"Duration"` // ms per frame
	IdleAnimation  *AnimationModel `yaml:"IdleAnimation"`
}

type SoundModel struct {
	SoundName        string  `yaml:"SoundName"`
	WhenToPlay       string  `yaml:"WhenToPlay"`
	TimeBetweenSound int     `yaml:"TimeBetweenSound"` // ms
	ChanceOfPlaying  float64 `yaml:"ChanceOfPlaying"`
}

type LightModel struct {
	Color         []int   `yaml:"Color"` // R, G, B[, A]
	Radius        float64 `yaml:"Radius"`
	OffsetX       float64 `yaml:"OffsetX"`
	OffsetY       float64 `yaml:"OffsetY"`
	PulseInterval float64 `yaml:"PulseInterval"`
	PulseSpeed    int     `yaml:"PulseSpeed"` // ms
}

// CompanionModel is the on-disk form of a companion, read from
// <pack>/Companions/<dir>/companion.json. JSON is valid YAML, so the same
// decoder reads both.
type CompanionModel struct {
	Owner string `yaml:"-"` // set from the pack manifest

	Name          string    `yaml:"Name"`
	Type          string    `yaml:"Type"` // Walking | Flying
	TravelSpeed   float64   `yaml:"TravelSpeed"`
	IdleBehavior  string    `yaml:"IdleBehavior"`
	IdleArguments []float64 `yaml:"IdleArguments"`

	TileSheetPath   string `yaml:"TileSheetPath"`
	FrameSizeWidth  int    `yaml:"FrameSizeWidth"`
	FrameSizeHeight int    `yaml:"FrameSizeHeight"`

	UpAnimation      *AnimationModel `yaml:"UpAnimation"`
	RightAnimation   *AnimationModel `yaml:"RightAnimation"`
	DownAnimation    *AnimationModel `yaml:"DownAnimation"`
	LeftAnimation    *AnimationModel `yaml:"LeftAnimation"`
	UniformAnimation *AnimationModel `yaml:"UniformAnimation"`

	Sounds []SoundModel `yaml:"Sounds"`
	Light  *LightModel  `yaml:"Light"`

	ChanceForHalting                 float64 `yaml:"ChanceForHalting"`
	DirectionChangeChanceWhileMoving float64 `yaml:"DirectionChangeChanceWhileMoving"`
	DirectionChangeChanceWhileIdle   float64 `yaml:"DirectionChangeChanceWhileIdle"`
	MinHaltTime                      int     `yaml:"MinHaltTime"` // ms
	MaxHaltTime                      int     `yaml:"MaxHaltTime"` // ms
	MaxIdleDistance                  float64 `yaml:"MaxIdleDistance"`
	MaxDistanceBeforeTeleport        float64 `yaml:"MaxDistanceBeforeTeleport"`
	EnableFarmerCollision            bool    `yaml:"EnableFarmerCollision"`
}

// newCompanionModel returns a model pre-filled with the values used when a
// companion.json omits a field.
func newCompanionModel() CompanionModel {
	return CompanionModel{
		Type:                             "Walking",
		TravelSpeed:                      6,
		IdleBehavior:                     "Nothing",
		FrameSizeWidth:                   16,
		FrameSizeHeight:                  16,
		ChanceForHalting:                 0.25,
		DirectionChangeChanceWhileMoving: 0.007,
		DirectionChangeChanceWhileIdle:   0.05,
		MinHaltTime:                      2000,
		MaxHaltTime:                      10000,
		MaxIdleDistance:                  companion.DefaultMaxIdleDistance,
		MaxDistanceBeforeTeleport:        companion.DefaultMaxDistanceBeforeTeleport,
	}
}

// ParseCompanion decodes a companion.json document over the defaults.
func ParseCompanion(raw []byte) (CompanionModel, error) {
	m := newCompanionModel()
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return CompanionModel{}, fmt.Errorf("parse companion: %w", err)
	}
	return m, nil
}

// LoadCompanion reads and decodes one companion.json.
func LoadCompanion(path string) (CompanionModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CompanionModel{}, fmt.Errorf("read companion %s: %w", path, err)
	}
	return ParseCompanion(raw)
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// ToProfile converts the model into an engine profile. Unknown enum values
// fail the conversion; structural checks happen in companion.Prepare.
func (m *CompanionModel) ToProfile() (companion.Profile, error) {
	behavior, err := parseBehavior(m.IdleBehavior)
	if err != nil {
		return companion.Profile{}, err
	}
	loco, err := parseLocomotion(m.Type)
	if err != nil {
		return companion.Profile{}, err
	}

	p := companion.Profile{
		Name:                       m.Name,
		Owner:                      m.Owner,
		Behavior:                   behavior,
		BehaviorArgs:               m.IdleArguments,
		Locomotion:                 loco,
		TravelSpeed:                m.TravelSpeed,
		Up:                         m.UpAnimation.toSet(),
		Right:                      m.RightAnimation.toSet(),
		Down:                       m.DownAnimation.toSet(),
		Left:                       m.LeftAnimation.toSet(),
		Uniform:                    m.UniformAnimation.toSet(),
		DirectionChangeWhileMoving: m.DirectionChangeChanceWhileMoving,
		DirectionChangeWhileIdle:   m.DirectionChangeChanceWhileIdle,
		ChanceForHalting:           m.ChanceForHalting,
		MinHaltTime:                ms(m.MinHaltTime),
		MaxHaltTime:                ms(m.MaxHaltTime),
		MaxIdleDistance:            m.MaxIdleDistance,
		MaxDistanceBeforeTeleport:  m.MaxDistanceBeforeTeleport,
		EnableFarmerCollision:      m.EnableFarmerCollision,
	}

	for _, s := range m.Sounds {
		when, err := parseSoundWhen(s.WhenToPlay)
		if err != nil {
			// Left for Prepare to report and drop.
			when = companion.SoundWhen(-1)
		}
		p.Sounds = append(p.Sounds, companion.SoundTrigger{
			When:     when,
			SoundID:  s.SoundName,
			Interval: ms(s.TimeBetweenSound),
			Chance:   s.ChanceOfPlaying,
		})
	}

	if l := m.Light; l != nil {
		p.Light = &companion.Light{
			Color:         toColor(l.Color),
			Radius:        l.Radius,
			Offset:        mgl64.Vec2{l.OffsetX, l.OffsetY},
			PulseInterval: l.PulseInterval,
			PulseSpeed:    ms(l.PulseSpeed),
		}
	}
	return p, nil
}

func (a *AnimationModel) toAnimation() companion.Animation {
	return companion.Animation{
		StartFrame: a.StartingFrame,
		FrameCount: a.NumberOfFrames,
		Duration:   ms(a.Duration),
	}
}

func (a *AnimationModel) toSet() *companion.AnimationSet {
	if a == nil {
		return nil
	}
	set := &companion.AnimationSet{Animation: a.toAnimation()}
	if a.IdleAnimation != nil {
		idle := a.IdleAnimation.toAnimation()
		set.Idle = &idle
	}
	return set
}

// toColor clamps channels to 0..255; alpha defaults to opaque.
func toColor(c []int) [4]uint8 {
	out := [4]uint8{255, 255, 255, 255}
	for i := 0; i < len(c) && i < 4; i++ {
		v := c[i]
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		out[i] = uint8(v)
	}
	return out
}
