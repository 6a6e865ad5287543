package tuning

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" validate:"required"`

	TickRateHz int   `yaml:"tick_rate_hz" env:"TC_TICK_RATE_HZ" validate:"min=1,max=100"`
	Seed       int64 `yaml:"seed" env:"TC_SEED"`

	// MaxDestinationHops bounds destination redirection (holes, nested
	// containers). It matches the number of map floors.
	MaxDestinationHops int `yaml:"max_destination_hops" env:"TC_MAX_DESTINATION_HOPS" validate:"min=1,max=64"`
	MaxTileItems       int `yaml:"max_tile_items" validate:"min=1"`

	Spawn    [3]int `yaml:"spawn"`
	RulesDir string `yaml:"rules_dir" env:"TC_RULES_DIR"`

	// Map is the plain floor laid around Spawn at startup.
	Map MapGen `yaml:"map"`

	Decay      Decay      `yaml:"decay"`
	Spectators Spectators `yaml:"spectators"`
	Actions    Actions    `yaml:"actions"`
	Trade      Trade      `yaml:"trade"`
	Combat     Combat     `yaml:"combat"`
}

type MapGen struct {
	Radius int    `yaml:"radius" env:"TC_MAP_RADIUS" validate:"min=0,max=1024"`
	Ground uint16 `yaml:"ground"`
}

type Decay struct {
	IntervalMs int `yaml:"interval_ms" env:"TC_DECAY_INTERVAL_MS" validate:"min=1"`
	Buckets    int `yaml:"buckets" env:"TC_DECAY_BUCKETS" validate:"min=2,max=64"`
}

type Spectators struct {
	RangeX int `yaml:"range_x" validate:"min=1"`
	RangeY int `yaml:"range_y" validate:"min=1"`
}

type Actions struct {
	ActionDelayMs int `yaml:"action_delay_ms" validate:"min=0"`
	WalkRetryMs   int `yaml:"walk_retry_ms" validate:"min=1"`
	AttackDelayMs int `yaml:"attack_delay_ms" validate:"min=0"`
	ThrowRangeX   int `yaml:"throw_range_x" validate:"min=1"`
	ThrowRangeY   int `yaml:"throw_range_y" validate:"min=1"`
}

type Trade struct {
	Range    int `yaml:"range" validate:"min=1"`
	MaxItems int `yaml:"max_items" validate:"min=1"`
}

type Combat struct {
	// BloodSplashItem is placed under creatures that bleed from physical
	// damage. Zero disables splashes.
	BloodSplashItem uint16 `yaml:"blood_splash_item"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         20,
		Seed:               1,
		MaxDestinationHops: 16,
		MaxTileItems:       1000,
		Spawn:              [3]int{100, 100, 7},
		Map:                MapGen{Radius: 32, Ground: 101},
		Decay:              Decay{IntervalMs: 250, Buckets: 4},
		Spectators:         Spectators{RangeX: 9, RangeY: 7},
		Actions: Actions{
			ActionDelayMs: 200,
			WalkRetryMs:   400,
			AttackDelayMs: 2000,
			ThrowRangeX:   8,
			ThrowRangeY:   6,
		},
		Trade:  Trade{Range: 2, MaxItems: 100},
		Combat: Combat{BloodSplashItem: 501},
	}
}

func (t Tuning) TickDurationMs() int { return 1000 / t.TickRateHz }

// MsToTicks rounds up so that a delay is never shorter than asked.
func (t Tuning) MsToTicks(ms int) uint64 {
	if ms <= 0 {
		return 0
	}
	d := t.TickDurationMs()
	return uint64((ms + d - 1) / d)
}

// DecayEveryTicks is the number of ticks between decay wheel services.
func (t Tuning) DecayEveryTicks() uint64 {
	return uint64(t.Decay.IntervalMs / t.TickDurationMs())
}

var validate = validator.New()

func (t Tuning) Validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}
	if 1000%t.TickRateHz != 0 {
		return fmt.Errorf("tick_rate_hz %d does not divide a second", t.TickRateHz)
	}
	if t.Decay.IntervalMs%t.TickDurationMs() != 0 {
		return fmt.Errorf("decay.interval_ms %d is not a multiple of the tick (%dms)", t.Decay.IntervalMs, t.TickDurationMs())
	}
	return nil
}

// Load reads path over Defaults, applies TC_* environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return t, err
		default:
			if err := yaml.Unmarshal(raw, &t); err != nil {
				return t, fmt.Errorf("tuning.yaml: %w", err)
			}
		}
	}
	if err := env.Parse(&t); err != nil {
		return t, fmt.Errorf("parse env: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
