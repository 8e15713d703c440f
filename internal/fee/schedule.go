package fee

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schedule holds the club's fee rules. Amounts are integer cents.
type Schedule struct {
	GuestFeeCents        int64          `yaml:"guest_fee_cents"`
	OverageCentsPerBlock int64          `yaml:"overage_cents_per_block"`
	OverageBlockMinutes  int            `yaml:"overage_block_minutes"`
	TierAllowanceMinutes map[string]int `yaml:"tier_allowance_minutes"`
}

// DefaultSchedule is used when no schedule file is configured.
func DefaultSchedule() Schedule {
	return Schedule{
		GuestFeeCents:        1500,
		OverageCentsPerBlock: 2000,
		OverageBlockMinutes:  30,
		TierAllowanceMinutes: map[string]int{
			"social":    60,
			"core":      90,
			"premium":   120,
			"corporate": 120,
		},
	}
}

// LoadSchedule reads a YAML schedule. Keys missing from the file keep their
// default values; tier names are case-insensitive.
func LoadSchedule(path string) (Schedule, error) {
	s := DefaultSchedule()
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("read fee schedule: %w", err)
	}
	var file Schedule
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Schedule{}, fmt.Errorf("parse fee schedule: %w", err)
	}

	if file.GuestFeeCents != 0 {
		s.GuestFeeCents = file.GuestFeeCents
	}
	if file.OverageCentsPerBlock != 0 {
		s.OverageCentsPerBlock = file.OverageCentsPerBlock
	}
	if file.OverageBlockMinutes != 0 {
		s.OverageBlockMinutes = file.OverageBlockMinutes
	}
	if file.TierAllowanceMinutes != nil {
		s.TierAllowanceMinutes = make(map[string]int, len(file.TierAllowanceMinutes))
		for tier, minutes := range file.TierAllowanceMinutes {
			s.TierAllowanceMinutes[strings.ToLower(strings.TrimSpace(tier))] = minutes
		}
	}

	if err := s.validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func (s Schedule) validate() error {
	if s.GuestFeeCents < 0 || s.OverageCentsPerBlock < 0 {
		return fmt.Errorf("fee schedule: rates must not be negative")
	}
	if s.OverageBlockMinutes <= 0 {
		return fmt.Errorf("fee schedule: overage_block_minutes must be positive")
	}
	for tier, minutes := range s.TierAllowanceMinutes {
		if minutes < 0 {
			return fmt.Errorf("fee schedule: allowance for tier %q must not be negative", tier)
		}
	}
	return nil
}

// Input fills the schedule's rates into an estimator input.
func (s Schedule) Input(tier string, durationMinutes, usedMinutesToday, declared, filled int) Input {
	return Input{
		Tier:                 tier,
		DurationMinutes:      durationMinutes,
		UsedMinutesToday:     usedMinutesToday,
		DeclaredPlayerCount:  declared,
		FilledPlayerCount:    filled,
		GuestFeeCents:        s.GuestFeeCents,
		OverageCentsPerBlock: s.OverageCentsPerBlock,
		OverageBlockMinutes:  s.OverageBlockMinutes,
		TierAllowanceMinutes: s.TierAllowanceMinutes,
	}
}
