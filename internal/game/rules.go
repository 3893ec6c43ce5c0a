// internal/game/rules.go
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/meitra/internal/engine"
)

// HouseRules are the per-match settings chosen when the match is created.
type HouseRules struct {
	PointsToWin              float64 `json:"pointsToWin"`              // team total that ends the match
	ChomboPenalty            float64 `json:"chomboPenalty"`            // points taken from an offender's team per reported violation
	StrictBroken             bool    `json:"strictBroken"`             // refuse blow actions from a four-jack hand instead of recording a violation
	LenientFollow            bool    `json:"lenientFollow"`            // accept off-suit plays and record them as violations
	CreditOpponentsOnFailure bool    `json:"creditOpponentsOnFailure"` // a failed declaration scores for the other team
	RoundDelaySec            int     `json:"roundDelaySec"`            // pause between a round's results and the next deal
	ComDelayMs               int     `json:"comDelayMs"`               // think time of COM seats
	ComTakeover              bool    `json:"comTakeover"`              // COM plays for disconnected humans
	ComBids                  bool    `json:"comBids"`                  // COM seats open the blow instead of always passing
}

// DefaultHouseRules mirrors the engine defaults.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		PointsToWin:   engine.DefaultPointsToWin,
		ChomboPenalty: engine.DefaultChomboPenalty,
		RoundDelaySec: 3,
		ComDelayMs:    800,
		ComTakeover:   true,
		ComBids:       true,
	}
}

// Engine returns the subset of rules the engine enforces.
func (rules HouseRules) Engine() engine.Rules {
	return engine.Rules{
		PointsToWin:              rules.PointsToWin,
		ChomboPenalty:            rules.ChomboPenalty,
		StrictBroken:             rules.StrictBroken,
		LenientFollow:            rules.LenientFollow,
		CreditOpponentsOnFailure: rules.CreditOpponentsOnFailure,
	}
}

func (rules HouseRules) RoundDelay() time.Duration {
	return time.Duration(rules.RoundDelaySec) * time.Second
}

func (rules HouseRules) ComDelay() time.Duration {
	return time.Duration(rules.ComDelayMs) * time.Millisecond
}

// Update will update the house rules with the new rules provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
// Every invalid key is reported; valid keys are applied regardless.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("invalid type for %s", key)
		}
		*field = b
		return nil
	}

	number := func(key string) (float64, bool, error) {
		val, exists := newRules[key]
		if !exists || val == nil {
			return 0, false, nil
		}
		// JSON numbers decode as float64
		switch v := val.(type) {
		case float64:
			return v, true, nil
		case int:
			return float64(v), true, nil
		}
		return 0, false, fmt.Errorf("invalid type for %s", key)
	}

	assignFloat := func(field *float64, key string) error {
		v, ok, err := number(key)
		if err != nil || !ok {
			return err
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
		*field = v
		return nil
	}

	assignInt := func(field *int, key string) error {
		v, ok, err := number(key)
		if err != nil || !ok {
			return err
		}
		if v < 0 {
			return fmt.Errorf("%s must be non-negative", key)
		}
		*field = int(v)
		return nil
	}

	return errors.Join(
		assignFloat(&rules.PointsToWin, "pointsToWin"),
		assignFloat(&rules.ChomboPenalty, "chomboPenalty"),
		assignBool(&rules.StrictBroken, "strictBroken"),
		assignBool(&rules.LenientFollow, "lenientFollow"),
		assignBool(&rules.CreditOpponentsOnFailure, "creditOpponentsOnFailure"),
		assignInt(&rules.RoundDelaySec, "roundDelaySec"),
		assignInt(&rules.ComDelayMs, "comDelayMs"),
		assignBool(&rules.ComTakeover, "comTakeover"),
		assignBool(&rules.ComBids, "comBids"),
	)
}

// ParseRules converts a map of rules to a HouseRules struct. It will ensure the types are valid.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}
