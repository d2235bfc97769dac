package domain

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// EffectAction selects which inventory mutation a completed task triggers.
type EffectAction string

const (
	EffectSell EffectAction = "sell"
	EffectAdd  EffectAction = "add"
	EffectMove EffectAction = "move"
)

// Effect is the decoded form of a task's query payload: a tagged instruction
// applied to the inventory when the task transitions to done.
type Effect struct {
	Action  EffectAction `json:"action"`
	Product string       `json:"product"`
	Storage string       `json:"storage"`
	Count   int          `json:"count"`
	// From names the source storage; required for move only.
	From string `json:"from,omitempty"`
}

var errEmptyEffect = errors.New("empty effect payload")

// ParseEffect decodes and validates a task query payload. Unknown actions and
// missing required fields are errors, not crashes.
func ParseEffect(raw []byte) (Effect, error) {
	if len(raw) == 0 {
		return Effect{}, errEmptyEffect
	}
	var e Effect
	if err := sonic.ConfigStd.Unmarshal(raw, &e); err != nil {
		return Effect{}, fmt.Errorf("decode effect: %w", err)
	}
	switch e.Action {
	case EffectSell, EffectAdd:
	case EffectMove:
		if e.From == "" {
			return Effect{}, errors.New("move effect requires a source storage")
		}
	default:
		return Effect{}, fmt.Errorf("unknown effect action %q", e.Action)
	}
	if e.Product == "" {
		return Effect{}, errors.New("effect requires a product")
	}
	if e.Storage == "" {
		return Effect{}, errors.New("effect requires a storage")
	}
	if e.Count <= 0 {
		return Effect{}, errors.New("effect count must be positive")
	}
	return e, nil
}
