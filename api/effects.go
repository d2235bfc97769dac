package api

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"depot-api/domain"
	"depot-api/storage"
)

var effectOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "depot_task_effects_total",
	Help: "Inventory effects triggered by task completion, by action and outcome.",
}, []string{"action", "outcome"})

type effectResult struct {
	Applied bool `json:"applied"`
	// Skipped is set when the effect for this task was already applied by an
	// earlier request.
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// applyEffect decodes a completed task's query payload and applies the
// inventory instruction it carries. The task transition is already durable
// when this runs; failures are reported back, never rolled back. The deduper,
// keyed by task id, keeps a re-completed task from applying its effect twice
// while still allowing a retry after a failed attempt.
func applyEffect(ctx context.Context, inv InventoryStore, deduper Deduper, task domain.Task, logger *log.Logger) *effectResult {
	eff, err := domain.ParseEffect(task.Query)
	if err != nil {
		effectOutcomes.WithLabelValues("unknown", "rejected").Inc()
		logger.WithFields(log.Fields{"task_id": task.ID, "error": err.Error()}).Warn("task effect rejected")
		return &effectResult{Error: err.Error()}
	}

	deduped := false
	if deduper != nil {
		added, err := deduper.Add(ctx, task.ID)
		if err != nil {
			// Dedupe store trouble must not block the effect; the protocol is
			// at-least-once, not exactly-once.
			logger.WithFields(log.Fields{"task_id": task.ID, "error": err.Error()}).Warn("effect dedupe check failed")
		} else if !added {
			effectOutcomes.WithLabelValues(string(eff.Action), "skipped").Inc()
			return &effectResult{Skipped: true}
		} else {
			deduped = true
		}
	}

	if err := runEffect(inv, eff); err != nil {
		if deduped {
			if rmErr := deduper.Remove(ctx, task.ID); rmErr != nil {
				logger.WithFields(log.Fields{"task_id": task.ID, "error": rmErr.Error()}).Warn("effect dedupe release failed")
			}
		}
		effectOutcomes.WithLabelValues(string(eff.Action), "failed").Inc()
		logger.WithFields(log.Fields{
			"task_id": task.ID,
			"action":  string(eff.Action),
			"product": eff.Product,
			"error":   err.Error(),
		}).Warn("task effect failed")
		return &effectResult{Error: err.Error()}
	}

	effectOutcomes.WithLabelValues(string(eff.Action), "applied").Inc()
	logger.WithFields(log.Fields{
		"task_id": task.ID,
		"action":  string(eff.Action),
		"product": eff.Product,
		"count":   eff.Count,
	}).Info("task effect applied")
	return &effectResult{Applied: true}
}

func runEffect(inv InventoryStore, eff domain.Effect) error {
	switch eff.Action {
	case domain.EffectSell:
		return sellItem(inv, eff)
	case domain.EffectAdd:
		_, err := inv.AddItem(eff.Storage, domain.ItemCreate{Name: eff.Product, Count: eff.Count})
		return err
	case domain.EffectMove:
		_, err := inv.MoveItem(eff.Product, eff.From, eff.Storage, eff.Count)
		return err
	}
	return fmt.Errorf("unknown effect action %q", eff.Action)
}

// sellItem removes quantity from a named item, deleting the item outright
// when the sale drains it. Selling more than is available fails.
func sellItem(inv InventoryStore, eff domain.Effect) error {
	items, err := inv.Items(eff.Storage)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Name != eff.Product {
			continue
		}
		if eff.Count > item.Count {
			return fmt.Errorf("item %q: %d available, %d requested: %w",
				eff.Product, item.Count, eff.Count, storage.ErrInsufficientQuantity)
		}
		if eff.Count == item.Count {
			_, err := inv.DeleteItem(item.ID)
			return err
		}
		remaining := item.Count - eff.Count
		_, err := inv.UpdateItem(item.ID, domain.ItemUpdate{Count: &remaining})
		return err
	}
	return fmt.Errorf("item %q in storage %q: %w", eff.Product, eff.Storage, storage.ErrNotFound)
}
