// Package watcher polls one event domain, matches new events against active
// automations and hands matched pairs to the execution engine. One watcher
// per domain; each event is acted on at most once.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reflexhq/reflex/pkg/engine"
	"github.com/reflexhq/reflex/pkg/match"
	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/persistence"
	"github.com/reflexhq/reflex/pkg/protocol"
)

const (
	// DefaultInterval between polls.
	DefaultInterval = 2 * time.Minute

	// maxEventsPerPoll caps how many events one poll pulls from the source.
	maxEventsPerPoll = 20

	// firstRunLookback bounds the first poll after a fresh start.
	firstRunLookback = time.Hour
)

type Watcher struct {
	source   protocol.EventSource
	matcher  *match.Matcher
	engine   *engine.Engine
	states   persistence.WatcherStateRepository
	store    persistence.AutomationRepository
	logger   *slog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewWatcher wires a watcher for one source. The state repository is passed
// separately from the automation store so the checkpoint can live in a
// different backend (Redis) than the automations.
func NewWatcher(source protocol.EventSource, eng *engine.Engine, automations persistence.AutomationRepository, states persistence.WatcherStateRepository, logger *slog.Logger) *Watcher {
	return &Watcher{
		source:  source,
		matcher: match.NewMatcher(logger),
		engine:  eng,
		states:  states,
		store:   automations,
		logger:  logger.With("module", "watcher", "domain", source.Domain()),
		stop:    make(chan struct{}),
	}
}

// Start polls until ctx is cancelled, Stop is called, or maxIterations polls
// have run (0 means unbounded). A failing poll is logged and the loop keeps
// going; the checkpoint is only advanced by polls that complete.
func (w *Watcher) Start(ctx context.Context, interval time.Duration, maxIterations int) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	w.logger.InfoContext(ctx, "Watcher started", "interval", interval)

	for iteration := 0; maxIterations == 0 || iteration < maxIterations; iteration++ {
		if err := w.Poll(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Poll failed", "error", err)
		}

		if maxIterations > 0 && iteration == maxIterations-1 {
			break
		}

		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Watcher stopping", "reason", ctx.Err())

			return nil
		case <-w.stop:
			w.logger.Info("Watcher stopped")

			return nil
		case <-time.After(interval):
		}
	}

	return nil
}

// Stop ends the poll loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Poll runs one poll cycle: list active automations for this domain, query
// the source from the checkpoint, run every new matching event, then advance
// the checkpoint.
func (w *Watcher) Poll(ctx context.Context) error {
	domain := w.source.Domain()

	automations, err := w.activeAutomations(ctx)
	if err != nil {
		return err
	}

	if len(automations) == 0 {
		w.logger.DebugContext(ctx, "No active automations, skipping poll")

		return nil
	}

	state, err := w.states.Get(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to load watcher state: %w", err)
	}

	if state == nil {
		state = models.NewWatcherState()
	}

	if state.Processed == nil {
		state.Processed = models.NewProcessedSet()
	}

	since := w.sinceTime(state)
	events, err := w.source.Search(ctx, w.buildQuery(since), maxEventsPerPoll)
	if err != nil {
		return fmt.Errorf("failed to query %s source: %w", domain, err)
	}

	w.logger.DebugContext(ctx, "Poll fetched events",
		"events", len(events), "automations", len(automations), "since", since)

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		if state.Processed.Contains(event.EventID()) {
			continue
		}

		w.processEvent(ctx, event, automations)
		state.Processed.Add(event.EventID())
	}

	now := time.Now().UTC()
	state.LastCheck = &now

	if err := w.states.Save(ctx, domain, state); err != nil {
		return fmt.Errorf("failed to save watcher state: %w", err)
	}

	return nil
}

// processEvent runs every automation whose trigger matches. An event counts
// as processed even when nothing matched, failures included; polling never
// retries an event.
func (w *Watcher) processEvent(ctx context.Context, event models.EventRecord, automations []*models.Automation) {
	for _, automation := range automations {
		if !w.matcher.Matches(event, automation.Trigger) {
			continue
		}

		w.logger.InfoContext(ctx, "Event matched automation",
			"event_id", event.EventID(), "automation_id", automation.ID)

		triggerEvent := &models.TriggerEvent{
			Type:      string(w.source.Domain()),
			Data:      event.TriggerData(),
			Timestamp: time.Now().UTC(),
		}

		execution, err := w.engine.Run(ctx, automation, triggerEvent, false)
		if err != nil {
			w.logger.ErrorContext(ctx, "Execution could not be recorded",
				"automation_id", automation.ID, "error", err)

			continue
		}

		if execution.Status == models.ExecutionStatusFailed {
			w.logger.WarnContext(ctx, "Execution failed",
				"automation_id", automation.ID, "execution_id", execution.ID)
		}
	}
}

func (w *Watcher) activeAutomations(ctx context.Context) ([]*models.Automation, error) {
	status := models.AutomationStatusActive

	all, err := w.store.List(ctx, &status)
	if err != nil {
		return nil, fmt.Errorf("failed to list active automations: %w", err)
	}

	domain := w.source.Domain()
	matching := make([]*models.Automation, 0, len(all))

	for _, automation := range all {
		if automation.Trigger != nil && automation.Trigger.Type == domain {
			matching = append(matching, automation)
		}
	}

	return matching, nil
}

func (w *Watcher) sinceTime(state *models.WatcherState) time.Time {
	if state.LastCheck != nil {
		return *state.LastCheck
	}

	return time.Now().UTC().Add(-firstRunLookback)
}

// buildQuery renders the checkpoint into the source's query language.
func (w *Watcher) buildQuery(since time.Time) string {
	switch w.source.Domain() {
	case models.TriggerTypeEmail:
		return fmt.Sprintf("in:inbox after:%d", since.Unix())
	case models.TriggerTypeCodeReview:
		return fmt.Sprintf("updated:>%s", since.Format(time.RFC3339))
	default:
		return since.Format(time.RFC3339)
	}
}
