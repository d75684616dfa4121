package main

import (
	"context"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/models"
	"github.com/sirupsen/logrus"
)

const (
	outboxBatchSize   = 50
	outboxInterval    = 2 * time.Second
	outboxMaxAttempts = 10
)

// runOutboxDispatcher drains pending allocation events and publishes them to
// Pub/Sub. Rows are claimed with SKIP LOCKED so multiple instances can run
// the loop without double-publishing; delivery stays at-least-once either
// way, consumers must dedupe on record id.
func runOutboxDispatcher(ctx context.Context, logger *logrus.Logger) {
	if !outboxDispatchEnabled() {
		logger.WithFields(logrus.Fields{"field": "outbox"}).Warn("outbox dispatch disabled; allocation events will stay pending")
		return
	}

	// Make sure the topic exists before the first claim; a misconfigured
	// broker should surface here once, not once per batch.
	client, err := config.GetClient(ctx)
	if err != nil {
		config.LogError(logger, "server", "runOutboxDispatcher", "init pubsub client", nil, err)
		return
	}
	if _, err := config.CreateTopicIfNotExists(client, os.Getenv("PUBSUB_TOPIC")); err != nil {
		config.LogError(logger, "server", "runOutboxDispatcher", "ensure pubsub topic", nil, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		dispatchOnce(ctx, logger)
		select {
		case <-ctx.Done():
			return
		case <-time.After(outboxInterval):
		}
	}
}

func outboxDispatchEnabled() bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv("OUTBOX_DISPATCH")))
	if val == "false" {
		return false
	}
	// Without a project there is no broker to publish to; rows stay pending
	// until an operator configures Pub/Sub and restarts.
	if os.Getenv("PUBSUB_PROJECT_ID") == "" &&
		os.Getenv("GOOGLE_CLOUD_PROJECT") == "" &&
		os.Getenv("GCP_PROJECT") == "" {
		return false
	}
	return true
}

func dispatchOnce(ctx context.Context, logger *logrus.Logger) {
	claimed, err := models.ClaimPendingAllocationEvents(ctx, outboxBatchSize)
	if err != nil {
		config.LogError(logger, "server", "dispatchOnce", "claim pending events", nil, err)
		return
	}

	for _, rec := range claimed {
		publishedId, err := config.PublishAllocationEvent(ctx, rec.ToMessage())
		if err != nil {
			config.LogError(logger, "server", "dispatchOnce", "publish allocation event",
				map[string]any{"recordId": rec.ID, "attempts": rec.Attempts}, err)
			if markErr := models.MarkAllocationEventFailed(ctx, rec.ID, rec.Attempts, outboxMaxAttempts); markErr != nil {
				config.LogError(logger, "server", "dispatchOnce", "mark event failed",
					map[string]any{"recordId": rec.ID}, markErr)
			}
			continue
		}
		if err := models.MarkAllocationEventPublished(ctx, rec.ID, publishedId); err != nil {
			// The publish went out; worst case the row is claimed again and
			// the consumer sees a duplicate.
			config.LogError(logger, "server", "dispatchOnce", "mark event published",
				map[string]any{"recordId": rec.ID}, err)
		}
	}
}
