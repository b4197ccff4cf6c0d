package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/riverqueue/river"
)

const deliverTimeout = 10 * time.Second

// NotificationWorker POSTs the event JSON to the configured messaging
// gateway (the email/SMS provider's webhook). Delivery is best-effort:
// River retries transient failures, and a permanently failing gateway
// only ever produces dead jobs, never rolled-back assignments.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationArgs]
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewNotificationWorker(webhookURL string, logger *slog.Logger) *NotificationWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationWorker{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: deliverTimeout},
		logger:     logger,
	}
}

func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationArgs]) error {
	if w.webhookURL == "" {
		w.logger.Info("notification gateway not configured, dropping event",
			"event", job.Args.Event, "assignment_id", job.Args.AssignmentID)
		return nil
	}

	body, err := json.Marshal(job.Args)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification gateway returned status %d", resp.StatusCode)
	}

	w.logger.Info("notification delivered",
		"event", job.Args.Event,
		"assignment_id", job.Args.AssignmentID,
		"contractor_id", job.Args.ContractorID)
	return nil
}
