// Package notify delivers best-effort lecture-reschedule notifications
// when a presentation booking claims an examiner's day. Delivery is
// fire-and-forget from the booking path: one examiner's failure never
// touches the others or the booking itself.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/unidept/presentation-scheduler/pkg/config"
	"github.com/unidept/presentation-scheduler/pkg/jobs"
)

// LectureRescheduler pushes a single "lectures on this date need
// rearranging" notice for one examiner.
type LectureRescheduler interface {
	RescheduleLectures(ctx context.Context, examinerCode, date string) error
}

// WebhookRescheduler posts reschedule notices to the timetabling
// system's webhook endpoint.
type WebhookRescheduler struct {
	url    string
	client *http.Client
}

// NewWebhookRescheduler builds a webhook-backed rescheduler.
func NewWebhookRescheduler(url string, timeout time.Duration) *WebhookRescheduler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookRescheduler{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type lectureReschedulePayload struct {
	ExaminerCode string `json:"lecturer_id"`
	Date         string `json:"date"`
}

// RescheduleLectures posts the examiner code and affected date.
func (w *WebhookRescheduler) RescheduleLectures(ctx context.Context, examinerCode, date string) error {
	body, err := json.Marshal(lectureReschedulePayload{ExaminerCode: examinerCode, Date: date})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post reschedule notice: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("reschedule endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Dispatcher fans reschedule notices out through a background worker
// queue with retries, keeping the booking commit path synchronous only
// up to the enqueue.
type Dispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

type noticeJob struct {
	ExaminerCode string
	Date         string
}

// NewDispatcher wires a rescheduler behind a worker queue.
func NewDispatcher(rescheduler LectureRescheduler, cfg config.NotificationsConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		notice, ok := job.Payload.(noticeJob)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return rescheduler.RescheduleLectures(ctx, notice.ExaminerCode, notice.Date)
	}
	queue := jobs.NewQueue("lecture-reschedule", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &Dispatcher{queue: queue, logger: logger}
}

// Start launches the dispatch workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues one notice per examiner code. Enqueue failures are
// logged per examiner and never propagated.
func (d *Dispatcher) Dispatch(examinerCodes []string, date string) {
	for _, code := range examinerCodes {
		err := d.queue.Enqueue(jobs.Job{
			Type:    "lecture-reschedule",
			Payload: noticeJob{ExaminerCode: code, Date: date},
		})
		if err != nil {
			d.logger.Warn("failed to enqueue lecture reschedule notice",
				zap.String("examiner", code), zap.String("date", date), zap.Error(err))
		}
	}
}
