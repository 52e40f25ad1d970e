package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/frahmantamala/event-scheduler/internal/core/events"
)

// Delivery is one lifecycle message waiting to be posted.
type Delivery struct {
	MessageID  string      `json:"id"`
	Topic      string      `json:"topic"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type Worker struct {
	ID         int
	WorkerPool chan chan Delivery
	JobChannel chan Delivery
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Delivery, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Delivery),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Delivery)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing delivery", "worker_id", w.ID, "message_id", job.MessageID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	URL          string
	Timeout      time.Duration
	MaxWorkers   int
	QueueSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Client posts lifecycle messages to an external endpoint from a fixed pool
// of workers. Enqueueing never blocks: a full queue drops the delivery.
type Client struct {
	url          string
	timeout      time.Duration
	maxAttempts  int
	retryBackoff time.Duration
	httpClient   *http.Client
	logger       *slog.Logger

	jobQueue   chan Delivery
	workerPool chan chan Delivery
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	pending    sync.WaitGroup
	once       sync.Once
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	client := &Client{
		url:          config.URL,
		timeout:      timeout,
		maxAttempts:  maxAttempts,
		retryBackoff: config.RetryBackoff,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Delivery, queueSize),
		workerPool: make(chan chan Delivery, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {
		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.deliver)
		}

		c.wg.Add(1)
		go c.dispatch()

		c.logger.Info("webhook worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:
			select {
			case jobChannel := <-c.workerPool:
				select {
				case jobChannel <- job:
				case <-c.ctx.Done():
					c.pending.Done()
					return
				}
			case <-c.ctx.Done():
				c.pending.Done()
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("webhook dispatcher shutting down")
			return
		}
	}
}

// Handler adapts the client to the event bus.
func (c *Client) Handler() events.Handler {
	return func(_ context.Context, msg events.Message) error {
		return c.Enqueue(Delivery{
			MessageID:  msg.MessageID(),
			Topic:      msg.Topic(),
			OccurredAt: msg.OccurredAt(),
			Data:       msg.Payload(),
		})
	}
}

func (c *Client) Enqueue(d Delivery) error {
	c.pending.Add(1)
	select {
	case c.jobQueue <- d:
		return nil
	default:
		c.pending.Done()
		c.logger.Warn("webhook queue full, dropping delivery",
			"message_id", d.MessageID,
			"queue_capacity", cap(c.jobQueue))
		return fmt.Errorf("webhook queue full")
	}
}

// Flush waits until every queued delivery has been attempted.
func (c *Client) Flush() {
	c.pending.Wait()
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down webhook client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("webhook client shutdown complete")
}

func (c *Client) deliver(d Delivery) {
	defer c.pending.Done()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := c.post(d)
		if err == nil {
			c.logger.Debug("webhook delivered", "message_id", d.MessageID, "attempt", attempt)
			return
		}
		c.logger.Warn("webhook delivery failed",
			"message_id", d.MessageID,
			"attempt", attempt,
			"error", err)

		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-time.After(c.retryBackoff * time.Duration(attempt)):
		case <-c.ctx.Done():
			c.logger.Info("webhook delivery cancelled", "message_id", d.MessageID)
			return
		}
	}

	c.logger.Error("webhook delivery abandoned", "message_id", d.MessageID, "topic", d.Topic)
}

func (c *Client) post(d Delivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Topic", d.Topic)
	req.Header.Set("X-Message-ID", d.MessageID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
