package activity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned by Record before Start or after Stop
	ErrNotStarted = errors.New("activity recorder not running")

	// ErrBufferFull is returned when an entry is dropped
	ErrBufferFull = errors.New("activity buffer full")
)

// Config holds configuration for the Recorder
type Config struct {
	BufferSize  int // Size of the entry buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// Recorder writes activity entries in the background. Record never blocks
// a request; a full buffer drops the entry with a warning.
type Recorder struct {
	repo        repositories.ActivityRepository
	logger      *zap.Logger
	entries     chan *models.ActivityEntry
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
	dropped     uint64
	written     uint64
}

// NewRecorder creates a new Recorder instance
func NewRecorder(repo repositories.ActivityRepository, logger *zap.Logger, config Config) *Recorder {
	defaults := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}

	return &Recorder{
		repo:        repo,
		logger:      logger,
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("activity recorder already started")
	}

	r.entries = make(chan *models.ActivityEntry, r.bufferSize)
	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(i, r.entries)
	}

	r.running = true
	r.logger.Info("started activity recorder",
		zap.Int("worker_count", r.workerCount),
		zap.Int("buffer_size", r.bufferSize))

	return nil
}

// Stop stops accepting entries and waits for the buffer to drain
func (r *Recorder) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotStarted
	}
	r.running = false
	pending := len(r.entries)
	close(r.entries)
	r.mu.Unlock()

	r.logger.Info("stopping activity recorder", zap.Int("pending_entries", pending))

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("activity recorder stopped")
		return nil
	case <-time.After(timeout):
		return errors.New("activity recorder stop timed out")
	}
}

// Record queues an entry without blocking
func (r *Recorder) Record(entry *models.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrNotStarted
	}

	select {
	case r.entries <- entry:
		return nil
	default:
		r.dropped++
		r.logger.Warn("activity buffer full, dropping entry",
			zap.String("action", string(entry.Action)),
			zap.String("request_id", entry.RequestID))
		return ErrBufferFull
	}
}

func (r *Recorder) worker(id int, entries <-chan *models.ActivityEntry) {
	defer r.wg.Done()

	r.logger.Debug("activity worker started", zap.Int("worker_id", id))

	for entry := range entries {
		if err := r.write(entry); err != nil {
			r.logger.Error("failed to write activity entry",
				zap.Int("worker_id", id),
				zap.String("action", string(entry.Action)),
				zap.Error(err))
			continue
		}
		r.mu.Lock()
		r.written++
		r.mu.Unlock()
	}

	r.logger.Debug("activity worker stopped", zap.Int("worker_id", id))
}

func (r *Recorder) write(entry *models.ActivityEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.repo.Insert(ctx, entry)
}

// Stats represents recorder statistics
type Stats struct {
	BufferSize     int    `json:"buffer_size"`
	PendingEntries int    `json:"pending_entries"`
	WorkerCount    int    `json:"worker_count"`
	Running        bool   `json:"running"`
	Written        uint64 `json:"written"`
	Dropped        uint64 `json:"dropped"`
}

// GetStats returns statistics about the recorder
func (r *Recorder) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		BufferSize:     r.bufferSize,
		PendingEntries: len(r.entries),
		WorkerCount:    r.workerCount,
		Running:        r.running,
		Written:        r.written,
		Dropped:        r.dropped,
	}
}

// SignIn records a successful sign-in
func (r *Recorder) SignIn(actorID uuid.UUID, provider, requestID string) error {
	entry := models.NewActivityEntry(models.ActivitySignIn, "session").
		WithActor(actorID).
		WithDetails(map[string]string{"provider": provider}).
		WithRequestID(requestID)
	return r.Record(entry)
}

// SignOut records a sign-out
func (r *Recorder) SignOut(actorID uuid.UUID, requestID string) error {
	entry := models.NewActivityEntry(models.ActivitySignOut, "session").
		WithActor(actorID).
		WithRequestID(requestID)
	return r.Record(entry)
}

// OrderStatusChanged records an order transition
func (r *Recorder) OrderStatusChanged(actorID, orderID uuid.UUID, from, to models.OrderStatus, requestID string) error {
	entry := models.NewActivityEntry(models.ActivityOrderStatusChanged, "order").
		WithActor(actorID).
		WithResource(orderID).
		WithDetails(map[string]string{"from": string(from), "to": string(to)}).
		WithRequestID(requestID)
	return r.Record(entry)
}

// InventoryChanged records an inventory create, update or delete
func (r *Recorder) InventoryChanged(action models.ActivityAction, actorID, itemID uuid.UUID, name, requestID string) error {
	entry := models.NewActivityEntry(action, "inventory_item").
		WithActor(actorID).
		WithResource(itemID).
		WithDetails(map[string]string{"name": name}).
		WithRequestID(requestID)
	return r.Record(entry)
}
