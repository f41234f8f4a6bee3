package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/okutsev/certwatch/app/database"
	"github.com/okutsev/certwatch/app/feed"
	"github.com/okutsev/certwatch/app/notify"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler drives the poll cycle: every interval it enqueues one
// PollFeedTask per configured feed onto a worker pool. Task failures are
// logged and absorbed; nothing a single feed or bulletin does can stop the
// loop.
type Scheduler struct {
	sources    []feed.Source
	poller     *feed.Poller
	store      database.BulletinStore
	dispatcher *notify.Dispatcher
	watchlist  []string

	interval    time.Duration
	workerCount int
	taskTimeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(sources []feed.Source, poller *feed.Poller, store database.BulletinStore,
	dispatcher *notify.Dispatcher, watchlist []string, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		sources:     sources,
		poller:      poller,
		store:       store,
		dispatcher:  dispatcher,
		watchlist:   watchlist,
		interval:    interval,
		workerCount: workerCount,
		taskTimeout: 5 * time.Minute,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueuePollTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueuePollTasks()
			}
		}
	}()
}

// Stop cancels the loop and waits for in-flight tasks to finish their
// current unit of work. Safe to call before closing the store: no write
// initiated by a task is outstanding once Stop returns.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	// Checked first so a stopped scheduler never sends on the closed queue.
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueuePollTasks() {
	if len(s.sources) == 0 {
		slog.Debug("No feeds configured")
		return
	}

	slog.Debug("Enqueueing poll tasks", "count", len(s.sources))

	for _, source := range s.sources {
		task := NewPollFeedTask(source, s.poller, s.store, s.dispatcher, s.watchlist)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue PollFeedTask", "feed", source.Label, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed",
			"worker_id", workerID,
			"type", string(task.GetType()),
			"id", task.GetID(),
			"feed", task.GetFeedLabel(),
			"error", err)
	}
}
