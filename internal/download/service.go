package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/etdget/etd-downloader/internal/browser"
	"github.com/etdget/etd-downloader/internal/model"
	"github.com/etdget/etd-downloader/internal/platform"
)

// File permissions for written PDFs
const DefaultFilePermissions = 0644

// Upper bound of events one task can emit (Fetching, Writing, terminal). The
// event channel is sized from this so workers never block on a slow consumer.
const eventsPerTask = 4

// Event is one task-state transition in a batch run
type Event struct {
	TaskID string
	Status model.TaskStatus
	Task   *model.BatchTask // snapshot taken at the transition
}

// Service starts batch runs over a shared browser capability
type Service struct {
	capability   browser.Capability
	fetchTimeout time.Duration
	overwrite    bool
}

// NewService creates a new batch service
func NewService(capability browser.Capability) *Service {
	return &Service{
		capability:   capability,
		fetchTimeout: DefaultFetchTimeout,
	}
}

// SetFetchTimeout sets the per-fetch timeout for subsequent runs
func (s *Service) SetFetchTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.fetchTimeout = timeout
	}
}

// SetOverwrite allows runs to overwrite a file that existed before the run.
// Collisions within a run still get numeric suffixes.
func (s *Service) SetOverwrite(overwrite bool) {
	s.overwrite = overwrite
}

// Run starts a batch download. It fails only when the destination directory
// cannot be created or written; individual URLs fail as task outcomes without
// aborting the batch. The returned handle owns its tasks and is not
// restartable.
func (s *Service) Run(ctx context.Context, urls []string, directory string, maxParallel int) (*Run, error) {
	if maxParallel < 1 {
		maxParallel = 1
	}
	if err := platform.EnsureWritableDirectory(directory); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		cancel:    cancel,
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	for _, u := range urls {
		run.tasks = append(run.tasks, &model.BatchTask{
			ID:     generateTaskID(),
			URL:    u,
			Status: model.TaskStatusPending,
		})
	}
	run.events = make(chan Event, eventsPerTask*len(run.tasks)+1)

	fetcher := NewFetcher(s.capability)
	fetcher.SetTimeout(s.fetchTimeout)
	resolver := NewResolver(directory, s.overwrite)

	go run.loop(runCtx, fetcher, resolver, maxParallel)
	return run, nil
}

// generateTaskID generates a unique task ID
func generateTaskID() string {
	return fmt.Sprintf("task-%s", uuid.NewString())
}

// Run is the observable handle of one batch invocation. It owns its tasks
// exclusively; accessors hand out snapshots.
type Run struct {
	mu         sync.RWMutex
	tasks      []*model.BatchTask
	events     chan Event
	cancel     context.CancelFunc
	done       chan struct{}
	startedAt  time.Time
	finishedAt time.Time
}

// Events returns the run's progress stream: one event per task-state
// transition, closed once every task is terminal. Consumers correlate by
// task ID, not position; completion order is unconstrained.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Done is closed when the run has finished or been cancelled
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel requests a cooperative stop: no new fetches start and in-flight
// tasks abort at their next checkpoint. Files already written are kept.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait blocks until the run ends and returns final task snapshots in input order
func (r *Run) Wait() []*model.BatchTask {
	<-r.done
	return r.Tasks()
}

// Tasks returns snapshots of all tasks in input order
func (r *Run) Tasks() []*model.BatchTask {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.BatchTask, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Summary counts terminal task states
func (r *Run) Summary() (succeeded, failed, cancelled int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tasks {
		switch t.Status {
		case model.TaskStatusSucceeded:
			succeeded++
		case model.TaskStatusFailed:
			failed++
		case model.TaskStatusCancelled:
			cancelled++
		}
	}
	return
}

// loop resolves URLs, dispatches fetch workers, and closes the run
func (r *Run) loop(ctx context.Context, fetcher *Fetcher, resolver *Resolver, maxParallel int) {
	defer func() {
		r.mu.Lock()
		r.finishedAt = time.Now()
		r.mu.Unlock()
		close(r.events)
		close(r.done)
	}()

	// Parse up front: a malformed URL fails its task immediately and never
	// consumes a worker slot.
	var pending []*model.BatchTask
	for _, task := range r.tasks {
		ref, err := platform.ParseViewerURL(task.URL)
		if err != nil {
			r.fail(task, err)
			continue
		}
		r.mu.Lock()
		task.Ref = ref
		r.mu.Unlock()
		pending = append(pending, task)
	}

	g := new(errgroup.Group)
	g.SetLimit(maxParallel)
	for _, task := range pending {
		t := task
		g.Go(func() error {
			r.process(ctx, t, fetcher, resolver)
			return nil
		})
	}
	g.Wait()
}

// process runs one task to a terminal state. Cancellation is checked between
// steps; a fetch already past its last checkpoint is allowed to finish.
func (r *Run) process(ctx context.Context, task *model.BatchTask, fetcher *Fetcher, resolver *Resolver) {
	if ctx.Err() != nil {
		r.markCancelled(task)
		return
	}

	r.transition(task, model.TaskStatusFetching, func(t *model.BatchTask) {
		t.StartedAt = time.Now()
	})

	result, err := fetcher.Fetch(ctx, task.Ref)
	if err != nil {
		if ctx.Err() != nil {
			r.markCancelled(task)
			return
		}
		r.fail(task, err)
		return
	}
	if ctx.Err() != nil {
		r.markCancelled(task)
		return
	}

	r.transition(task, model.TaskStatusWriting, func(t *model.BatchTask) {
		t.HTTPStatus = result.HTTPStatus
		t.ContentType = result.ContentType
	})

	dest, err := resolver.Resolve(task.Ref)
	if err != nil {
		r.fail(task, err)
		return
	}
	if err := os.WriteFile(dest.Path(), result.Body, DefaultFilePermissions); err != nil {
		r.fail(task, model.NewFetchError(model.KindWriteFailure, "write %s: %v", dest, err))
		return
	}

	r.transition(task, model.TaskStatusSucceeded, func(t *model.BatchTask) {
		t.OutputPath = dest.Path()
		t.FileSize = int64(len(result.Body))
		t.FinishedAt = time.Now()
	})
}

// transition applies mutate and the new status under the lock, then emits an event
func (r *Run) transition(task *model.BatchTask, status model.TaskStatus, mutate func(*model.BatchTask)) {
	r.mu.Lock()
	if mutate != nil {
		mutate(task)
	}
	task.Status = status
	snapshot := task.Clone()
	r.mu.Unlock()

	r.emit(snapshot)
}

// fail moves a task to Failed with its classified kind
func (r *Run) fail(task *model.BatchTask, err error) {
	r.mu.Lock()
	task.Status = model.TaskStatusFailed
	task.Kind = model.KindOf(err)
	task.LastError = err.Error()
	var fe *model.FetchError
	if errors.As(err, &fe) && fe.HTTPStatus > 0 {
		task.HTTPStatus = fe.HTTPStatus
	}
	task.FinishedAt = time.Now()
	snapshot := task.Clone()
	r.mu.Unlock()

	log.Printf("task %s failed (%s): %v", task.ID, snapshot.Kind, err)
	r.emit(snapshot)
}

// markCancelled moves an undispatched or aborted task to Cancelled
func (r *Run) markCancelled(task *model.BatchTask) {
	r.mu.Lock()
	task.Status = model.TaskStatusCancelled
	task.FinishedAt = time.Now()
	snapshot := task.Clone()
	r.mu.Unlock()

	r.emit(snapshot)
}

// emit publishes an event. The channel is sized for the worst case, so the
// default branch only guards against a consumer that somehow re-reads the
// channel after Wait.
func (r *Run) emit(snapshot *model.BatchTask) {
	select {
	case r.events <- Event{TaskID: snapshot.ID, Status: snapshot.Status, Task: snapshot}:
	default:
	}
}
