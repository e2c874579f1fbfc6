package wm

import (
	"context"
	"sync"
	"time"

	"github.com/frostplexx/yuki/pkg/models"
	"github.com/sirupsen/logrus"
)

// Default tuning knobs
const (
	DefaultReconcileDebounce        = 200 * time.Millisecond
	DefaultGeometryRetryDelay       = 50 * time.Millisecond
	DefaultFastPathWindowThreshold  = 8
	DefaultReconcilerWorkerPoolSize = 3
	activateSettleDelay             = 60 * time.Millisecond
)

// VisibleFrameFunc resolves the current usable rectangle of the monitor a
// workspace lives on, so the Reconciler never needs a back-reference to
// Monitor.
type VisibleFrameFunc func(ws *Workspace) (models.Rectangle, bool)

// reconcileJob is one unit of work the worker pool processes.
type reconcileJob struct {
	ws *Workspace
}

// schedule tracks one workspace's debounce state: whether a job is pending
// and the instant it is due. A request that finds nothing pending arms a
// fresh one-shot timer for the debounce interval; requests that arrive
// while one is pending are dropped. No persistent timer is kept or
// re-armed.
type schedule struct {
	mu      sync.Mutex
	dueAt   time.Time
	timer   *time.Timer
	pending bool
}

// Reconciler runs the debounced, per-workspace, single-flight
// reconciliation loop. Jobs for the same workspace are strictly FIFO; jobs
// for different workspaces may run concurrently, up to the worker pool
// size.
type Reconciler struct {
	debounce          time.Duration
	retryDelay        time.Duration
	fastPathThreshold int
	gaps              Gaps
	visibleFrame      VisibleFrameFunc
	log               *logrus.Entry

	jobs chan reconcileJob
	wg   sync.WaitGroup
	quit chan struct{}

	mu        sync.Mutex
	schedules map[models.WorkspaceID]*schedule
	// singleFlight serializes jobs per workspace: a job for ws only runs
	// once the previous one for the same ws has returned.
	singleFlight map[models.WorkspaceID]*sync.Mutex
}

// NewReconciler builds a reconciler with workerCount worker goroutines
// draining a buffered job queue.
func NewReconciler(workerCount int, debounce, retryDelay time.Duration, fastPathThreshold int, gaps Gaps, visibleFrame VisibleFrameFunc, log *logrus.Entry) *Reconciler {
	if workerCount <= 0 {
		workerCount = DefaultReconcilerWorkerPoolSize
	}
	r := &Reconciler{
		debounce:          debounce,
		retryDelay:        retryDelay,
		fastPathThreshold: fastPathThreshold,
		gaps:              gaps,
		visibleFrame:      visibleFrame,
		log:               log,
		jobs:              make(chan reconcileJob, 256),
		quit:              make(chan struct{}),
		schedules:         make(map[models.WorkspaceID]*schedule),
		singleFlight:      make(map[models.WorkspaceID]*sync.Mutex),
	}
	for i := 0; i < workerCount; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Stop drains in-flight jobs and terminates the worker pool. In-flight
// jobs run to completion; no new jobs are accepted after Stop returns.
func (r *Reconciler) Stop() {
	close(r.quit)
	r.wg.Wait()
}

func (r *Reconciler) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.quit:
			return
		case job := <-r.jobs:
			r.run(job.ws)
		}
	}
}

func (r *Reconciler) run(ws *Workspace) {
	lock := r.singleFlightLock(ws.ID)
	lock.Lock()
	defer lock.Unlock()

	vf, ok := r.visibleFrame(ws)
	if !ok {
		return
	}
	r.mu.Lock()
	gaps := r.gaps
	r.mu.Unlock()
	ws.ReconcileNow(context.Background(), gaps, vf, r.retryDelay)
}

func (r *Reconciler) singleFlightLock(id models.WorkspaceID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.singleFlight[id]
	if !ok {
		l = &sync.Mutex{}
		r.singleFlight[id] = l
	}
	return l
}

// RequestRetile coalesces a retile request for ws into the debounce
// window: if a job is already pending within the debounce window, drop the
// new request; otherwise schedule one.
func (r *Reconciler) RequestRetile(ws *Workspace) {
	ws.RequestRetile("event_router")

	r.mu.Lock()
	sc, ok := r.schedules[ws.ID]
	if !ok {
		sc = &schedule{}
		r.schedules[ws.ID] = sc
	}
	r.mu.Unlock()

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.pending {
		// A job is already scheduled within the debounce window; drop this
		// request, changing nothing.
		return
	}
	sc.dueAt = time.Now().Add(r.debounce)
	sc.pending = true
	sc.timer = time.AfterFunc(r.debounce, func() {
		sc.mu.Lock()
		sc.pending = false
		sc.mu.Unlock()
		select {
		case r.jobs <- reconcileJob{ws: ws}:
		case <-r.quit:
		}
	})
}

// FastPathDestroy implements the performance-critical path:
// window-destroyed events on an Active workspace with fewer than
// fastPathThreshold windows apply synchronously, bypassing the debounce
// entirely, so closing a window visibly rebalances the others without a
// one-frame gap.
func (r *Reconciler) FastPathDestroy(ctx context.Context, ws *Workspace) bool {
	if ws.State() != Active || ws.WindowCount() >= r.fastPathThreshold {
		return false
	}
	vf, ok := r.visibleFrame(ws)
	if !ok {
		return false
	}

	lock := r.singleFlightLock(ws.ID)
	lock.Lock()
	defer lock.Unlock()
	r.mu.Lock()
	gaps := r.gaps
	r.mu.Unlock()
	ws.ReconcileNow(ctx, gaps, vf, r.retryDelay)
	return true
}

// SetGaps updates the gap configuration applied to subsequent
// reconciliations. Takes effect for any job not already mid-flight.
func (r *Reconciler) SetGaps(gaps Gaps) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gaps = gaps
}

// ScheduleSettledReconcile requests a retile after the post-activate settle
// delay to account for asynchronous window-restore animations completing
// after Activate returns.
func (r *Reconciler) ScheduleSettledReconcile(ws *Workspace) {
	time.AfterFunc(activateSettleDelay, func() {
		r.RequestRetile(ws)
	})
}
