package lod

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Job is one queued generation. Its config must not be touched until Done is closed.
type Job struct {
	cfg *Config
	buf *MeshBuffer
	ctx context.Context

	done    chan struct{}
	session *Session
	err     error
}

func newJob(ctx context.Context, cfg *Config) *Job {
	return &Job{cfg: cfg, ctx: ctx, done: make(chan struct{})}
}

func (j *Job) finish(s *Session, err error) {
	j.session, j.err = s, err
	close(j.done)
}

// Done is closed once the job has produced its levels or failed.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is cancelled.
func (j *Job) Wait(ctx context.Context) (*Session, error) {
	select {
	case <-j.done:
		return j.session, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Inject attaches the finished job's levels to its mesh. Call it from the
// goroutine that owns the mesh, after Done.
func (j *Job) Inject() error {
	select {
	case <-j.done:
	default:
		return ErrJobPending
	}
	if j.err != nil {
		return j.err
	}
	return j.session.Inject()
}

// Queue runs generation jobs one at a time on a background goroutine. Jobs
// read a copy of the mesh taken at Submit and never modify the mesh itself.
type Queue struct {
	gen *Generator
	log *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan *Job
	wg     sync.WaitGroup
}

// NewQueue starts a queue holding up to size pending jobs.
func NewQueue(g *Generator, size int) *Queue {
	q := &Queue{
		gen:  g,
		log:  g.log.Named("queue"),
		jobs: make(chan *Job, max(size, 0)),
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Submit validates cfg, copies its mesh and queues the job. Errors are
// reported through the returned job.
func (q *Queue) Submit(ctx context.Context, cfg *Config) *Job {
	j := newJob(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		j.finish(nil, err)
		return j
	}
	buf, err := CaptureMeshBuffer(cfg.Mesh)
	if err != nil {
		j.finish(nil, err)
		return j
	}
	j.buf = buf

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		j.finish(nil, ErrQueueClosed)
		return j
	}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		j.finish(nil, ctx.Err())
	}
	return j
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(j)
	}
}

func (q *Queue) run(j *Job) {
	if err := j.ctx.Err(); err != nil {
		q.log.Debug("job cancelled before start", zap.String("mesh", j.buf.MeshName))
		j.finish(nil, err)
		return
	}

	if j.cfg.ManualOnly() {
		s := q.gen.NewSession(j.cfg, nil)
		s.runManual(len(j.buf.SubMeshes))
		q.log.Debug("manual job finished", zap.String("mesh", j.buf.MeshName))
		j.finish(s, nil)
		return
	}

	s := q.gen.NewSession(j.cfg, &BufferInput{Buffer: j.buf})
	if err := s.Run(); err != nil {
		q.log.Warn("job failed", zap.String("mesh", j.buf.MeshName), zap.Error(err))
		j.finish(nil, err)
		return
	}
	q.log.Debug("job finished", zap.String("mesh", j.buf.MeshName))
	j.finish(s, nil)
}

// GenerateAsync queues cfg on the generator's background queue, starting it on
// first use. Inject the result with Job.Inject.
func (g *Generator) GenerateAsync(ctx context.Context, cfg *Config) *Job {
	g.queueOnce.Do(func() {
		g.queue = NewQueue(g, 16)
	})
	if g.queue == nil {
		// Close ran before the queue was ever started
		j := newJob(ctx, cfg)
		j.finish(nil, ErrQueueClosed)
		return j
	}
	return g.queue.Submit(ctx, cfg)
}

// Close shuts down the background queue, if one was started.
func (g *Generator) Close() {
	g.queueOnce.Do(func() {})
	if g.queue != nil {
		g.queue.Close()
	}
}
