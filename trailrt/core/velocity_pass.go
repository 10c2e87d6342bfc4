package core

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Below this many vertices the pass runs inline on the calling goroutine.
	DefaultParallelThreshold = 4096

	velocityPoolQueueSize   = 256
	velocityPoolIdleTimeout = 1 * time.Second
)

// VelocityPass derives per-vertex world positions and per-frame displacement from a
// skinned pose and commits them into a VertexStateBuffer.
//
// Per-vertex work is independent, so large meshes are split into contiguous ranges and
// fanned out over a persistent worker pool. A WaitGroup is the frame barrier: Commit
// only happens after every range is written, so readers never see a partial pass.
type VelocityPass struct {
	pool    worker.DynamicWorkerPool
	workers int
	taskID  int

	// ParallelThreshold is the vertex count from which the pool is used.
	ParallelThreshold int
}

// NewVelocityPass creates a pass backed by the given number of workers.
// workers <= 0 picks NumCPU-1 (at least 1); workers == 1 never starts a pool.
func NewVelocityPass(workers int) *VelocityPass {
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	p := &VelocityPass{
		workers:           workers,
		ParallelThreshold: DefaultParallelThreshold,
	}
	if workers > 1 {
		p.pool = worker.NewDynamicWorkerPool(workers, velocityPoolQueueSize, velocityPoolIdleTimeout)
	}
	return p
}

func (p *VelocityPass) Workers() int {
	return p.workers
}

// Seed runs the one-time initialization pass: position = world * skinned, velocity = 0.
// It may be called again after the buffer was reallocated.
func (p *VelocityPass) Seed(buf *VertexStateBuffer, world mgl32.Mat4, skinned []mgl32.Vec3) error {
	if len(skinned) != buf.Len() {
		return fmt.Errorf("seed %d skinned vertices into buffer of %d: %w", len(skinned), buf.Len(), ErrDimensionMismatch)
	}
	p.dispatch(buf, world, skinned, true)
	buf.Commit()
	buf.markSeeded()
	return nil
}

// Step runs one frame of the pass. The buffer is left untouched on error.
func (p *VelocityPass) Step(buf *VertexStateBuffer, world mgl32.Mat4, skinned []mgl32.Vec3) error {
	if !buf.Seeded() {
		return ErrUninitialized
	}
	if len(skinned) != buf.Len() {
		return fmt.Errorf("step %d skinned vertices against buffer of %d: %w", len(skinned), buf.Len(), ErrDimensionMismatch)
	}
	if buf.Len() == 0 {
		return nil
	}
	p.dispatch(buf, world, skinned, false)
	buf.Commit()
	return nil
}

func (p *VelocityPass) dispatch(buf *VertexStateBuffer, world mgl32.Mat4, skinned []mgl32.Vec3, seed bool) {
	n := buf.Len()
	if p.pool == nil || n < p.ParallelThreshold {
		buf.writeRange(0, n, world, skinned, seed)
		return
	}

	chunks := p.workers * 4
	chunkSize := (n + chunks - 1) / chunks

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		s, e := start, end
		wg.Add(1)
		id := p.taskID
		p.taskID++
		p.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				buf.writeRange(s, e, world, skinned, seed)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
