package renderer

import (
	"fmt"
	"image"
	"runtime"
	"sync"
)

// TileTask asks a worker to clear, rasterize and resolve one tile
type TileTask struct {
	Tile      *Tile
	TaskID    int         // Index of the tile in the grid
	Triangles []*triangle // Triangles overlapping the tile, in submission order
	Target    *image.RGBA // Resolved colours are written here, inside Tile.Bounds only
	Frame     *Framebuffer
}

// TileResult contains the result from rasterizing a tile
type TileResult struct {
	TaskID int
	Stats  TileStats
	Error  error
}

// WorkerPool manages parallel tile rasterization
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual tile tasks
type Worker struct {
	ID          int
	taskQueue   chan TileTask
	resultQueue chan TileResult
	handle      func(TileTask) TileStats
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// maxTasks bounds how many tasks may be queued without blocking.
func NewWorkerPool(maxTasks, numWorkers int, handle func(TileTask) TileStats) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, maxTasks),   // Buffer for all tiles of a frame
		resultQueue: make(chan TileResult, maxTasks), // Buffer for all results of a frame
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
			handle:      handle,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- w.process(task)
	}
}

// process runs one task, turning a panic in a shading program into an error
func (w *Worker) process(task TileTask) (result TileResult) {
	result.TaskID = task.TaskID
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("worker %d: tile %d: %v", w.ID, task.TaskID, r)
		}
	}()

	result.Stats = w.handle(task)
	return result
}
