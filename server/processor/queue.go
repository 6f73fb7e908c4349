package processor

import (
	"fmt"
	"sync"
	"time"

	"leafguard/server/models"
)

// ProcessingQueue fans prediction jobs out to a fixed pool of workers over a
// bounded channel. Enqueue never blocks; a full queue is reported to the
// caller instead.
type ProcessingQueue struct {
	items      chan *QueueItem
	workers    int
	workerFunc func(*QueueItem)
	wg         sync.WaitGroup
	shutdown   chan struct{}
	isRunning  bool
	mutex      sync.RWMutex
}

// Job is one classification request: raw image bytes plus the caller's crop
// label, untouched until a worker picks it up.
type Job struct {
	ImageBytes []byte
	CropLabel  string
	RequestID  string
}

type QueueItem struct {
	Job        *Job
	ResultChan chan *ProcessingResult
	StartTime  time.Time
}

type ProcessingResult struct {
	Result *models.PredictionResult
	Err    error
}

func NewProcessingQueue(queueSize, workers int, workerFunc func(*QueueItem)) *ProcessingQueue {
	queue := &ProcessingQueue{
		items:      make(chan *QueueItem, queueSize),
		workers:    workers,
		workerFunc: workerFunc,
		shutdown:   make(chan struct{}),
		isRunning:  true,
	}

	for i := 0; i < workers; i++ {
		queue.wg.Add(1)
		go queue.worker()
	}

	return queue
}

func (pq *ProcessingQueue) worker() {
	defer pq.wg.Done()

	for {
		select {
		case item, ok := <-pq.items:
			if !ok {
				return
			}
			pq.workerFunc(item)
		case <-pq.shutdown:
			return
		}
	}
}

// Enqueue submits an item, reporting false when the queue is full or shut
// down.
func (pq *ProcessingQueue) Enqueue(item *QueueItem) bool {
	pq.mutex.RLock()
	running := pq.isRunning
	pq.mutex.RUnlock()

	if !running {
		return false
	}

	select {
	case pq.items <- item:
		return true
	default:
		return false
	}
}

func (pq *ProcessingQueue) Size() int {
	return len(pq.items)
}

// Shutdown stops accepting work and waits up to timeout for in-flight jobs.
func (pq *ProcessingQueue) Shutdown(timeout time.Duration) error {
	pq.mutex.Lock()
	if !pq.isRunning {
		pq.mutex.Unlock()
		return nil
	}
	pq.isRunning = false
	pq.mutex.Unlock()

	close(pq.shutdown)

	done := make(chan struct{})
	go func() {
		pq.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("queue shutdown timed out after %s", timeout)
	}
}
