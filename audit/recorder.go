package audit

import (
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/zap"
)

const maxPending = 8192

// Recorder buffers events and drains them to a sink on a background
// goroutine, so callers on the broker's hot path never wait on the sink.
// When the buffer is full the oldest event is dropped.
type Recorder struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue
	sink    Sink
	closed  bool
	done    chan struct{}
}

func NewRecorder(sink Sink) *Recorder {
	r := &Recorder{
		pending: queue.New(),
		sink:    sink,
		done:    make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	go r.drain()
	return r
}

// Submit enqueues an event. Never blocks.
func (r *Recorder) Submit(e *Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.pending.Length() >= maxPending {
		r.pending.Remove()
		log.Warn("audit buffer full, dropped oldest event")
	}
	r.pending.Add(e)
	r.cond.Signal()
	r.mu.Unlock()
}

func (r *Recorder) drain() {
	defer close(r.done)
	for {
		r.mu.Lock()
		for r.pending.Length() == 0 && !r.closed {
			r.cond.Wait()
		}
		if r.pending.Length() == 0 && r.closed {
			r.mu.Unlock()
			return
		}
		e := r.pending.Remove().(*Event)
		r.mu.Unlock()

		if err := r.sink.Publish(e); err != nil {
			log.Error("publish audit event error", zap.Error(err))
		}
	}
}

// Close flushes buffered events and closes the sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.cond.Signal()
	r.mu.Unlock()
	<-r.done
	return r.sink.Close()
}
