package reviewer

import (
	"sync"
	"time"

	"github.com/lectorhq/lector/internal/models"
)

// Run is the subscription handle for one streaming evaluation. The event
// channel is bounded; when the consumer lags, the oldest event is dropped
// so the producer never blocks. Closing the handle detaches the consumer
// but does not cancel the evaluation.
type Run struct {
	TutorialID string

	events    chan models.ProgressEvent
	done      chan struct{}
	closeOnce sync.Once
	finOnce   sync.Once
}

func newRun(tutorialID string, buffer int) *Run {
	if buffer <= 0 {
		buffer = 64
	}
	return &Run{
		TutorialID: tutorialID,
		events:     make(chan models.ProgressEvent, buffer),
		done:       make(chan struct{}),
	}
}

// Events is the stream of progress events. It is closed when the run
// finishes, after the terminal complete or error event.
func (r *Run) Events() <-chan models.ProgressEvent {
	return r.events
}

// Close detaches the consumer. The evaluation keeps running to completion.
func (r *Run) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

// emit delivers an event, dropping the oldest buffered event when full
func (r *Run) emit(event models.ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-r.done:
		return
	default:
	}

	for {
		select {
		case r.events <- event:
			return
		default:
			select {
			case <-r.events:
			default:
			}
		}
	}
}

// finish closes the event stream once the run goroutine is done emitting
func (r *Run) finish() {
	r.finOnce.Do(func() {
		close(r.events)
	})
}
