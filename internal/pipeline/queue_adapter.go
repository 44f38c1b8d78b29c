package pipeline

import (
	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/queue"
)

// newRealQueue builds a real internal/queue.Queue satisfying
// queueHandle. Kept in its own file so pipeline_test.go can swap
// newQueueFunc for a fake that never spins up worker goroutines.
func newRealQueue(adapter engine.Adapter, cfg config.QueueConfig, cb queueCallbacksT) queueHandle {
	return queue.New(adapter, cfg, queue.Callbacks{
		OnOutput:  cb.OnOutput,
		OnError:   cb.OnError,
		OnDequeue: cb.OnDequeue,
	})
}
