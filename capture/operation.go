package capture

import (
	"context"
	"runtime/trace"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DataDog/datadog-profiling-agent/sampler"
)

// Categories of the trace log events marking operations.
const (
	StartCategory = "profiling.activity.start"
	StopCategory  = "profiling.activity.stop"
)

// StartKey is the message of the start marker of operation id.
func StartKey(id string) string { return id + "/start" }

// StopKey is the message of the stop marker of operation id.
func StopKey(id string) string { return id + "/stop" }

// Operation is an instrumented unit of work. Its markers land in the trace
// when a capture is active and cost almost nothing otherwise.
type Operation struct {
	ctx       context.Context
	task      *trace.Task
	name      string
	id        string
	requestID string
	start     time.Time

	once sync.Once
	obs  sampler.SampleObservation
}

// StartOperation begins an operation called name. The returned context carries
// the trace task of the operation and should be used for the work it covers.
func StartOperation(ctx context.Context, name, requestID string) (context.Context, *Operation) {
	ctx, task := trace.NewTask(ctx, name)
	op := &Operation{
		ctx:       ctx,
		task:      task,
		name:      name,
		id:        uuid.NewString(),
		requestID: requestID,
		start:     time.Now(),
	}
	trace.Log(ctx, StartCategory, StartKey(op.id))
	return ctx, op
}

// ID returns the unique id of the operation.
func (op *Operation) ID() string { return op.id }

// End closes the operation and returns its observation. Calling it again
// returns the same observation.
func (op *Operation) End() sampler.SampleObservation {
	op.once.Do(func() {
		stop := time.Now()
		trace.Log(op.ctx, StopCategory, StopKey(op.id))
		op.task.End()
		op.obs = sampler.SampleObservation{
			OperationName: op.name,
			OperationID:   op.id,
			StartKey:      StartKey(op.id),
			StopKey:       StopKey(op.id),
			RequestID:     op.requestID,
			Start:         op.start,
			Stop:          stop,
			Duration:      stop.Sub(op.start),
		}
	})
	return op.obs
}
