package sampler

import "time"

// SampleObservation describes one completed operation. It is a plain value and
// must not be modified once created.
type SampleObservation struct {
	// OperationName groups observations, compared case-insensitively.
	OperationName string
	// OperationID uniquely identifies this execution of the operation.
	OperationID string
	// StartKey and StopKey are the correlation keys written as markers into the
	// execution trace when the operation started and stopped.
	StartKey string
	StopKey  string
	// RequestID is the optional caller-provided request identifier.
	RequestID string

	Start    time.Time
	Stop     time.Time
	Duration time.Duration
}

// DurationMillis returns the duration in fractional milliseconds, the unit the
// container buckets on.
func (o SampleObservation) DurationMillis() float64 {
	return float64(o.Duration) / float64(time.Millisecond)
}

// identity returns the bytes the representative selection hashes over.
func (o SampleObservation) identity() []byte {
	b := make([]byte, 0, len(o.OperationName)+len(o.OperationID)+len(o.StartKey)+len(o.StopKey)+len(o.RequestID)+4)
	b = append(b, o.OperationName...)
	b = append(b, 0)
	b = append(b, o.OperationID...)
	b = append(b, 0)
	b = append(b, o.StartKey...)
	b = append(b, 0)
	b = append(b, o.StopKey...)
	b = append(b, 0)
	b = append(b, o.RequestID...)
	return b
}
