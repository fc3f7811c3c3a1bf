package emit

import "context"

// Emitter receives observability events during a session walk.
//
// Implementations can log to stdout/stderr, send to OpenTelemetry, store in
// time-series databases, or discard events entirely (Null).
type Emitter interface {
	Emit(event Event)
}

// BatchEmitter is an optional capability for emitters that can batch
// multiple events into a single underlying operation more efficiently than
// calling Emit repeatedly.
type BatchEmitter interface {
	Emitter
	EmitBatch(ctx context.Context, events []Event) error
}

// Flusher is an optional capability for emitters that buffer events and
// need an explicit flush before shutdown (e.g. OTelEmitter's span exporter).
type Flusher interface {
	Flush(ctx context.Context) error
}
