package events

// Event is the broadcastable payload emitted by domain engines. Attribute
// values are pre-rendered strings so downstream consumers never need to know
// the originating Go types.
type Event struct {
	Type       string
	Attributes map[string]string
}

// Emitter receives domain events as they are committed.
type Emitter interface {
	Emit(*Event)
}

// NoopEmitter drops every event. Engines default to it so emission is always
// safe to call.
type NoopEmitter struct{}

// Emit satisfies Emitter.
func (NoopEmitter) Emit(*Event) {}

// FuncEmitter adapts a plain function into an Emitter.
type FuncEmitter func(*Event)

// Emit satisfies Emitter.
func (f FuncEmitter) Emit(evt *Event) {
	if f == nil || evt == nil {
		return
	}
	f(evt)
}
