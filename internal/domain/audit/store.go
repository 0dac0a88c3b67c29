package audit

import "context"

// Store is the durable fact store the audit writer persists into. The
// engine itself only appends through the outbox; nothing in the engine
// reads facts back.
type Store interface {
	Insert(ctx context.Context, fact *Fact) error
}
