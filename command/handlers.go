package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-contact-relay/core"
)

type EventDispatcher interface {
	Dispatch(ctx context.Context, events []core.InboundEvent) (core.BatchSummary, error)
}

type SyncContactCommand struct {
	dispatcher EventDispatcher
}

func NewSyncContactCommand(dispatcher EventDispatcher) *SyncContactCommand {
	return &SyncContactCommand{dispatcher: dispatcher}
}

// Execute stores the core.EventResult in the context result collector when
// one is attached. Fetch and upsert failures are returned as errors so job
// runners can retry them; duplicates and contacts without email are not
// failures.
func (c *SyncContactCommand) Execute(ctx context.Context, msg SyncContactMessage) error {
	if c == nil || c.dispatcher == nil {
		return commandDependencyError("command: sync contact dispatcher is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	summary, err := c.dispatcher.Dispatch(ctx, []core.InboundEvent{msg.event()})
	if err != nil {
		return err
	}
	if len(summary.Results) == 0 {
		return commandDependencyError("command: dispatcher returned no result")
	}
	result := summary.Results[0]
	storeResult(ctx, result)
	if result.Outcome.Failed() {
		return commandOutcomeError(result)
	}
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
