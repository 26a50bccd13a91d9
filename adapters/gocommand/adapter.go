package gocommand

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// Bus registers splist handlers in a go-command registry and subscribes them
// on the process dispatcher. Close drops every subscription it made.
type Bus struct {
	registry *command.Registry

	mu            sync.Mutex
	subscriptions []commanddispatcher.Subscription
}

func NewBus(registry *command.Registry) *Bus {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &Bus{registry: registry}
}

func (b *Bus) Registry() *command.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

func (b *Bus) Initialize() error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return b.registry.Initialize()
}

// Close unsubscribes in reverse registration order.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	subscriptions := b.subscriptions
	b.subscriptions = nil
	b.mu.Unlock()
	for i := len(subscriptions) - 1; i >= 0; i-- {
		if subscriptions[i] != nil {
			subscriptions[i].Unsubscribe()
		}
	}
}

func (b *Bus) Subscriptions() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscriptions)
}

func (b *Bus) track(subscription commanddispatcher.Subscription) {
	b.mu.Lock()
	b.subscriptions = append(b.subscriptions, subscription)
	b.mu.Unlock()
}

func RegisterCommand[T any](bus *Bus, cmd command.Commander[T], runnerOpts ...runner.Option) error {
	if bus == nil || bus.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := bus.registry.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return err
	}
	bus.track(subscription)
	return nil
}

func RegisterQuery[T any, R any](bus *Bus, qry command.Querier[T, R], runnerOpts ...runner.Option) error {
	if bus == nil || bus.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := bus.registry.RegisterCommand(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return err
	}
	bus.track(subscription)
	return nil
}

// Dispatch checks the message contract before handing msg to the dispatcher.
func Dispatch[T any](ctx context.Context, msg T) error {
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	if err := ValidateMessageContract(msg); err != nil {
		var zero R
		return zero, err
	}
	return commanddispatcher.Query[T, R](ctx, msg)
}
