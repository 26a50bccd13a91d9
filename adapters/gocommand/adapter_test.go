package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
)

type okMessage struct{}

func (okMessage) Type() string { return "splist.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "splist.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "splist.command.adapter_test" }

type lookupMessage struct {
	Name string
}

func (lookupMessage) Type() string { return "splist.query.adapter_test" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestBusDispatchesRegisteredCommand(t *testing.T) {
	bus := NewBus(command.NewRegistry())
	t.Cleanup(bus.Close)
	executed := 0

	cmd := command.CommandFunc[dispatchMessage](func(_ context.Context, msg dispatchMessage) error {
		if msg.ID != "m1" {
			t.Fatalf("unexpected message id %q", msg.ID)
		}
		executed++
		return nil
	})
	if err := RegisterCommand(bus, cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := bus.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
	if bus.Subscriptions() != 1 {
		t.Fatalf("expected one tracked subscription, got %d", bus.Subscriptions())
	}
}

func TestBusAnswersRegisteredQuery(t *testing.T) {
	bus := NewBus(nil)
	t.Cleanup(bus.Close)

	qry := command.QueryFunc[lookupMessage, string](func(_ context.Context, msg lookupMessage) (string, error) {
		return "hello " + msg.Name, nil
	})
	if err := RegisterQuery(bus, qry); err != nil {
		t.Fatalf("register query: %v", err)
	}
	got, err := Query[lookupMessage, string](context.Background(), lookupMessage{Name: "ada"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got != "hello ada" {
		t.Fatalf("unexpected query result %q", got)
	}
}

func TestDispatchRejectsInvalidMessageBeforeHandlers(t *testing.T) {
	if err := Dispatch(context.Background(), failingMessage{}); err == nil {
		t.Fatalf("expected contract failure")
	}
	if _, err := Query[invalidMessage, string](context.Background(), invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail")
	}
}

func TestBusCloseDropsSubscriptions(t *testing.T) {
	bus := NewBus(nil)
	cmd := command.CommandFunc[okMessage](func(context.Context, okMessage) error { return nil })
	if err := RegisterCommand(bus, cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	bus.Close()
	if bus.Subscriptions() != 0 {
		t.Fatalf("expected no subscriptions after close")
	}

	var nilBus *Bus
	nilBus.Close()
	if err := RegisterCommand(nilBus, cmd); err == nil {
		t.Fatalf("expected nil bus to fail registration")
	}
}
