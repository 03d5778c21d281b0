package core

import (
	"errors"
	"testing"

	"dmxled/protocol"
)

func TestCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()

	var called bool
	id := registry.Register("test_command", "arg=%u", func(data *[]byte) error {
		called = true
		return nil
	})
	if id != 0 {
		t.Errorf("expected first command to have ID 0, got %d", id)
	}

	cmd, ok := registry.GetCommand(id)
	if !ok || cmd.Name != "test_command" {
		t.Fatalf("failed to retrieve registered command, got %+v", cmd)
	}
	if cmd.Signature() != "test_command arg=%u" {
		t.Errorf("unexpected signature %q", cmd.Signature())
	}

	var data []byte
	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if !called {
		t.Error("command handler was not called")
	}

	if err := registry.Dispatch(999, &data); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestCommandRegistrySequentialIDs(t *testing.T) {
	registry := NewCommandRegistry()
	noop := func(data *[]byte) error { return nil }

	ids := []uint16{
		registry.Register("command1", "", noop),
		registry.Register("response1", "value=%c", nil),
		registry.Register("command2", "", noop),
	}
	for i, id := range ids {
		if id != uint16(i) {
			t.Errorf("entry %d got ID %d", i, id)
		}
	}

	if again := registry.Register("command1", "", noop); again != 0 {
		t.Errorf("re-registering should keep ID 0, got %d", again)
	}
	if registry.Count() != 3 {
		t.Errorf("expected 3 entries, got %d", registry.Count())
	}

	var data []byte
	if err := registry.Dispatch(1, &data); !errors.Is(err, ErrNotCommand) {
		t.Errorf("dispatching a response should fail with ErrNotCommand, got %v", err)
	}
}

func TestCommandWithArguments(t *testing.T) {
	registry := NewCommandRegistry()

	var received []uint8
	id := registry.Register("test_args", "master=%c speed=%c", func(data *[]byte) error {
		for i := 0; i < 2; i++ {
			v, err := protocol.DecodeVLQUint8(data)
			if err != nil {
				return err
			}
			received = append(received, v)
		}
		return nil
	})

	output := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(output, 200)
	protocol.EncodeVLQUint(output, 17)
	data := output.Result()

	if err := registry.Dispatch(id, &data); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(received) != 2 || received[0] != 200 || received[1] != 17 {
		t.Errorf("expected [200 17], got %v", received)
	}
	if len(data) != 0 {
		t.Errorf("handler should consume its arguments, %d bytes left", len(data))
	}
}
