package core

import (
	"errors"
	"sync"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotCommand     = errors.New("message is a response")
)

// CommandHandler decodes its own arguments from data
type CommandHandler func(data *[]byte) error

// Command is a dictionary entry. Responses have no handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument format, e.g. "master=%c speed=%c"
	Handler CommandHandler
}

// Signature returns "name format" as it appears in the dictionary
func (c *Command) Signature() string {
	if c.Format == "" {
		return c.Name
	}
	return c.Name + " " + c.Format
}

// IsResponse reports whether the entry travels device to host
func (c *Command) IsResponse() bool {
	return c.Handler == nil
}

// CommandRegistry assigns IDs in registration order
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	nameToID map[string]uint16
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		nameToID: make(map[string]uint16),
	}
}

// RegisterCommand adds a command to the global registry
func RegisterCommand(name, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// RegisterResponse adds a device to host message to the global registry
func RegisterResponse(name, format string) uint16 {
	return globalRegistry.Register(name, format, nil)
}

// Register adds an entry and returns its ID. Registering a known name
// returns the existing ID and replaces its handler.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.nameToID[name]; ok {
		r.commands[id].Handler = handler
		return id
	}

	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	})
	r.nameToID[name] = id
	return id
}

// GetCommand looks up an entry by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

// GetCommandByName looks up an entry by name
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of entries
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch runs the handler for cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok {
		return errors.Join(ErrUnknownCommand, errors.New("id "+utoa(uint32(cmdID))))
	}
	if cmd.IsResponse() {
		return ErrNotCommand
	}
	return cmd.Handler(data)
}

// Entries returns a copy of the registry in ID order
func (r *CommandRegistry) Entries() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Command, len(r.commands))
	for i, cmd := range r.commands {
		entries[i] = *cmd
	}
	return entries
}

// DispatchCommand dispatches through the global registry
func DispatchCommand(cmdID uint16, data *[]byte) error {
	return globalRegistry.Dispatch(cmdID, data)
}

// GetGlobalRegistry returns the registry used by the firmware
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}
