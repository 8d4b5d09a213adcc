package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"carcamalbot/internal/domain"
	"carcamalbot/internal/middleware"
)

// CommandInfo describes a registered command
type CommandInfo struct {
	Name        string
	Description string
}

type command struct {
	info CommandInfo
	run  middleware.HandlerFunc
}

// Registry maps command names to guarded handlers. It is built once at
// startup and read-only afterwards.
type Registry struct {
	commands map[string]command
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]command)}
}

// CommandBuilder collects the description and guards of one command
type CommandBuilder struct {
	reg    *Registry
	info   CommandInfo
	guards []middleware.Guard
}

// Command starts the registration of a command; name may carry a leading slash
func (r *Registry) Command(name string) *CommandBuilder {
	return &CommandBuilder{reg: r, info: CommandInfo{Name: strings.TrimPrefix(strings.TrimSpace(name), "/")}}
}

// Describe sets the text shown in the command list
func (b *CommandBuilder) Describe(text string) *CommandBuilder {
	b.info.Description = text
	return b
}

// Use appends guards, evaluated in the given order
func (b *CommandBuilder) Use(guards ...middleware.Guard) *CommandBuilder {
	b.guards = append(b.guards, guards...)
	return b
}

// Handle completes the registration
func (b *CommandBuilder) Handle(fn middleware.HandlerFunc) error {
	name := b.info.Name
	if name == "" {
		return fmt.Errorf("command name is empty")
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return fmt.Errorf("command name %q contains whitespace", name)
	}
	if fn == nil {
		return fmt.Errorf("command %q has no handler", name)
	}
	if _, dup := b.reg.commands[name]; dup {
		return fmt.Errorf("command %q is already registered", name)
	}
	b.reg.commands[name] = command{
		info: b.info,
		run:  middleware.Chain(b.guards...).Then(fn),
	}
	return nil
}

// Dispatch runs a command through its guards
func (r *Registry) Dispatch(ctx context.Context, name string, msg domain.Message) error {
	cmd, ok := r.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCommand, name)
	}
	return cmd.run(ctx, msg)
}

// Commands lists registered commands sorted by name
func (r *Registry) Commands() []CommandInfo {
	list := make([]CommandInfo, 0, len(r.commands))
	for _, cmd := range r.commands {
		list = append(list, cmd.info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// ParseCommand splits "/name@bot args" into name and args.
// ok is false for text that is not a command.
func ParseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, rest = text[:i], text[i:]
	}
	name = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", "", false
	}
	return name, cleanArgs(rest), true
}

// cleanArgs trims spaces and strips unprintable characters
func cleanArgs(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}
