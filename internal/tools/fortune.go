package tools

import (
	"context"
	"fmt"
	"os/exec"
)

// Fortune runs the fortune program
type Fortune struct {
	Binary string
}

// NewFortune uses fortune from PATH when binary is empty
func NewFortune(binary string) *Fortune {
	if binary == "" {
		binary = "fortune"
	}
	return &Fortune{Binary: binary}
}

// Fortune returns one fortune cookie
func (f *Fortune) Fortune(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, f.Binary).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", f.Binary, err)
	}
	return string(out), nil
}
