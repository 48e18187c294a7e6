package osidb

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mattn/go-shellwords"
)

// TokenSource yields the bearer token sent to OSIDB.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a token handed in through configuration.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("osidb: empty static token")
	}
	return string(t), nil
}

// DefaultTokenCommand asks the OSIDB auth endpoint for a token pair using
// the caller's Kerberos ticket.
func DefaultTokenCommand(baseURL string) string {
	return "curl -s -H 'Content-Type: application/json' --negotiate -u : " +
		strings.TrimRight(baseURL, "/") + "/auth/token"
}

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	//nolint:gosec // G204: the command line comes from the suite configuration
	return exec.CommandContext(ctx, name, args...).Output()
}

// CommandToken obtains a token pair by running an external HTTP client
// and keeps the access token for later calls.
type CommandToken struct {
	Command string
	// Run defaults to executing the command.
	Run Runner

	access string
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Token runs the command on first use.
func (c *CommandToken) Token(ctx context.Context) (string, error) {
	if c.access != "" {
		return c.access, nil
	}
	argv, err := shellwords.Parse(c.Command)
	if err != nil {
		return "", fmt.Errorf("osidb: parse token command: %w", err)
	}
	if len(argv) == 0 {
		return "", errors.New("osidb: empty token command")
	}
	run := c.Run
	if run == nil {
		run = execRunner
	}
	out, err := run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return "", fmt.Errorf("osidb: token command %s: %w", argv[0], err)
	}
	var pair tokenPair
	if err := json.Unmarshal(out, &pair); err != nil {
		return "", fmt.Errorf("osidb: decode token response: %w", err)
	}
	if pair.Access == "" {
		return "", errors.New("osidb: token response has no access token")
	}
	c.access = pair.Access
	return c.access, nil
}
