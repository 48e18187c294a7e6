// Package devserver starts a local OSIM dev server, waits for it to answer
// and tears down the whole process tree afterwards.
package devserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-shellwords"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/RedHatProductSecurity/osim/internal/logging"
)

const (
	// DefaultCommand is how OSIM is served during development.
	DefaultCommand = "yarn run dev"
	// DefaultURL is where the Vite dev server listens.
	DefaultURL = "https://localhost:5173/"
	// DefaultReadyTimeout bounds the readiness poll.
	DefaultReadyTimeout = 10 * time.Second
	// DefaultPollInterval is the readiness poll period.
	DefaultPollInterval = 500 * time.Millisecond
	// ExpectedBackground is the body background of the dark theme.
	ExpectedBackground = "rgba(32, 33, 36, 1)"
)

// ErrNotReady is returned when the server does not answer in time.
var ErrNotReady = errors.New("the OSIM dev server did not start in time")

// Options configures a Server.
type Options struct {
	Command      string
	Dir          string
	URL          string
	ReadyTimeout time.Duration
	PollInterval time.Duration
	// Client probes readiness; defaults to one skipping TLS verification,
	// since Vite serves a self-signed certificate.
	Client *http.Client
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Command == "" {
		o.Command = DefaultCommand
	}
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = DefaultReadyTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Client == nil {
		o.Client = &http.Client{
			Timeout: o.PollInterval,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // local dev certificate
			},
		}
	}
	if o.Logger == nil {
		o.Logger = logging.WithPrefix("devserver")
	}
	return o
}

// Server is a running dev server process.
type Server struct {
	opts Options
	cmd  *exec.Cmd
	done chan struct{}
	kill func(pid int32) error

	mu      sync.Mutex
	stopped bool
	waitErr error
}

// Start launches the command and blocks until the URL answers or the
// ready timeout passes. On timeout the process tree is terminated.
func Start(ctx context.Context, opts Options) (*Server, error) {
	opts = opts.withDefaults()

	args, err := shellwords.Parse(opts.Command)
	if err != nil {
		return nil, fmt.Errorf("parse dev server command %q: %w", opts.Command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("dev server command is empty")
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start dev server: %w", err)
	}
	opts.Logger.Info("dev server started", "pid", cmd.Process.Pid, "command", opts.Command)

	s := &Server{opts: opts, cmd: cmd, done: make(chan struct{}), kill: KillTree}
	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		s.waitErr = err
		s.mu.Unlock()
		close(s.done)
	}()

	if err := s.waitReady(ctx); err != nil {
		_ = s.Stop()
		return nil, err
	}
	return s, nil
}

// URL returns the address the server answers on.
func (s *Server) URL() string { return s.opts.URL }

// PID returns the root process id.
func (s *Server) PID() int { return s.cmd.Process.Pid }

func (s *Server) waitReady(ctx context.Context) error {
	deadline := time.NewTimer(s.opts.ReadyTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(s.opts.PollInterval)
	defer tick.Stop()

	for {
		if Ready(ctx, s.opts.Client, s.opts.URL) {
			s.opts.Logger.Info("dev server ready", "url", s.opts.URL)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			s.mu.Lock()
			err := s.waitErr
			s.mu.Unlock()
			return fmt.Errorf("dev server exited before becoming ready: %v", err)
		case <-deadline.C:
			return fmt.Errorf("%w (%s at %s)", ErrNotReady, s.opts.ReadyTimeout, s.opts.URL)
		case <-tick.C:
		}
	}
}

// Ready reports whether url answers with 200 OK.
func Ready(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Stop terminates the process and every descendant. It is safe to call
// more than once; only the first call reports a failed kill.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	pid := s.cmd.Process.Pid
	killErr := s.kill(int32(pid))
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		_ = s.cmd.Process.Kill()
		<-s.done
	}
	if killErr != nil {
		s.opts.Logger.Warn("process tree kill incomplete", "pid", pid, "error", killErr)
		return fmt.Errorf("stop dev server %d: %w", pid, killErr)
	}
	s.opts.Logger.Info("dev server stopped", "pid", pid)
	return nil
}

// KillTree terminates pid and its descendants, children first. Processes
// already gone are ignored.
func KillTree(pid int32) error {
	proc, err := process.NewProcess(pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return fmt.Errorf("lookup process %d: %w", pid, err)
	}

	var errs []error
	if children, err := proc.Children(); err == nil {
		for _, child := range children {
			if err := KillTree(child.Pid); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := proc.Terminate(); err != nil {
		if running, _ := proc.IsRunning(); running {
			if kerr := proc.Kill(); kerr != nil {
				errs = append(errs, fmt.Errorf("kill %d: %w", pid, kerr))
			}
		}
	}
	return errors.Join(errs...)
}
