package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"rembgd/internal/common/fsutil"
)

const (
	defaultHost           = "127.0.0.1"
	defaultStartupTimeout = 2 * time.Minute
	stopGrace             = 5 * time.Second
	stderrTail            = 4096
)

// ProcessConfig describes how to spawn a worker.
type ProcessConfig struct {
	// Command is the worker executable (name on PATH or path).
	Command string
	// Args are passed before the --host/--port flags.
	Args []string
	Host string
	// PortStart/PortEnd restrict the listen port; zero picks any free port.
	PortStart      int
	PortEnd        int
	StartupTimeout time.Duration
}

// Process is a spawned worker. It is ready once Start returns.
type Process struct {
	cmd     *exec.Cmd
	baseURL string
	log     zerolog.Logger

	stopOnce sync.Once
	exited   chan struct{}
	waitErr  error
}

// syncBuffer guards stderr capture shared with the exec goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) tail() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return s
}

// Start spawns the worker and waits until GET /healthz succeeds, the process
// exits, the startup timeout elapses, or ctx is done.
func Start(ctx context.Context, cfg ProcessConfig, logger *zerolog.Logger) (*Process, error) {
	bin, err := fsutil.ResolveExecutable(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("worker command: %w", err)
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultHost
	}
	var port int
	if cfg.PortStart > 0 && cfg.PortEnd >= cfg.PortStart {
		port, err = pickPortInRange(host, cfg.PortStart, cfg.PortEnd)
	} else {
		port, err = pickFreePort(host)
	}
	if err != nil {
		return nil, err
	}
	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}

	args := append(append([]string{}, cfg.Args...), "--host", host, "--port", strconv.Itoa(port))
	cmd := exec.Command(bin, args...)
	stderr := &syncBuffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}

	p := &Process{
		cmd:     cmd,
		baseURL: "http://" + net.JoinHostPort(host, strconv.Itoa(port)),
		log:     zerolog.Nop(),
		exited:  make(chan struct{}),
	}
	if logger != nil {
		p.log = logger.With().Str("component", "worker_process").Int("pid", cmd.Process.Pid).Logger()
	}
	p.log.Info().Str("bin", bin).Str("url", p.baseURL).Msg("worker spawned")
	go func() {
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()

	client := NewClient(p.baseURL, logger)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		hctx, cancel := context.WithTimeout(ctx, time.Second)
		herr := client.Healthy(hctx)
		cancel()
		if herr == nil {
			p.log.Info().Msg("worker ready")
			return p, nil
		}
		select {
		case <-p.exited:
			if p.waitErr != nil {
				return nil, fmt.Errorf("worker exited early: %v; stderr tail: %s", p.waitErr, stderr.tail())
			}
			return nil, fmt.Errorf("worker exited before ready: %s", p.baseURL)
		case <-deadline.C:
			_ = p.Stop()
			return nil, fmt.Errorf("worker not ready in %s: %s", timeout, p.baseURL)
		case <-ctx.Done():
			_ = p.Stop()
			return nil, ctx.Err()
		case <-tick.C:
		}
	}
}

// BaseURL is the worker's root URL.
func (p *Process) BaseURL() string { return p.baseURL }

// PID of the worker process.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Exited is closed once the process has exited.
func (p *Process) Exited() <-chan struct{} { return p.exited }

// Stop sends SIGTERM, then kills the process if it has not exited within the
// grace period. Safe to call more than once.
func (p *Process) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		select {
		case <-p.exited:
			return
		default:
		}
		if serr := p.cmd.Process.Signal(syscall.SIGTERM); serr != nil && !errors.Is(serr, os.ErrProcessDone) {
			p.log.Debug().Err(serr).Msg("sigterm failed")
		}
		select {
		case <-p.exited:
		case <-time.After(stopGrace):
			p.log.Warn().Msg("worker did not exit; killing")
			err = p.cmd.Process.Kill()
			<-p.exited
		}
		p.log.Info().Msg("worker stopped")
	})
	return err
}

func pickPortInRange(host string, start, end int) (int, error) {
	for port := start; port <= end; port++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
