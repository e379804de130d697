package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"playscribe/internal/catalog"
	"playscribe/internal/config"
	"playscribe/internal/logging"
	"playscribe/internal/workflow"
)

// ErrAlreadyRunning reports that another process holds the catalog lock.
var ErrAlreadyRunning = errors.New("another playscribe instance holds the catalog lock")

// Runner is the scheduler surface the daemon drives.
type Runner interface {
	Run(ctx context.Context) error
	Cycle(ctx context.Context) (workflow.Outcome, error)
}

// Daemon coordinates the scheduler loop and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *catalog.Store
	runner Runner

	lockPath string
	pidPath  string
	lock     *flock.Flock

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	DatabasePath string
	Catalog      catalog.Stats
}

// New constructs a daemon around an opened store and scheduler.
func New(cfg *config.Config, store *catalog.Store, runner Runner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || runner == nil {
		return nil, errors.New("daemon requires config, store, and scheduler")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		runner:   runner,
		lockPath: lockPath,
		pidPath:  cfg.PIDPath(),
		lock:     flock.New(lockPath),
	}, nil
}

func (d *Daemon) acquire() error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	return nil
}

func (d *Daemon) release() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release catalog lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
		)
	}
}

// Start acquires the lock, writes the pid file, and launches the scheduler loop.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.acquire(); err != nil {
		return err
	}
	if err := writePIDFile(d.pidPath); err != nil {
		d.release()
		return fmt.Errorf("write pid file: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.runErr = nil
	d.running.Store(true)

	go func(done chan struct{}) {
		defer close(done)
		err := d.runner.Run(runCtx)
		d.mu.Lock()
		d.runErr = err
		d.mu.Unlock()
		d.running.Store(false)
		_ = os.Remove(d.pidPath)
		d.release()
	}(d.done)

	d.logger.Info("playscribe daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("pid", os.Getpid()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Wait blocks until the scheduler loop exits and returns its error.
func (d *Daemon) Wait() error {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runErr
}

// Stop cancels the scheduler loop and waits for it to release the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	_ = d.Wait()
	d.logger.Info("playscribe daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// RunOnce performs a single cycle while holding the catalog lock.
func (d *Daemon) RunOnce(ctx context.Context) (workflow.Outcome, error) {
	if d.running.Load() {
		return workflow.OutcomeIdle, errors.New("daemon already running")
	}
	if err := d.acquire(); err != nil {
		return workflow.OutcomeIdle, err
	}
	defer d.release()
	return d.runner.Cycle(ctx)
}

// Running reports whether this daemon's loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns runtime information and catalog counts.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return Status{}, err
	}
	status := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		DatabasePath: d.store.Path(),
		Catalog:      stats,
	}
	if status.Running {
		status.PID = os.Getpid()
		return status, nil
	}
	held, err := LockHeld(d.lockPath)
	if err != nil {
		return status, nil
	}
	status.Running = held
	if held {
		status.PID, _ = ReadPID(d.pidPath)
	}
	return status, nil
}

// LockHeld reports whether some process currently holds the lock at path.
func LockHeld(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock: %w", err)
	}
	if ok {
		_ = probe.Unlock()
		return false, nil
	}
	return true, nil
}

// ReadPID returns the pid recorded at path, or zero when none is recorded.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file %q: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(value)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %q holds %q", path, value)
	}
	return pid, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
