package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rembgd/internal/catalog"
	"rembgd/internal/config"
	"rembgd/internal/health"
	"rembgd/internal/manager"
	"rembgd/internal/onnx"
	"rembgd/internal/worker"
	"rembgd/pkg/types"
)

// app owns the long-lived components of one rembgd process.
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	mgr    *manager.Manager
	client *worker.Client
	proc   *worker.Process
	prober *health.Prober
}

// newApp selects the device, reaches or spawns the worker and builds the
// manager. The prober is created but not started.
func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	report, err := manager.DetectDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	ev := log.Info().Str("mode", report.Mode).Bool("accelerator", report.Accelerator)
	if report.NvidiaSMI != "" {
		ev = ev.Str("nvidia_smi", report.NvidiaSMI)
	}
	if report.Error != "" {
		ev = ev.Str("detail", report.Error)
	}
	ev.Msg("compute device selected")

	a := &app{cfg: cfg, log: log}
	baseURL := cfg.Worker.URL
	if cfg.Worker.Command != "" {
		proc, err := worker.Start(ctx, worker.ProcessConfig{
			Command:        cfg.Worker.Command,
			Args:           cfg.Worker.Args,
			Host:           cfg.Worker.Host,
			PortStart:      cfg.Worker.PortStart,
			PortEnd:        cfg.Worker.PortEnd,
			StartupTimeout: time.Duration(cfg.Worker.StartupTimeoutSeconds) * time.Second,
		}, &log)
		if err != nil {
			return nil, fmt.Errorf("start worker: %w", err)
		}
		a.proc = proc
		baseURL = proc.BaseURL()
	}
	a.client = worker.NewClient(baseURL, &log)

	a.mgr = manager.NewWithConfig(manager.ManagerConfig{
		Factory:     providerFactory(cfg, a.client, &log),
		Logger:      &log,
		Publisher:   manager.NewLogPublisher(log),
		Accelerator: report.Accelerator,
		Eager:       cfg.Eager,
		GateMaxWait: gateMaxWait(cfg.GateMaxWaitSeconds),
	})

	a.prober = health.NewProber(cfg.HealthProbeSchedule, &log)
	if a.usesWorker() {
		a.prober.Add("worker", a.client.Healthy)
	}
	return a, nil
}

// providerFactory routes algorithms to the onnx or worker backend per
// cfg.Backends; anything unrouted goes to the worker.
func providerFactory(cfg config.Config, client *worker.Client, log *zerolog.Logger) manager.ProviderFactory {
	workerFactory := worker.NewFactory(client)
	onnxFactory := onnx.NewFactory(onnx.Config{
		LibraryPath:    cfg.ONNX.LibraryPath,
		ModelsDir:      cfg.ONNX.ModelsDir,
		IntraOpThreads: cfg.ONNX.IntraOpThreads,
	}, log)
	routes := manager.Routes{}
	for key, backend := range cfg.Backends {
		switch backend {
		case config.BackendONNX:
			routes[key] = onnxFactory
		case config.BackendWorker:
			routes[key] = workerFactory
		}
	}
	return manager.RouteFactory(routes, workerFactory)
}

func gateMaxWait(sec int) time.Duration {
	if sec < 0 {
		return -1
	}
	return time.Duration(sec) * time.Second
}

// usesWorker is false only when every algorithm is routed to onnx.
func (a *app) usesWorker() bool {
	for _, s := range catalog.All() {
		if a.cfg.Backends[s.ID] != config.BackendONNX && a.cfg.Backends[string(s.Family)] != config.BackendONNX {
			return true
		}
	}
	return false
}

// close releases providers, stops the prober and the spawned worker, and
// shuts down the onnx runtime.
func (a *app) close() error {
	var errs []error
	if a.prober != nil {
		a.prober.Stop()
	}
	if err := a.mgr.Close(); err != nil {
		errs = append(errs, fmt.Errorf("manager: %w", err))
	}
	if a.proc != nil {
		if err := a.proc.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("worker: %w", err))
		}
	}
	if err := onnx.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("onnx: %w", err))
	}
	return errors.Join(errs...)
}

// service is the httpapi.Service view of the app: the manager, with
// dependency probes folded into readiness and status.
type service struct {
	*manager.Manager
	prober *health.Prober
}

func (s service) Ready() bool {
	return s.Manager.Ready() && s.prober.Healthy()
}

func (s service) Status() types.StatusResponse {
	st := s.Manager.Status()
	st.Dependencies = s.prober.Status()
	return st
}
