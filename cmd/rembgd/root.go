package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rembgd/internal/config"
)

// options holds raw flag values. Only flags the user actually set override
// the file and environment layers.
type options struct {
	configPath string

	addr        string
	device      string
	eager       bool
	logLevel    string
	logFormat   string
	maxUploadMB int
	timeoutSec  int
	gateWaitSec int

	workerURL     string
	workerCommand string
	workerArgs    string
	modelsDir     string
	onnxLibrary   string
	backends      string
}

func newRootCmd() *cobra.Command { return newRootCmdWith(&options{}) }

// newRootCmdWith builds the command tree bound to opts.
func newRootCmdWith(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "rembgd",
		Short:         "Background removal service",
		Long:          "rembgd serves background removal over HTTP, dispatching to a model worker or in-process ONNX sessions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .json or .toml); defaults to $REMBGD_CONFIG")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console|json")
	pf.StringVar(&opts.device, "device", "", "Compute device: auto|cuda|cpu")
	pf.StringVar(&opts.workerURL, "worker-url", "", "URL of a running model worker")
	pf.StringVar(&opts.workerCommand, "worker-command", "", "Spawn the model worker with this executable")
	pf.StringVar(&opts.workerArgs, "worker-args", "", "Comma-separated arguments for --worker-command")
	pf.StringVar(&opts.modelsDir, "models-dir", "", "Directory of <session>.onnx files for the onnx backend")
	pf.StringVar(&opts.onnxLibrary, "onnx-library", "", "Path to the onnxruntime shared library")
	pf.StringVar(&opts.backends, "backends", "", "Backend per algorithm or family, e.g. rembg=onnx,carvekit=worker")

	serve := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP server (default)",
		Example: "  rembgd serve --addr :8000 --device auto\n  rembgd serve -c rembgd.yaml --eager",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	addServeFlags(serve.Flags(), opts)
	addServeFlags(root.Flags(), opts)

	root.AddCommand(serve, newAlgorithmsCmd(), newRemoveCmd(opts), newCompletionCmd(root))
	return root
}

func addServeFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVar(&opts.addr, "addr", "", "HTTP listen address (default "+config.DefaultAddr+")")
	fs.BoolVar(&opts.eager, "eager", false, "Initialize every algorithm at startup")
	fs.IntVar(&opts.maxUploadMB, "max-upload-mb", 0, "Maximum upload size in MiB")
	fs.IntVar(&opts.timeoutSec, "request-timeout", 0, "Per-request timeout in seconds")
	fs.IntVar(&opts.gateWaitSec, "gate-max-wait", 0, "Maximum seconds to wait for the accelerator (-1 waits forever)")
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	return completionCmd
}

// resolveConfig layers the config file, REMBGD_* environment and flags that
// were set on cmd, then applies defaults and validates.
func resolveConfig(cmd *cobra.Command, opts *options, lookup func(string) (string, bool)) (config.Config, error) {
	var cfg config.Config
	path := opts.configPath
	if path == "" {
		if v, ok := lookup(config.EnvPrefix + "CONFIG"); ok {
			path = strings.TrimSpace(v)
		}
	}
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = c
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("addr") {
		cfg.Addr = opts.addr
	}
	if changed("device") {
		cfg.Device = opts.device
	}
	if changed("eager") {
		cfg.Eager = opts.eager
	}
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if changed("max-upload-mb") {
		cfg.MaxUploadMB = opts.maxUploadMB
	}
	if changed("request-timeout") {
		cfg.RequestTimeoutSeconds = opts.timeoutSec
	}
	if changed("gate-max-wait") {
		cfg.GateMaxWaitSeconds = opts.gateWaitSec
	}
	if changed("worker-url") {
		cfg.Worker.URL = opts.workerURL
		cfg.Worker.Command = ""
	}
	if changed("worker-command") {
		cfg.Worker.Command = opts.workerCommand
		cfg.Worker.URL = ""
	}
	if changed("worker-args") {
		cfg.Worker.Args = config.SplitCSV(opts.workerArgs)
	}
	if changed("models-dir") {
		cfg.ONNX.ModelsDir = opts.modelsDir
	}
	if changed("onnx-library") {
		cfg.ONNX.LibraryPath = opts.onnxLibrary
	}
	if changed("backends") {
		m, err := config.ParseBackends(opts.backends)
		if err != nil {
			return cfg, fmt.Errorf("--backends: %w", err)
		}
		cfg.Backends = m
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// osLookup is os.LookupEnv, replaceable in tests.
var osLookup = os.LookupEnv
