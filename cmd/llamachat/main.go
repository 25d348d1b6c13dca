package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamachat/internal/config"
)

// options carries the persistent flags shared by every subcommand.
type options struct {
	configPath string
	cfg        config.Config
	autoLoad   bool
	corsCSV    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command { return newRootCmdWith(&options{}) }

// newRootCmdWith constructs the command tree with flags bound to opts.
func newRootCmdWith(opts *options) *cobra.Command {
	d := config.Defaults()

	// Flags with environment variable defaults
	defaultAddr := d.Addr
	if v := os.Getenv("LLAMACHAT_ADDR"); v != "" {
		defaultAddr = v
	}

	root := &cobra.Command{
		Use:           "llamachat",
		Short:         "Single-model local LLM chat: HTTP service and terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a .yaml, .json or .toml config file")
	pf.StringVar(&opts.cfg.Addr, "addr", defaultAddr, "HTTP listen address, e.g. :8080 (defaults LLAMACHAT_ADDR)")
	pf.StringVar(&opts.cfg.ModelsDir, "models-dir", d.ModelsDir, "Directory holding *.gguf model files")
	pf.StringVar(&opts.cfg.AssetsDir, "assets-dir", "", "Directory of bundled models copied into --models-dir on first load")
	pf.StringVar(&opts.cfg.ModelName, "model", d.ModelName, "Model loaded by default")
	pf.BoolVar(&opts.autoLoad, "auto-load", *d.AutoLoad, "Start loading the default model at startup")
	pf.IntVar(&opts.cfg.MaxTokens, "max-tokens", d.MaxTokens, "Default max new tokens per generation")
	pf.IntVar(&opts.cfg.CtxSize, "ctx-size", d.CtxSize, "Context window in tokens (llama engine)")
	pf.IntVar(&opts.cfg.Threads, "threads", d.Threads, "CPU threads for inference (llama engine)")
	pf.StringVar(&opts.cfg.Engine, "engine", d.Engine, "Inference engine: llama|simulated")
	pf.StringVar(&opts.cfg.LogLevel, "log-level", d.LogLevel, "Log level: debug|info|warn|error")

	root.AddCommand(newServeCmd(opts), newChatCmd(opts), newModelsCmd(opts))
	return root
}

// resolveConfig merges the config file, explicitly set flags and defaults, in
// increasing order of precedence for the first two.
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		fileCfg, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = fileCfg
	}
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) || !fileHas(opts, name, cfg) {
			apply()
		}
	}
	set("addr", func() { cfg.Addr = opts.cfg.Addr })
	set("models-dir", func() { cfg.ModelsDir = opts.cfg.ModelsDir })
	set("assets-dir", func() { cfg.AssetsDir = opts.cfg.AssetsDir })
	set("model", func() { cfg.ModelName = opts.cfg.ModelName })
	set("auto-load", func() {
		v := opts.autoLoad
		cfg.AutoLoad = &v
	})
	set("max-tokens", func() { cfg.MaxTokens = opts.cfg.MaxTokens })
	set("ctx-size", func() { cfg.CtxSize = opts.cfg.CtxSize })
	set("threads", func() { cfg.Threads = opts.cfg.Threads })
	set("engine", func() { cfg.Engine = opts.cfg.Engine })
	set("log-level", func() { cfg.LogLevel = opts.cfg.LogLevel })
	if flags.Changed("cors-origins") {
		cfg.CORSEnabled = true
		cfg.CORSAllowedOrigins = splitCSV(opts.corsCSV)
	}
	if flags.Changed("max-body-bytes") {
		cfg.MaxBodyBytes = opts.cfg.MaxBodyBytes
	}
	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

// fileHas reports whether the loaded file already set the field behind flag.
func fileHas(opts *options, flag string, cfg config.Config) bool {
	if opts.configPath == "" {
		return false
	}
	switch flag {
	case "addr":
		return cfg.Addr != ""
	case "models-dir":
		return cfg.ModelsDir != ""
	case "assets-dir":
		return cfg.AssetsDir != ""
	case "model":
		return cfg.ModelName != ""
	case "auto-load":
		return cfg.AutoLoad != nil
	case "max-tokens":
		return cfg.MaxTokens != 0
	case "ctx-size":
		return cfg.CtxSize != 0
	case "threads":
		return cfg.Threads != 0
	case "engine":
		return cfg.Engine != ""
	case "log-level":
		return cfg.LogLevel != ""
	}
	return false
}

// newLogger builds the process logger. Console output is used for the
// interactive chat so JSON lines do not interleave with the conversation.
func newLogger(level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if console {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		l = zerolog.New(os.Stderr)
	}
	return l.Level(lvl).With().Timestamp().Logger()
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
