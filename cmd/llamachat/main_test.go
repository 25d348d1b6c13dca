package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"llamachat/internal/chat"
	"llamachat/internal/config"
	"llamachat/internal/coordinator"
	"llamachat/internal/engine"
	"llamachat/pkg/types"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

// parse resolves the config sub would run with for args, without running it.
func parse(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	opts := &options{}
	root := newRootCmdWith(opts)
	cmd, rest, err := root.Find(args)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if err := cmd.ParseFlags(rest); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return resolveConfig(cmd, opts)
}

func TestResolveConfig_Defaults(t *testing.T) {
	t.Setenv("LLAMACHAT_ADDR", "")
	cfg, err := parse(t, "serve")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	d := config.Defaults()
	if cfg.Addr != d.Addr || cfg.ModelName != d.ModelName || cfg.MaxTokens != d.MaxTokens || !cfg.ShouldAutoLoad() {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestResolveConfig_EnvAddr(t *testing.T) {
	t.Setenv("LLAMACHAT_ADDR", ":7777")
	cfg, err := parse(t, "serve")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv("LLAMACHAT_ADDR", "")
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "addr: \":9000\"\nmodel_name: file.gguf\nauto_load: false\nengine: simulated\nmax_tokens: 32\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := parse(t, "serve", "--config", p, "--model", "flag.gguf", "--cors-origins", "http://a, http://b")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.MaxTokens != 32 || cfg.Engine != config.EngineSimulated || cfg.ShouldAutoLoad() {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.ModelName != "flag.gguf" {
		t.Fatalf("flag did not override file: %q", cfg.ModelName)
	}
	if !cfg.CORSEnabled || len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("cors=%v %v", cfg.CORSEnabled, cfg.CORSAllowedOrigins)
	}
}

func TestResolveConfig_InvalidEngine(t *testing.T) {
	if _, err := parse(t, "models", "--engine", "quantum"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestPrintModels(t *testing.T) {
	models := []types.Model{{ID: "a.Q4_0.gguf", Quant: "Q4_0", SizeBytes: 10}}
	var buf bytes.Buffer
	if err := printModels(&buf, models, false); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "a.Q4_0.gguf") || !strings.Contains(buf.String(), "QUANT") {
		t.Fatalf("table=%q", buf.String())
	}
	buf.Reset()
	if err := printModels(&buf, models, true); err != nil {
		t.Fatalf("print json: %v", err)
	}
	if !strings.Contains(buf.String(), `"models"`) {
		t.Fatalf("json=%q", buf.String())
	}
}

func simulatedConfig(t *testing.T, autoLoad bool) config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiny.gguf"), []byte("w"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return config.Config{
		ModelsDir: dir,
		ModelName: "tiny.gguf",
		AutoLoad:  &autoLoad,
		Engine:    config.EngineSimulated,
	}.WithDefaults()
}

func TestBuildApp_LlamaUnavailableWithoutTag(t *testing.T) {
	cfg := simulatedConfig(t, false)
	cfg.Engine = config.EngineLlama
	_, err := buildApp(cfg, zerolog.Nop(), nil)
	if err == nil {
		t.Skip("llama engine built into this binary")
	}
	if !strings.Contains(err.Error(), "--engine=simulated") {
		t.Fatalf("missing hint: %v", err)
	}
}

func TestRunChat_Conversation(t *testing.T) {
	a, err := buildApp(simulatedConfig(t, true), zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()

	in := strings.NewReader("hello\n\n/status\n/reset\n/quit\nignored\n")
	var out bytes.Buffer
	if err := runChat(context.Background(), a, "", in, &out); err != nil {
		t.Fatalf("chat: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"assistant> Hello, how can I help you today?",
		"assistant> hello [simulated model response]",
		"[Model ready]",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "ignored") {
		t.Fatalf("input after /quit was processed:\n%s", got)
	}
	if n := len(a.session.Messages()); n != 1 {
		t.Fatalf("transcript not reset: %d messages", n)
	}
}

func TestRunChat_LoadsOnFirstMessage(t *testing.T) {
	a, err := buildApp(simulatedConfig(t, false), zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var out bytes.Buffer
	if err := runChat(context.Background(), a, "Hi!", strings.NewReader("ping\n"), &out); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(out.String(), "[Model not loaded]") || !strings.Contains(out.String(), "assistant> ping [simulated model response]") {
		t.Fatalf("output:\n%s", out.String())
	}
	if a.coord.Model() != "tiny.gguf" {
		t.Fatalf("model=%q", a.coord.Model())
	}
}

// countingEngine counts loads and holds each one until release is closed.
type countingEngine struct {
	*engine.Simulated
	release chan struct{}
	loads   atomic.Int32
}

func (e *countingEngine) Load(ctx context.Context, model string) error {
	e.loads.Add(1)
	<-e.release
	return e.Simulated.Load(ctx, model)
}

func TestRunChat_WaitsForAutoLoadWithoutReloading(t *testing.T) {
	eng := &countingEngine{Simulated: engine.NewSimulated(), release: make(chan struct{})}
	coord, err := coordinator.New(eng, coordinator.Config{ModelName: "tiny.gguf", AutoLoad: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a := &app{engine: eng, coord: coord, session: chat.NewSession(coord, zerolog.Nop())}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(eng.release)
	}()
	var out bytes.Buffer
	if err := runChat(context.Background(), a, "", strings.NewReader("ping\n"), &out); err != nil {
		t.Fatalf("chat: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "[Loading model...]") || !strings.Contains(got, "[Model ready]") {
		t.Fatalf("output:\n%s", got)
	}
	if !strings.Contains(got, "assistant> ping [simulated model response]") {
		t.Fatalf("output:\n%s", got)
	}
	if n := eng.loads.Load(); n != 1 {
		t.Fatalf("engine loads=%d want 1", n)
	}
}
