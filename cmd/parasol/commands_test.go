package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HexSleeves/parasol/internal/agent"
	"github.com/HexSleeves/parasol/internal/config"
	"github.com/HexSleeves/parasol/internal/output"
	"github.com/urfave/cli/v3"
)

// writeTestConfig saves a config into a temp dir and returns its path.
func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	return path
}

func TestCmdInit_WritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	cmd := &cli.Command{
		Name: "init",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: path},
			&cli.BoolFlag{Name: "force"},
		},
		Action: cmdInit,
	}

	ctx := context.Background()
	err := cmd.Run(ctx, []string{"init"})

	w.Close()
	os.Stdout = oldStdout
	buf.ReadFrom(r)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected config file to exist: %v", err)
	}
	if !strings.Contains(string(data), "deepseek") {
		t.Error("Expected default config to name the deepseek backend")
	}
	if !strings.Contains(buf.String(), "Wrote") {
		t.Errorf("Expected 'Wrote' confirmation, got: %s", buf.String())
	}
}

func TestCmdInit_RefusesOverwrite(t *testing.T) {
	path := writeTestConfig(t, config.DefaultConfig())

	cmd := &cli.Command{
		Name: "init",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: path},
			&cli.BoolFlag{Name: "force"},
		},
		Action: cmdInit,
	}

	ctx := context.Background()
	err := cmd.Run(ctx, []string{"init"})

	if err == nil {
		t.Fatal("Expected error when config already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}
}

func TestCmdInit_ForceOverwrites(t *testing.T) {
	path := writeTestConfig(t, config.DefaultConfig())

	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	cmd := &cli.Command{
		Name: "init",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: path},
			&cli.BoolFlag{Name: "force"},
		},
		Action: cmdInit,
	}

	ctx := context.Background()
	err := cmd.Run(ctx, []string{"init", "--force"})

	w.Close()
	os.Stdout = oldStdout
	buf.ReadFrom(r)

	if err != nil {
		t.Errorf("Expected no error with --force, got: %v", err)
	}
}

func TestCmdConfig_PrintsSummary(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("DASHSCOPE_API_KEY", "")

	path := writeTestConfig(t, config.DefaultConfig())

	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	cmd := &cli.Command{
		Name: "config",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: path},
		},
		Action: cmdConfig,
	}

	ctx := context.Background()
	err := cmd.Run(ctx, []string{"config"})

	w.Close()
	os.Stdout = oldStdout
	buf.ReadFrom(r)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Configuration") {
		t.Error("Expected 'Configuration' header in output")
	}
	if !strings.Contains(out, "deepseek (deepseek-chat)") {
		t.Errorf("Expected primary backend summary, got: %s", out)
	}
	if !strings.Contains(out, "qwen (qwen-plus)") {
		t.Errorf("Expected secondary backend summary, got: %s", out)
	}
	if !strings.Contains(out, "from DEEPSEEK_API_KEY") {
		t.Errorf("Expected env key status for deepseek, got: %s", out)
	}
	if !strings.Contains(out, "missing (DASHSCOPE_API_KEY unset)") {
		t.Errorf("Expected missing key status for qwen, got: %s", out)
	}
}

func TestCmdCache_EmptyCache(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	path := writeTestConfig(t, cfg)

	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	cmd := &cli.Command{
		Name: "cache",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: path},
			&cli.StringFlag{Name: "mode"},
			&cli.BoolFlag{Name: "clear"},
		},
		Action: cmdCache,
	}

	ctx := context.Background()
	err := cmd.Run(ctx, []string{"cache"})

	w.Close()
	os.Stdout = oldStdout
	buf.ReadFrom(r)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(buf.String(), "Reports: 0") {
		t.Errorf("Expected empty cache report, got: %s", buf.String())
	}
}

func TestCmdCache_Clear(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	path := writeTestConfig(t, cfg)

	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	cmd := &cli.Command{
		Name: "cache",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: path},
			&cli.StringFlag{Name: "mode"},
			&cli.BoolFlag{Name: "clear"},
		},
		Action: cmdCache,
	}

	ctx := context.Background()
	err := cmd.Run(ctx, []string{"cache", "--clear"})

	w.Close()
	os.Stdout = oldStdout
	buf.ReadFrom(r)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(buf.String(), "Removed 0 cached reports") {
		t.Errorf("Expected clear confirmation, got: %s", buf.String())
	}
}

func TestLoadConfigFromCtx_ModeFlagOverride(t *testing.T) {
	path := writeTestConfig(t, config.DefaultConfig())

	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: path},
			&cli.StringFlag{Name: "mode"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfigFromCtx(ctx, cmd)
			if err != nil {
				t.Fatalf("Load config: %v", err)
			}
			if cfg.Mode != "qwen" {
				t.Errorf("Expected mode flag to override config, got: %s", cfg.Mode)
			}
			return nil
		},
	}

	ctx := context.Background()
	if err := cmd.Run(ctx, []string{"test", "--mode", "qwen"}); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestOutputModeFlagPrecedence(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want output.Mode
	}{
		{"json flag", []string{"test", "--json"}, output.ModeJSON},
		{"quiet flag", []string{"test", "--quiet"}, output.ModeQuiet},
		{"plain flag", []string{"test", "--plain"}, output.ModePlain},
		{"no flags", []string{"test"}, output.ModePlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got output.Mode
			cmd := &cli.Command{
				Name: "test",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json"},
					&cli.BoolFlag{Name: "quiet"},
					&cli.BoolFlag{Name: "plain"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					got = outputMode(cmd, false)
					return nil
				},
			}
			if err := cmd.Run(context.Background(), tt.args); err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected mode %s, got: %s", tt.want, got)
			}
		})
	}
}

func TestBuildWeather_Static(t *testing.T) {
	cfg := config.DefaultConfig()

	svc, closer, err := buildWeather(cfg)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer closer()

	if svc == nil {
		t.Fatal("Expected a weather service")
	}
	rep, err := svc.Lookup(context.Background(), "beijing")
	if err != nil {
		t.Fatalf("Expected static lookup to succeed, got: %v", err)
	}
	if rep.Location == "" {
		t.Error("Expected a location in the report")
	}
}

func TestBuildWeather_Wttr(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Weather.Source = "wttr"
	cfg.DataDir = filepath.Join(t.TempDir(), "data")

	svc, closer, err := buildWeather(cfg)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer closer()

	if svc == nil {
		t.Fatal("Expected a cached wttr service")
	}
}

func TestBuildWeather_UnknownSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Weather.Source = "noaa"

	_, _, err := buildWeather(cfg)
	if err == nil {
		t.Fatal("Expected error for unknown weather source")
	}
	if !strings.Contains(err.Error(), "unknown weather source") {
		t.Errorf("Expected 'unknown weather source' error, got: %v", err)
	}
}

func TestBuildAgent_AppliesConfigMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mode = "qwen"

	ag, closer, err := buildAgent(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer closer()

	if ag.Mode() != agent.ModeSecondary {
		t.Errorf("Expected secondary mode for qwen, got: %s", ag.Mode())
	}
}

func TestBuildAgent_RejectsUnknownMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mode = "gpt5"

	_, _, err := buildAgent(cfg, log.New(io.Discard, "", 0))
	if err == nil {
		t.Fatal("Expected error for unknown mode")
	}
	if !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("Expected 'unknown backend' error, got: %v", err)
	}
}

func TestChatCommand_Quit(t *testing.T) {
	ag, closer := testAgent(t)
	defer closer()

	var buf bytes.Buffer
	printer := output.NewPrinterWithWriter(output.ModePlain, false, &buf)

	if !chatCommand("/quit", ag, printer, nil) {
		t.Error("Expected /quit to request exit")
	}
	if !chatCommand("/exit", ag, printer, nil) {
		t.Error("Expected /exit to request exit")
	}
}

func TestChatCommand_Mode(t *testing.T) {
	ag, closer := testAgent(t)
	defer closer()

	var buf bytes.Buffer
	printer := output.NewPrinterWithWriter(output.ModePlain, false, &buf)

	if chatCommand("/mode", ag, printer, nil) {
		t.Error("Expected /mode to keep the session open")
	}
	if !strings.Contains(buf.String(), "auto") {
		t.Errorf("Expected current mode in output, got: %s", buf.String())
	}
}

func TestChatCommand_Switch(t *testing.T) {
	ag, closer := testAgent(t)
	defer closer()

	var buf bytes.Buffer
	printer := output.NewPrinterWithWriter(output.ModePlain, false, &buf)

	chatCommand("/switch qwen", ag, printer, nil)
	if ag.Mode() != agent.ModeSecondary {
		t.Errorf("Expected switch to secondary, got: %s", ag.Mode())
	}

	buf.Reset()
	chatCommand("/switch", ag, printer, nil)
	if !strings.Contains(buf.String(), "usage:") {
		t.Errorf("Expected usage hint for bare /switch, got: %s", buf.String())
	}

	buf.Reset()
	chatCommand("/switch gpt5", ag, printer, nil)
	if !strings.Contains(buf.String(), "unknown backend") {
		t.Errorf("Expected unknown backend error, got: %s", buf.String())
	}
	if ag.Mode() != agent.ModeSecondary {
		t.Error("Expected failed switch to keep the previous mode")
	}
}

func TestChatCommand_Unknown(t *testing.T) {
	ag, closer := testAgent(t)
	defer closer()

	var buf bytes.Buffer
	printer := output.NewPrinterWithWriter(output.ModePlain, false, &buf)

	if chatCommand("/teleport", ag, printer, nil) {
		t.Error("Expected unknown command to keep the session open")
	}
	if !strings.Contains(buf.String(), "unknown command") {
		t.Errorf("Expected unknown command warning, got: %s", buf.String())
	}
}

// testAgent builds an agent from the default config; no network calls
// are made until a turn runs.
func testAgent(t *testing.T) (*agent.Agent, func()) {
	t.Helper()
	ag, closer, err := buildAgent(config.DefaultConfig(), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("Failed to build agent: %v", err)
	}
	return ag, closer
}
