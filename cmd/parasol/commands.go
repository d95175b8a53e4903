package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/HexSleeves/parasol/internal/agent"
	"github.com/HexSleeves/parasol/internal/config"
	"github.com/HexSleeves/parasol/internal/llm"
	"github.com/HexSleeves/parasol/internal/output"
	"github.com/HexSleeves/parasol/internal/store"
	"github.com/HexSleeves/parasol/internal/tool"
	"github.com/HexSleeves/parasol/internal/tui"
	"github.com/HexSleeves/parasol/internal/weather"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func loadConfigFromCtx(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if mode := cmd.String("mode"); mode != "" {
		cfg.Mode = mode
	}

	return cfg, nil
}

// buildAgent wires the configured backends, weather source, and tool
// registry into an agent. The returned closer releases the cache store.
func buildAgent(cfg *config.Config, logger *log.Logger) (*agent.Agent, func(), error) {
	primary, err := llm.NewFromConfig(providerConfig(cfg.Backends.Primary))
	if err != nil {
		return nil, nil, fmt.Errorf("primary backend: %w", err)
	}
	secondary, err := llm.NewFromConfig(providerConfig(cfg.Backends.Secondary))
	if err != nil {
		return nil, nil, fmt.Errorf("secondary backend: %w", err)
	}

	svc, closer, err := buildWeather(cfg)
	if err != nil {
		return nil, nil, err
	}

	registry := tool.NewRegistry()
	if err := tool.RegisterWeather(registry, svc); err != nil {
		closer()
		return nil, nil, fmt.Errorf("register weather tool: %w", err)
	}

	selector := agent.NewSelector(primary, secondary)
	ag := agent.New(selector, registry, cfg.MaxRetries, logger)
	if cfg.Mode != "" {
		if _, err := ag.Switch(cfg.Mode); err != nil {
			closer()
			return nil, nil, err
		}
	}
	return ag, closer, nil
}

func providerConfig(b config.BackendConfig) llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider: b.Provider,
		Model:    b.Model,
		APIKey:   b.APIKey,
		BaseURL:  b.BaseURL,
	}
}

func buildWeather(cfg *config.Config) (weather.Service, func(), error) {
	noop := func() {}
	switch cfg.Weather.Source {
	case "", "static":
		return weather.NewStaticService(), noop, nil
	case "wttr":
		st, err := store.Open(cfg.DataPath())
		if err != nil {
			return nil, nil, fmt.Errorf("open weather cache: %w", err)
		}
		svc := weather.NewCachedService(weather.NewWttrService(cfg.Weather.BaseURL), st, cfg.Weather.CacheTTL)
		return svc, func() { st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown weather source: %q (supported: static, wttr)", cfg.Weather.Source)
	}
}

// outputMode resolves the output mode from flags; interactive commands
// get the TUI when stdout is a terminal.
func outputMode(cmd *cli.Command, interactive bool) output.Mode {
	switch {
	case cmd.Bool("json"):
		return output.ModeJSON
	case cmd.Bool("quiet"):
		return output.ModeQuiet
	case cmd.Bool("plain"):
		return output.ModePlain
	}
	if interactive && term.IsTerminal(int(os.Stdout.Fd())) {
		return output.ModeTUI
	}
	return output.ModePlain
}

// withSignalCancel cancels the returned context on SIGINT or SIGTERM.
func withSignalCancel(ctx context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			logger.Println("interrupted, stopping...")
			cancel()
		case <-runCtx.Done():
		}
		signal.Stop(sigs)
	}()

	return runCtx, cancel
}

// turnLogger builds the agent logger for a non-TUI mode and, for JSON
// mode, the event writer that shares it.
func turnLogger(out *output.Manager) (*log.Logger, *output.JSONWriter) {
	switch {
	case out.IsJSON():
		jw := output.NewJSONWriter(out.Stdout())
		out.SetJSONWriter(jw)
		return log.New(jw.LogWriter(), "", 0), jw
	case out.IsQuiet():
		return log.New(io.Discard, "", 0), nil
	default:
		return log.New(out.Stderr(), "", 0), nil
	}
}

func cmdAsk(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("usage: parasol ask <question>")
	}
	return runAsk(ctx, cmd, query)
}

func runAsk(ctx context.Context, cmd *cli.Command, query string) error {
	cfg, err := loadConfigFromCtx(ctx, cmd)
	if err != nil {
		return err
	}

	mode := outputMode(cmd, false)
	out := output.NewManager(mode)
	logger, jw := turnLogger(out)

	ag, closeStore, err := buildAgent(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	if out.IsQuiet() {
		ag.SetQuiet(true)
	}

	runCtx, cancel := withSignalCancel(ctx, logger)
	defer cancel()

	if jw != nil {
		jw.WriteTurnStart(query, string(ag.Mode())) //nolint:errcheck
	}
	res, err := ag.RunTurn(runCtx, query)
	if err != nil {
		if jw != nil {
			jw.WriteError(err, "") //nolint:errcheck
		}
		return err
	}
	if jw != nil {
		return jw.WriteTurnEnd(query, res)
	}
	out.Answer(res.FinalAnswer)
	return nil
}

func cmdChat(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfigFromCtx(ctx, cmd)
	if err != nil {
		return err
	}

	if outputMode(cmd, true) == output.ModeTUI {
		return runChatTUI(ctx, cfg)
	}
	return runChatPlain(ctx, cmd, cfg)
}

func runChatTUI(ctx context.Context, cfg *config.Config) error {
	// The logger's output is swapped to the TUI once the program exists.
	logger := log.New(io.Discard, "", 0)
	ag, closeStore, err := buildAgent(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	prog := tui.NewProgram(ctx, ag)
	logger.SetOutput(prog.LogWriter())

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func runChatPlain(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	mode := outputMode(cmd, false)
	out := output.NewManager(mode)
	printer := output.NewPrinter(mode, cmd.Bool("verbose"))
	logger, jw := turnLogger(out)

	ag, closeStore, err := buildAgent(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	if out.IsQuiet() {
		ag.SetQuiet(true)
	}

	runCtx, cancel := withSignalCancel(ctx, logger)
	defer cancel()

	printer.Header("Parasol")
	printer.Info("mode: %s", ag.Selector().Describe())
	printer.Info("ask a question, or /mode, /switch <mode>, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for runCtx.Err() == nil {
		if out.IsPlain() {
			fmt.Fprint(out.Stdout(), "❯ ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := chatCommand(line, ag, printer, jw); quit {
				break
			}
			continue
		}
		chatTurn(runCtx, ag, line, out, printer, jw)
	}
	return scanner.Err()
}

// chatCommand handles one slash command; it reports whether to quit.
func chatCommand(line string, ag *agent.Agent, printer *output.Printer, jw *output.JSONWriter) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/mode":
		printer.Info("mode: %s", ag.Selector().Describe())
	case "/switch":
		if len(fields) < 2 {
			printer.Warning("usage: /switch auto|primary|secondary|<backend>")
			return false
		}
		from := string(ag.Mode())
		to, err := ag.Switch(fields[1])
		if err != nil {
			printer.Error("%v", err)
			return false
		}
		if jw != nil {
			jw.WriteModeSwitch(from, string(to)) //nolint:errcheck
		}
		printer.Info("mode: %s", ag.Selector().Describe())
	default:
		printer.Warning("unknown command: %s", fields[0])
	}
	return false
}

func chatTurn(ctx context.Context, ag *agent.Agent, query string, out *output.Manager, printer *output.Printer, jw *output.JSONWriter) {
	if jw != nil {
		jw.WriteTurnStart(query, string(ag.Mode())) //nolint:errcheck
	}
	res, err := ag.RunTurn(ctx, query)
	if err != nil {
		switch {
		case jw != nil:
			jw.WriteError(err, "") //nolint:errcheck
		case out.IsQuiet():
			// The agent's own failure log is discarded in quiet mode.
			out.Errorf("%v", err)
		}
		return
	}
	if jw != nil {
		jw.WriteTurnEnd(query, res) //nolint:errcheck
		return
	}
	out.Answer(res.FinalAnswer)
	printer.Divider()
}

func cmdInit(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	if _, err := os.Stat(configPath); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Wrote %s\n", configPath)
	fmt.Println("Set DEEPSEEK_API_KEY and DASHSCOPE_API_KEY, or add api_key entries to the config.")
	return nil
}

func cmdConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Printf("Configuration (%s):\n", configPath)
	fmt.Printf("  Mode:        %s\n", cfg.Mode)
	fmt.Printf("  Primary:     %s (%s)\n", cfg.Backends.Primary.Provider, cfg.Backends.Primary.Model)
	fmt.Printf("  Secondary:   %s (%s)\n", cfg.Backends.Secondary.Provider, cfg.Backends.Secondary.Model)
	fmt.Printf("  Max Retries: %d\n", cfg.MaxRetries)
	fmt.Printf("  Weather:     %s\n", weatherSummary(cfg))
	fmt.Printf("  Data Dir:    %s\n", cfg.DataPath())
	fmt.Printf("  API Keys:\n")
	fmt.Printf("    - %s: %s\n", cfg.Backends.Primary.Provider, apiKeyStatus(cfg.Backends.Primary))
	fmt.Printf("    - %s: %s\n", cfg.Backends.Secondary.Provider, apiKeyStatus(cfg.Backends.Secondary))
	return nil
}

func weatherSummary(cfg *config.Config) string {
	switch cfg.Weather.Source {
	case "", "static":
		return "static (built-in mock data)"
	case "wttr":
		base := cfg.Weather.BaseURL
		if base == "" {
			base = "https://wttr.in"
		}
		return fmt.Sprintf("wttr (%s, cache %v)", base, cfg.Weather.CacheTTL)
	default:
		return cfg.Weather.Source
	}
}

// apiKeyEnv names the environment variable each provider reads when the
// config carries no key.
func apiKeyEnv(provider string) string {
	switch provider {
	case "deepseek":
		return "DEEPSEEK_API_KEY"
	case "qwen", "dashscope":
		return "DASHSCOPE_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

func apiKeyStatus(b config.BackendConfig) string {
	if b.APIKey != "" {
		return "set in config"
	}
	env := apiKeyEnv(b.Provider)
	if env == "" {
		return "unknown provider"
	}
	if os.Getenv(env) != "" {
		return "from " + env
	}
	return "missing (" + env + " unset)"
}

func cmdCache(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfigFromCtx(ctx, cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DataPath())
	if err != nil {
		return fmt.Errorf("open weather cache: %w", err)
	}
	defer st.Close()

	if cmd.Bool("clear") {
		n, err := st.ClearReports()
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Printf("Removed %d cached reports\n", n)
		return nil
	}

	count, err := st.CountReports()
	if err != nil {
		return err
	}
	fmt.Printf("Cache: %s\n", st.Path())
	fmt.Printf("  Reports: %d\n", count)
	fmt.Printf("  TTL:     %v\n", cfg.Weather.CacheTTL)
	return nil
}
