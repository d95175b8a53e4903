package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/HexSleeves/parasol/internal/config"
	"github.com/HexSleeves/parasol/internal/llm"
	"github.com/HexSleeves/parasol/internal/output"
	"github.com/HexSleeves/parasol/internal/tool"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 15 * time.Second

type probeResult struct {
	name   string
	model  string
	status string
	detail string
}

// cmdDoctor probes both backends and the weather tool and reports what
// works. Doctor always renders plain output, even under --json.
func cmdDoctor(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfigFromCtx(ctx, cmd)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(output.ModePlain, cmd.Bool("verbose"))
	printer.Header("Parasol Doctor")
	printer.KeyValue([][]string{
		{"Mode", cfg.Mode},
		{"Primary", fmt.Sprintf("%s (%s)", cfg.Backends.Primary.Provider, cfg.Backends.Primary.Model)},
		{"Secondary", fmt.Sprintf("%s (%s)", cfg.Backends.Secondary.Provider, cfg.Backends.Secondary.Model)},
		{"Weather", weatherSummary(cfg)},
	})

	printer.Section("Backends")
	backends := []config.BackendConfig{cfg.Backends.Primary, cfg.Backends.Secondary}
	results := make([]probeResult, len(backends))

	sp := printer.Spinner("probing backends...")
	var g errgroup.Group
	for i, b := range backends {
		g.Go(func() error {
			results[i] = probeBackend(ctx, b)
			return nil
		})
	}
	_ = g.Wait()
	sp.Stop(fmt.Sprintf("probed %d backends", len(backends)))

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{output.StatusIcon(r.status), r.name, r.model, r.detail})
	}
	printer.Table([]string{"", "Backend", "Model", "Detail"}, rows)

	printer.Section("Tools")
	svc, closeStore, err := buildWeather(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := tool.NewRegistry()
	if err := tool.RegisterWeather(registry, svc); err != nil {
		return fmt.Errorf("register weather tool: %w", err)
	}
	items := make([]output.BulletItem, 0, 1)
	for _, def := range registry.Defs() {
		items = append(items, output.BulletItem{Icon: "🔧", Text: def.Name + ": " + def.Description})
	}
	printer.BulletList(items)

	wctx, wcancel := context.WithTimeout(ctx, 10*time.Second)
	defer wcancel()
	if rep, err := svc.Lookup(wctx, "beijing"); err != nil {
		printer.Warning("weather lookup failed: %v", err)
	} else {
		printer.Success("weather lookup ok (%s: %d°C, rain %d%%)",
			rep.Location, rep.Temperature.Current, rep.RainProbability)
	}

	printer.Println("")
	for _, r := range results {
		if r.status == "unavailable" {
			return fmt.Errorf("doctor found problems")
		}
	}
	printer.Success("all checks passed")
	return nil
}

func probeBackend(ctx context.Context, b config.BackendConfig) probeResult {
	res := probeResult{name: b.Provider, model: b.Model}

	client, err := llm.NewFromConfig(providerConfig(b))
	if err != nil {
		res.status = "unavailable"
		res.detail = clip(err.Error(), 60)
		return res
	}

	if !hasAPIKey(b) {
		res.status = "skipped"
		res.detail = fmt.Sprintf("no API key (%s unset)", apiKeyEnv(b.Provider))
		return res
	}

	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	if _, err := client.Decide(pctx, []llm.Message{{Role: llm.RoleUser, Content: "ping"}}, nil); err != nil {
		res.status = "unavailable"
		res.detail = clip(err.Error(), 60)
		return res
	}
	res.status = "ok"
	res.detail = fmt.Sprintf("responded in %s", time.Since(start).Round(time.Millisecond))
	return res
}

func hasAPIKey(b config.BackendConfig) bool {
	if b.APIKey != "" {
		return true
	}
	env := apiKeyEnv(b.Provider)
	return env != "" && os.Getenv(env) != ""
}

// clip shortens long error messages so they fit the probe table.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
