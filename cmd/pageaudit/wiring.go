package main

import (
	"log/slog"
	"net/http"

	"pageaudit/internal/adapters/chrome"
	"pageaudit/internal/adapters/lighthouse"
	"pageaudit/internal/analyzers"
	"pageaudit/internal/audit"
	"pageaudit/internal/config"
	"pageaudit/internal/issues"
	"pageaudit/internal/ports"
)

// newOrchestrator wires the browser, measurement provider and analyzer set
// described by cfg. debugPort overrides cfg.Browser.DebugPort.
func newOrchestrator(cfg *config.Config, debugPort int, logger *slog.Logger) *audit.Orchestrator {
	browser := chrome.New(cfg.Browser.ExecPath, debugPort, logger)
	browser.Headless = cfg.Browser.Headless

	client := &http.Client{Timeout: cfg.Links.Timeout}
	links := &analyzers.LinkChecker{
		Client:      client,
		MaxChecks:   cfg.Links.MaxChecks,
		Timeout:     cfg.Links.Timeout,
		Concurrency: cfg.Links.Concurrency,
		Exclude:     cfg.Links.Exclude,
		Logger:      logger,
	}
	deps := audit.Deps{
		Client:       client,
		Links:        links,
		Registry:     issues.Default(),
		ProbeTimeout: cfg.Links.Timeout,
	}
	return audit.New(browser, newMeasurer(cfg.Measurement), deps, logger)
}

// newMeasurer returns nil when measurement is disabled.
func newMeasurer(cfg config.MeasurementConfig) ports.Measurer {
	switch cfg.Provider {
	case config.ProviderLighthouse:
		return lighthouse.NewRunner(
			lighthouse.WithBinary(cfg.LighthouseBin),
			lighthouse.WithStrategy(cfg.Strategy),
			lighthouse.WithTimeout(cfg.Timeout),
		)
	case config.ProviderPageSpeed:
		return lighthouse.NewPageSpeed(cfg.PageSpeedKey, cfg.Strategy, cfg.Timeout)
	default:
		return nil
	}
}
