package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/jancajthaml-openbank/lake-contract-tests/config"
	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
	"github.com/jancajthaml-openbank/lake-contract-tests/lakecontract"
	"github.com/jancajthaml-openbank/lake-contract-tests/orchestration"
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
)

const teardownTimeout = 30 * time.Second

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	cfg, err := config.Load(params.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(1)
	}
	params.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := framework.NewZerologLogger(os.Stderr, cfg.LogLevel, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, params, log))
}

func run(ctx context.Context, cfg config.Config, params commandParams, log zerolog.Logger) int {
	harness, err := lakecontract.NewHarness(cfg, newService(cfg, log),
		lakecontract.WithLogger(log),
		lakecontract.WithOutput(os.Stdout),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create harness: %s\n", err)
		return 1
	}

	setupErr := harness.Setup(ctx)
	defer func() {
		teardownCtx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if err := harness.Teardown(teardownCtx); err != nil {
			log.Warn().Err(err).Msg("teardown failed")
		}
	}()
	if setupErr != nil {
		fmt.Fprintf(os.Stderr, "Service error: %s\n", setupErr)
		return 1
	}

	fmt.Println()
	framework.PrintFilterDescription(harness.Capabilities(), params.filters, orchestration.AllCapabilities)

	fmt.Println("Running test suite")

	testLogger := &framework.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := lakecontract.RunTestSuite(harness, params.filters.AsFilter, testLogger)

	fmt.Println()
	framework.PrintResults(results)
	if !results.OK() {
		return 1
	}
	return 0
}

func newService(cfg config.Config, log zerolog.Logger) orchestration.Service {
	unitParams := servicedef.UnitParams{
		LogLevel:           ldvalue.NewOptionalString(cfg.Service.LogLevel),
		PubPort:            ldvalue.NewOptionalInt(cfg.Ports.Pub),
		PullPort:           ldvalue.NewOptionalInt(cfg.Ports.Pull),
		MetricsRefreshRate: ldvalue.NewOptionalString(cfg.Service.MetricsRefreshRate),
	}
	if cfg.Service.MetricsFile != "" {
		unitParams.MetricsOutput = ldvalue.NewOptionalString(cfg.Service.MetricsFile)
	}
	logger := framework.ZerologPrintf(log.With().Str("component", "orchestration").Logger())

	switch cfg.Mode {
	case config.ModeUnit:
		return orchestration.NewUnit(cfg.Service.Unit, cfg.Service.UnitConfig, unitParams,
			orchestration.WithUnitHTTPPort(cfg.Ports.HTTP),
			orchestration.WithUnitLogger(logger),
		)
	case config.ModeExternal:
		return orchestration.NewExternal(orchestration.Address{
			Host:     cfg.Host,
			PubPort:  cfg.Ports.Pub,
			PullPort: cfg.Ports.Pull,
			HTTPPort: cfg.Ports.HTTP,
		}, cfg.Service.MetricsFile)
	default:
		return orchestration.NewContainer(cfg.Service.Image, unitParams,
			orchestration.WithContainerHTTPPort(cfg.Ports.HTTP),
			orchestration.WithContainerStartupTimeout(cfg.Timeouts.Startup),
			orchestration.WithContainerLogger(logger),
		)
	}
}
