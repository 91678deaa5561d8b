package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/merkleclock/domain/clock"
	"github.com/kaspanet/merkleclock/infrastructure/config"
	"github.com/kaspanet/merkleclock/infrastructure/logger"
	"github.com/kaspanet/merkleclock/infrastructure/os/signal"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const appName = "clockctl"

func main() {
	cfg, commandAndParameters, err := config.LoadConfig(appName, os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrShowSubsystems) {
			fmt.Printf("Supported subsystems %s\n", logger.SupportedSubsystems())
			os.Exit(0)
		}
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			printCommands()
			os.Exit(0)
		}
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}
	if len(commandAndParameters) == 0 {
		printCommands()
		printErrorAndExit("a command must be specified")
	}

	initLog(cfg)
	defer logger.BackendLog.Close()

	ctx, cancel := signal.InterruptContext(context.Background())
	defer cancel()

	err = run(ctx, cfg, commandAndParameters[0], commandAndParameters[1:])
	if err != nil {
		log.Errorf("%s failed: %+v", commandAndParameters[0], err)
		logger.BackendLog.Close()
		printErrorAndExit(err.Error())
	}
}

func initLog(cfg *config.Config) {
	logger.InitLog(cfg.LogFile, cfg.ErrLogFile, cfg.NoLogFiles)
	err := logger.ParseAndSetLogLevels(cfg.LogLevel)
	if err != nil {
		printErrorAndExit(err.Error())
	}
}

func run(ctx context.Context, cfg *config.Config, commandName string, parameters []string) error {
	cmd, ok := commandsByName[commandName]
	if !ok {
		printCommands()
		return errors.Errorf("unknown command %s", commandName)
	}
	if len(parameters) != len(cmd.parameters) {
		return errors.Errorf("%s expects %d parameters (%s), got %d",
			commandName, len(cmd.parameters), strings.Join(cmd.parameters, ", "), len(parameters))
	}

	registry := prometheus.NewRegistry()
	stores, err := openStores(ctx, cfg, registry)
	if err != nil {
		return err
	}
	defer stores.close()

	c := clock.New(stores.blocks, stores.heads)
	err = cmd.execute(ctx, &commandContext{clock: c, stores: stores}, parameters)
	if err != nil {
		return err
	}

	logStoreMetrics(registry)
	return nil
}

func logStoreMetrics(registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		log.Warnf("Failed to gather store metrics: %s", err)
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				labels = append(labels, label.GetName()+"="+label.GetValue())
			}
			log.Debugf("%s{%s} %g", family.GetName(), strings.Join(labels, ","), metric.GetCounter().GetValue())
		}
	}
}

func printErrorAndExit(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(1)
}
