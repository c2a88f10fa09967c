// Package main implements jetcdctl, a command line client that runs etcd-style
// requests and transactions against any configured backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Dataman-Cloud/jetcd"
	"github.com/Dataman-Cloud/jetcd/config"
	"github.com/Dataman-Cloud/jetcd/executor"
	"github.com/Dataman-Cloud/jetcd/executor/bolt"
	"github.com/Dataman-Cloud/jetcd/executor/etcd"
	"github.com/Dataman-Cloud/jetcd/executor/memory"
	"github.com/Dataman-Cloud/jetcd/executor/tkv"
	"github.com/Dataman-Cloud/jetcd/internal/txnscript"
)

const usage = `Usage:
  jetcdctl [flags] get <key> [end] [--prefix] [--from-key] [--limit=N] [--rev=N]
                      [--sort-by=KEY|VERSION|CREATE|MODIFY|VALUE] [--order=ASCEND|DESCEND]
                      [--keys-only] [--count-only] [--consistency=l|s]
  jetcdctl [flags] put <key> <value> [--lease=HEXID] [--prev-kv]
  jetcdctl [flags] del <key> [end] [--prefix] [--from-key] [--prev-kv]
  jetcdctl [flags] txn < script

A txn script lists compares, a blank line, success requests, a blank line
and failure requests:

  mod("/cfg/a") = "0"

  put /cfg/a "1"

  get /cfg/a

Flags:
  -config        YAML configuration file
  -env           dotenv file loaded before JETCD_* variables are read
  -backend       overrides the configured backend: etcd, memory, bolt or tarantool
  -timeout       request timeout (default 5s)
  -metrics-file  writes commit metrics in the Prometheus text format on exit
`

const defaultTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("jetcdctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }

	configPath := fs.String("config", "", "YAML configuration file")
	envFile := fs.String("env", "", "dotenv file")
	backend := fs.String("backend", "", "backend override")
	timeout := fs.Duration("timeout", defaultTimeout, "request timeout")
	metricsFile := fs.String("metrics-file", "", "Prometheus text file written on exit")

	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("command required: get | put | del | txn")
	}

	cfg, err := loadConfig(*configPath, *envFile, *backend)
	if err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	registry := prometheus.NewRegistry()

	metrics, err := executor.NewMetrics(registry)
	if err != nil {
		return err
	}

	exec, closeExec, err := openExecutor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeExec(); err != nil {
			logger.Warn("failed to close backend", zap.String("backend", cfg.Backend), zap.Error(err))
		}
	}()

	client := jetcd.NewClient(executor.Instrumented(exec, metrics, logger), jetcd.WithLogger(logger))

	if err := execute(ctx, client, rest, stdin, stdout); err != nil {
		return err
	}

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, registry); err != nil {
			return errors.Wrapf(err, "failed to write metrics to %q", *metricsFile)
		}
	}

	return nil
}

func loadConfig(path, envFile, backend string) (config.Config, error) {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}

	cfg, err := config.Load(path, envFiles...)
	if err != nil {
		return config.Config{}, err
	}

	if backend == "" {
		return cfg, nil
	}

	cfg.Backend = backend

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func openExecutor(
	ctx context.Context,
	cfg config.Config,
	logger *zap.Logger,
) (executor.Executor, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), func() error { return nil }, nil
	case config.BackendBolt:
		exec, err := bolt.Open(cfg.Bolt.Path, bolt.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}

		return exec, exec.Close, nil
	case config.BackendEtcd:
		exec, err := etcd.NewFromConfig(cfg.Etcd, logger)
		if err != nil {
			return nil, nil, err
		}

		return exec, exec.Close, nil
	case config.BackendTarantool:
		exec, err := tkv.NewFromConfig(ctx, cfg.Tarantool, logger)
		if err != nil {
			return nil, nil, err
		}

		return exec, exec.Close, nil
	default:
		return nil, nil, errors.Newf("unknown backend %q", cfg.Backend)
	}
}

func execute(ctx context.Context, client jetcd.Client, args []string, stdin io.Reader, stdout io.Writer) error {
	if args[0] != "txn" {
		op, err := txnscript.ParseArgs(args[0], args[1:])
		if err != nil {
			return err
		}

		result, err := client.Do(ctx, op)
		if err != nil {
			return err
		}

		return printResult(stdout, op, result)
	}

	if len(args) != 1 {
		return errors.New("usage: txn < script")
	}

	script, err := txnscript.Parse(stdin)
	if err != nil {
		return err
	}

	fut, err := client.Txn(ctx).
		If(script.Compares...).
		Then(script.Success...).
		Else(script.Failure...).
		Commit()
	if err != nil {
		return err
	}

	resp, err := fut.GetContext(ctx)
	if err != nil {
		return err
	}

	executed := script.Success
	if !resp.Succeeded {
		executed = script.Failure
	}

	return printTxn(stdout, executed, resp)
}
