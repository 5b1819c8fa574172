package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgwait/internal/config"
	"github.com/vvka-141/pgwait/internal/db"
	"github.com/vvka-141/pgwait/internal/logging"
	"github.com/vvka-141/pgwait/internal/readiness"
	"github.com/vvka-141/pgwait/internal/tui"
	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// waitOptions holds the flag values of one command.
type waitOptions struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	authMethod     string
	azureTenantID  string
	azureClientID  string
	awsRegion      string
	googleInstance string

	interval       time.Duration
	maxAttempts    int
	timeout        time.Duration
	connectTimeout time.Duration
	retryOn        []string
	backoff        string
	maxInterval    time.Duration

	quiet     bool
	envFile   string
	configDir string
}

// defaultRetryOn retries only failures where the server is not accepting yet.
var defaultRetryOn = []string{pgwait.KindConnectionNotReady.String()}

// probeFactory builds the readiness probe for a resolved connection.
// Tests replace it to avoid a live server.
var probeFactory = func(cfg *pgwait.ConnectionConfig, connectTimeout time.Duration) (pgwait.Probe, error) {
	connector, err := db.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return db.NewPingProbe(connector, db.WithConnectTimeout(connectTimeout)).Probe(), nil
}

// waitSleeper is the pause between attempts. Tests replace it.
var waitSleeper pgwait.Sleeper = readiness.TimerSleeper{}

func newWaitCmd() *cobra.Command {
	opts := &waitOptions{}

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until the database accepts connections",
		Long: `Poll the database until a connection, ping and SELECT 1 succeed.

Progress is printed to stdout:
  Waiting for database...
  Database unavailable! Waiting for 1 second...
  Database available!

By default only connection-not-ready failures (refused, reset, starting up,
shutting down, timeouts) are retried, forever, once per second. Use
--max-attempts or --timeout to bound the wait.`,
		Example: `  pgwait wait --connection "postgresql://app@db:5432/app"
  pgwait wait -h db -U app -d app --timeout 2m
  pgwait wait --retry-on transient-unavailable --backoff exponential --max-interval 10s
  DATABASE_URL=postgres://app@db/app pgwait`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWait(cmd, opts)
		},
	}

	addWaitFlags(cmd, opts)
	return cmd
}

func addWaitFlags(cmd *cobra.Command, opts *waitOptions) {
	f := cmd.Flags()

	f.StringVar(&opts.connection, "connection", "",
		"PostgreSQL connection string (URI, ADO.NET, or key=value)\n"+
			"Defaults to $PGWAIT_CONNECTION_STRING or $DATABASE_URL")
	f.StringVarP(&opts.host, "host", "h", "", "Database host (default: $PGHOST or localhost)")
	f.IntVarP(&opts.port, "port", "p", 0, "Database port (default: $PGPORT or 5432)")
	f.StringVarP(&opts.username, "username", "U", "", "Database user (default: $PGUSER or postgres)")
	f.StringVarP(&opts.database, "database", "d", "", "Database name (default: $PGDATABASE or postgres)")
	f.StringVar(&opts.sslMode, "sslmode", "", "SSL mode: disable, allow, prefer, require, verify-ca, verify-full")
	f.StringVar(&opts.authMethod, "auth", "", "Authentication method: standard, aws, google, azure")
	f.StringVar(&opts.azureTenantID, "azure-tenant-id", "", "Azure AD tenant ID (overrides $AZURE_TENANT_ID)")
	f.StringVar(&opts.azureClientID, "azure-client-id", "", "Azure AD client ID (overrides $AZURE_CLIENT_ID)")
	f.StringVar(&opts.awsRegion, "aws-region", "", "AWS region for RDS IAM auth (overrides $AWS_REGION)")
	f.StringVar(&opts.googleInstance, "google-instance", "", "Cloud SQL instance connection name (project:region:instance)")

	f.DurationVar(&opts.interval, "interval", pgwait.DefaultPollInterval, "Delay between failed attempts")
	f.IntVar(&opts.maxAttempts, "max-attempts", 0, "Give up after this many retryable failures (0: unbounded)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Overall deadline for the wait (0: none)")
	f.DurationVar(&opts.connectTimeout, "connect-timeout", pgwait.DefaultConnectTimeout, "Deadline for a single attempt")
	f.StringSliceVar(&opts.retryOn, "retry-on", defaultRetryOn, "Error kinds to retry, comma-separated")
	f.StringVar(&opts.backoff, "backoff", config.BackoffFixed, "Delay strategy: fixed or exponential")
	f.DurationVar(&opts.maxInterval, "max-interval", pgwait.DefaultMaxInterval, "Delay cap for exponential backoff")

	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")
	f.StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file (after .env)")
	f.StringVar(&opts.configDir, "config-dir", ".", "Directory containing pgwait.yaml")

	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
	_ = cmd.RegisterFlagCompletionFunc("auth", completeAuthMethods)
	_ = cmd.RegisterFlagCompletionFunc("backoff", completeBackoff)
	_ = cmd.RegisterFlagCompletionFunc("retry-on", completeErrorKinds)
	_ = cmd.RegisterFlagCompletionFunc("config-dir", completeDirectories)
}

// waitSettings are the polling parameters after merging flags and pgwait.yaml.
type waitSettings struct {
	interval       time.Duration
	maxAttempts    int
	timeout        time.Duration
	connectTimeout time.Duration
	retryOn        []pgwait.ErrorKind
	backoff        string
	maxInterval    time.Duration
}

func runWait(cmd *cobra.Command, opts *waitOptions) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose, logging.WithWriter(errWriter(cmd)))

	if err := loadEnvFiles(opts.envFile); err != nil {
		return err
	}

	projectCfg, err := loadProjectConfig(opts.configDir)
	if err != nil {
		return err
	}

	settings, err := resolveWaitSettings(cmd, opts, projectCfg)
	if err != nil {
		return err
	}

	connConfig, err := db.ResolveConnectionParams(
		opts.connection,
		&db.GranularConnFlags{
			Host:     opts.host,
			Port:     opts.port,
			Username: opts.username,
			Database: opts.database,
			SSLMode:  opts.sslMode,
		},
		&db.CloudFlags{
			AuthMethod:     opts.authMethod,
			AzureTenantID:  opts.azureTenantID,
			AzureClientID:  opts.azureClientID,
			AWSRegion:      opts.awsRegion,
			GoogleInstance: opts.googleInstance,
		},
		db.LoadFromEnvironment(),
		projectCfg,
	)
	if err != nil {
		return err
	}

	sessionID := uuid.New()
	if connConfig.AppName == "" {
		connConfig.AppName = fmt.Sprintf("%s-%s", pgwait.ApplicationNamePrefix, sessionID)
	}
	logger.Verbose("Session %s waiting for %s", sessionID, db.DescribeTarget(connConfig))
	logger.Verbose("Interval %v, max attempts %d, timeout %v, retrying %v",
		settings.interval, settings.maxAttempts, settings.timeout, settings.retryOn)

	probe, err := probeFactory(connConfig, settings.connectTimeout)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if settings.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.timeout)
		defer cancel()
	}

	reporter := tui.NewReporter(cmd.OutOrStdout(), tui.WithQuietProgress(opts.quiet))

	pollerOpts := []readiness.Option{
		readiness.WithLogger(logger),
		readiness.WithSleeper(waitSleeper),
		readiness.WithClassifier(readiness.NewPostgreSQLErrorClassifier()),
	}
	if settings.backoff == config.BackoffExponential {
		pollerOpts = append(pollerOpts, readiness.WithBackoff(readiness.NewExponentialBackoff(
			readiness.WithInitialDelay(settings.interval),
			readiness.WithMaxDelay(settings.maxInterval),
		)))
	}

	poller := readiness.NewPoller(readiness.Config{
		Interval:       settings.interval,
		MaxAttempts:    settings.maxAttempts,
		RetryableKinds: settings.retryOn,
	}, pollerOpts...).WithOnRetry(func(_ int, _ error, delay time.Duration) {
		reporter.Unavailable(delay)
	})

	reporter.Waiting()
	outcome := poller.Poll(ctx, probe)
	if outcome.Ready() {
		reporter.Available()
		return nil
	}

	logger.Verbose("Gave up after %d invocation(s): %s", outcome.Invocations, outcome.Kind)
	return outcome.Err()
}

// loadEnvFiles loads .env when present, then the explicit env file.
// Variables already set in the environment win.
func loadEnvFiles(envFile string) error {
	_ = godotenv.Load()

	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file '%s': %v: %w", envFile, err, pgwait.ErrInvalidConfig)
	}
	return nil
}

// loadProjectConfig returns nil config if pgwait.yaml does not exist (not an error).
func loadProjectConfig(dir string) (*config.ProjectConfig, error) {
	projectCfg, err := config.Load(dir)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return projectCfg, nil
}

// resolveWaitSettings applies pgwait.yaml values for every flag the user did not set.
func resolveWaitSettings(cmd *cobra.Command, opts *waitOptions, projectCfg *config.ProjectConfig) (waitSettings, error) {
	s := waitSettings{
		interval:       opts.interval,
		maxAttempts:    opts.maxAttempts,
		timeout:        opts.timeout,
		connectTimeout: opts.connectTimeout,
		backoff:        opts.backoff,
		maxInterval:    opts.maxInterval,
	}
	retryOn := opts.retryOn

	if projectCfg != nil {
		w := projectCfg.Wait
		changed := cmd.Flags().Changed

		for _, d := range []struct {
			flag, field, value string
			target             *time.Duration
		}{
			{"interval", "wait.interval", w.Interval, &s.interval},
			{"timeout", "wait.timeout", w.Timeout, &s.timeout},
			{"connect-timeout", "wait.connect_timeout", w.ConnectTimeout, &s.connectTimeout},
			{"max-interval", "wait.max_interval", w.MaxInterval, &s.maxInterval},
		} {
			if changed(d.flag) {
				continue
			}
			parsed, ok, err := config.ParseDuration(d.field, d.value)
			if err != nil {
				return waitSettings{}, err
			}
			if ok {
				*d.target = parsed
			}
		}

		if !changed("max-attempts") && w.MaxAttempts != 0 {
			s.maxAttempts = w.MaxAttempts
		}
		if !changed("retry-on") && len(w.RetryOn) > 0 {
			retryOn = w.RetryOn
		}
		if !changed("backoff") && w.Backoff != "" {
			s.backoff = w.Backoff
		}
	}

	if err := config.ValidateBackoff(s.backoff); err != nil {
		return waitSettings{}, fmt.Errorf("--backoff: %w", err)
	}
	if s.timeout < 0 {
		return waitSettings{}, fmt.Errorf("--timeout cannot be negative (got %v): %w", s.timeout, pgwait.ErrInvalidConfig)
	}
	if s.connectTimeout < 0 {
		return waitSettings{}, fmt.Errorf("--connect-timeout cannot be negative (got %v): %w", s.connectTimeout, pgwait.ErrInvalidConfig)
	}
	if s.maxInterval < 0 {
		return waitSettings{}, fmt.Errorf("--max-interval cannot be negative (got %v): %w", s.maxInterval, pgwait.ErrInvalidConfig)
	}

	kinds, err := pgwait.ParseErrorKinds(retryOn)
	if err != nil {
		return waitSettings{}, fmt.Errorf("--retry-on: %w", err)
	}
	s.retryOn = kinds

	return s, nil
}
