package flags

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/docvault/api"
	"github.com/ruteri/docvault/common"
	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/storage"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	return SetupLoggerTo(cCtx, nil)
}

// SetupLoggerTo is SetupLogger writing to out, e.g. stderr for commands whose
// stdout carries results.
func SetupLoggerTo(cCtx *cli.Context, out io.Writer) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
		Output:  out,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             60 * time.Second,
	}
}

// OpenStore builds the vault store from the --store locations, wrapped so
// that unavailable backends are retried.
func OpenStore(cCtx *cli.Context, logger *slog.Logger) (interfaces.KVStore, error) {
	locations, err := interfaces.ParseStorageBackendLocations(cCtx.String(StoreFlag.Name))
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStorageBackendFactory(logger).CreateMultiStore(locations)
	if err != nil {
		return nil, err
	}

	logger.Info("Using vault store", "location", store.LocationURI())
	return storage.NewRetryingStore(store,
		cCtx.Int(StoreRetriesFlag.Name),
		cCtx.Duration(StoreBackoffFlag.Name),
		logger), nil
}

var StoreFlag = &cli.StringFlag{
	Name:    "store",
	Value:   "file://./docvault-data",
	EnvVars: []string{"DOCVAULT_STORE"},
	Usage:   "comma-separated storage locations (mem://, file://, s3://, ipfs://, vault://); several are mirrored",
}
var StoreRetriesFlag = &cli.IntFlag{
	Name:  "store-retries",
	Value: 3,
	Usage: "attempts per storage operation while a backend is unavailable",
}
var StoreBackoffFlag = &cli.DurationFlag{
	Name:  "store-backoff",
	Value: 200 * time.Millisecond,
	Usage: "initial wait between storage attempts, doubled after each",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "docvault",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var StoreFlags = []cli.Flag{
	StoreFlag,
	StoreRetriesFlag,
	StoreBackoffFlag,
}

var ServerFlags = []cli.Flag{
	PprofFlag,
	DrainSecondsFlag,
}
