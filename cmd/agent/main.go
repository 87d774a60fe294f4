package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/signalfx/redis-keys-agent/internal/core/config"
	"github.com/signalfx/redis-keys-agent/internal/core/selfmetrics"
	"github.com/signalfx/redis-keys-agent/internal/core/writer"
	"github.com/signalfx/redis-keys-agent/internal/monitors/rediskeys"
)

var (
	// Version for agent
	Version string

	// BuiltTime for the agent
	BuiltTime string
)

const defaultConfigPath = "/etc/redis-keys/agent.yaml"

func init() {
	log.SetFormatter(&prefixed.TextFormatter{})
	log.SetLevel(log.InfoLevel)
	// stdout is reserved for PUTVAL lines, even before the config is loaded
	log.SetOutput(os.Stderr)
}

// flags is used to store parsed flag values
type flags struct {
	// version is a bool flag for printing the agent version string
	version bool
	// configPath is a string flag for specifying the agent.yaml config file
	configPath string
	// debug is a bool flag for printing debug level information
	debug bool
}

// getFlags retrieves flags passed to the agent at runtime and return them in a flags struct
func getFlags() *flags {
	flags := &flags{}
	set := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	set.BoolVar(&flags.version, "version", false, "print agent version")
	set.StringVar(&flags.configPath, "config", defaultConfigPath, "agent config path")
	set.BoolVar(&flags.debug, "debug", false, "print debugging output")

	// The set is configured to exit on errors so we don't need to check the
	// return value here.
	_ = set.Parse(os.Args[1:])
	if len(set.Args()) > 0 {
		os.Stderr.WriteString("Non-flag parameters are not accepted\n")
		set.Usage()
		os.Exit(2)
	}
	return flags
}

// startup loads the config and creates the writer that values are sent to.
// Values written in putval format go to stdout, nothing else does.
func startup(flags *flags, stdout io.Writer) (*config.Config, *writer.Writer, error) {
	conf, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not load config")
	}

	conf.Logging.Apply()
	if flags.debug {
		log.SetLevel(log.DebugLevel)
	}

	out, err := writer.New(&conf.Writer, stdout)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not create writer")
	}
	return conf, out, nil
}

// reload re-reads the config file and replaces the targets of the running
// monitor.  Changes to anything outside of redisKeys need a restart.
func reload(flags *flags, monitor *rediskeys.Monitor) error {
	conf, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return errors.Wrap(err, "could not load config")
	}
	conf.Logging.Apply()
	if flags.debug {
		log.SetLevel(log.DebugLevel)
	}
	return monitor.Reload(&conf.RedisKeys)
}

func main() {
	flags := getFlags()

	if flags.version {
		fmt.Printf("agent-version: %s, built-time: %s\n", Version, BuiltTime)
		os.Exit(0)
	}

	conf, out, err := startup(flags, os.Stdout)
	if err != nil {
		log.WithError(err).Error("Could not start agent")
		os.Exit(1)
	}

	metrics := selfmetrics.New()
	if sw := out.SignalFx(); sw != nil {
		metrics.TrackDatapointsSent(sw.DatapointsSent)
	}

	monitor := &rediskeys.Monitor{
		Output:   out,
		Hostname: conf.Hostname,
		Metrics:  metrics,
	}
	if err := monitor.Configure(&conf.RedisKeys); err != nil {
		log.WithError(err).Error("Could not configure redis_keys")
		os.Exit(1)
	}

	var statusServer *selfmetrics.Server
	if conf.StatusServer.Enabled {
		statusServer = selfmetrics.StartServer(conf.StatusServer.Host, conf.StatusServer.Port, metrics, monitor)
	}

	log.Infof("Started redis_keys agent version %s", Version)

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	interruptCh := make(chan os.Signal, 1)
	signal.Notify(interruptCh, os.Interrupt, syscall.SIGTERM)

	for running := true; running; {
		select {
		case <-hupCh:
			log.Info("Reloading redis_keys targets")
			if err := reload(flags, monitor); err != nil {
				log.WithError(err).Error("Could not reload config, keeping the current targets")
			}
		case <-interruptCh:
			running = false
		}
	}

	log.Info("Shutting down")
	monitor.Shutdown()

	if statusServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := statusServer.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Could not stop internal status server cleanly")
		}
		cancel()
	}

	if err := out.Close(); err != nil {
		log.WithError(err).Warn("Could not close writer cleanly")
	}
}
