// Command rediskeys prints the type and measured value of Redis keys the same
// way the redis_keys monitor measures them.  It is meant for figuring out
// which keys to configure.
//
//	rediskeys <host> [-port 6379] [-auth secret] [-all [-exclude regexp]] [-names a,b,c]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/signalfx/redis-keys-agent/internal/monitors/rediskeys"
)

type flags struct {
	host    string
	port    int
	auth    string
	all     bool
	names   string
	exclude string
}

func getFlags() *flags {
	flags := &flags{}
	set := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "Usage: %s <host> [flags]\n", os.Args[0])
		set.PrintDefaults()
	}

	set.IntVar(&flags.port, "port", 6379, "redis port")
	set.StringVar(&flags.auth, "auth", "", "redis password")
	set.BoolVar(&flags.all, "all", false, "print every key on the server")
	set.StringVar(&flags.names, "names", "", "comma separated list of keys to print")
	set.StringVar(&flags.exclude, "exclude", rediskeys.DefaultInspectExclude, "regexp of keys to skip with -all")

	// Allow the host to come before or after the flags
	args := os.Args[1:]
	_ = set.Parse(args)
	if set.NArg() > 0 {
		flags.host = set.Arg(0)
		_ = set.Parse(set.Args()[1:])
	}
	if flags.host == "" || set.NArg() > 0 {
		set.Usage()
		os.Exit(2)
	}
	return flags
}

func main() {
	log.SetFormatter(&prefixed.TextFormatter{})
	log.SetOutput(os.Stderr)

	flags := getFlags()

	client := rediskeys.NewRedisClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", flags.host, flags.port),
		Password:    flags.auth,
		DialTimeout: 5 * time.Second,
	})
	defer client.Close()

	ctx := context.Background()

	if flags.all {
		exclude, err := regexp.Compile(flags.exclude)
		if err != nil {
			log.WithError(err).Errorf("Invalid exclude pattern %s", flags.exclude)
			os.Exit(2)
		}
		if err := rediskeys.InspectAll(ctx, client, exclude, os.Stdout); err != nil {
			log.WithError(err).Error("Could not inspect keys")
			os.Exit(1)
		}
	}

	if flags.names != "" {
		if err := rediskeys.InspectNames(ctx, client, flags.names, os.Stdout); err != nil {
			log.WithError(err).Error("Could not inspect keys")
			os.Exit(1)
		}
	}
}
