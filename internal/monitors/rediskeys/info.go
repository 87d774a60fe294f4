package rediskeys

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// parseInfoString turns the output of the INFO command into a flat field to
// value map.  Keyspace lines (e.g. `db0:keys=1,expires=0,avg_ttl=0`) are kept
// as is and are also flattened into `db0_keys`, `db0_expires` and so on so
// that they can be configured like any other field.
func parseInfoString(infoStr string, logger log.FieldLogger) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(infoStr, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			logger.Warnf("Non-blank/comment info line is not in form <key>:<value>: %s", line)
			continue
		}
		out[parts[0]] = parts[1]

		if isKeyspaceField(parts[0]) {
			for _, m := range strings.Split(parts[1], ",") {
				kv := strings.SplitN(m, "=", 2)
				if len(kv) != 2 {
					logger.Warnf("Keyspace info %s has invalid metric part %s", parts[1], m)
					continue
				}
				out[parts[0]+"_"+kv[0]] = kv[1]
			}
		}
	}
	return out
}

func isKeyspaceField(k string) bool {
	if len(k) < 3 || !strings.HasPrefix(k, "db") {
		return false
	}
	for _, c := range k[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
