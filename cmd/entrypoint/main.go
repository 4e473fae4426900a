// The container entrypoint: repair volume ownership, regenerate the
// static asset bundle, then exec the server command given as arguments
// (defaulting to the api binary). Designed to be safe to re-run on every
// restart against empty, stale or wrongly-owned volumes.
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/fuelroute/fuel-route-backend/config"
	"github.com/fuelroute/fuel-route-backend/internal/entrypoint"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("entrypoint config: %v", err)
	}

	owner := entrypoint.Identity{
		UID: envInt("ENTRYPOINT_CHOWN_UID", -1),
		GID: envInt("ENTRYPOINT_CHOWN_GID", -1),
	}

	seq := entrypoint.NewSequencer(
		[]string{cfg.Paths.StaticRoot, cfg.Paths.DataDir, cfg.Paths.TmpDir},
		owner,
		cfg.Paths.StaticSrc,
		cfg.Paths.StaticRoot,
	)

	argv := os.Args[1:]
	if len(argv) == 0 {
		argv = []string{envOr("SERVER_BINARY", "/app/api")}
	}

	// Run only returns when the exec itself fails; everything before it
	// is best effort.
	if err := seq.Run(argv); err != nil {
		log.Fatalf("entrypoint: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid integer for %s, using default: %d", key, def)
		return def
	}
	return n
}
