package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/persistence/indexdb"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.AuditLogger
	Close() error
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
}

// openRuntimeIndex picks the audit index backend. backend falls back to
// TC_INDEX_BACKEND, then sqlite. A nil index means indexing is off.
func openRuntimeIndex(backend, dataDir, worldID string, log logrus.FieldLogger) (runtimeIndex, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = strings.ToLower(strings.TrimSpace(os.Getenv("TC_INDEX_BACKEND")))
	}
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "world.sqlite"))
		if err != nil {
			return nil, err
		}
		return idx, nil
	case "d1":
		endpoint := strings.TrimSpace(os.Getenv("TC_INDEX_D1_INGEST_URL"))
		if endpoint == "" {
			return nil, fmt.Errorf("TC_INDEX_BACKEND=d1 but TC_INDEX_D1_INGEST_URL is empty")
		}
		idx, err := indexdb.OpenD1(indexdb.D1Config{
			Endpoint:      endpoint,
			Token:         strings.TrimSpace(os.Getenv("TC_INDEX_D1_TOKEN")),
			WorldID:       worldID,
			BatchSize:     envInt("TC_INDEX_D1_BATCH_SIZE", 128),
			FlushInterval: time.Duration(envInt("TC_INDEX_D1_FLUSH_MS", 500)) * time.Millisecond,
			Log:           log,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", backend)
	}
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
