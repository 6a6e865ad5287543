package r2s3

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/metrics"
)

// Config is read from TC_MIRROR_* variables. An empty endpoint disables
// the mirror.
type Config struct {
	Endpoint        string        `env:"TC_MIRROR_ENDPOINT"`
	Bucket          string        `env:"TC_MIRROR_BUCKET"`
	AccessKeyID     string        `env:"TC_MIRROR_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"TC_MIRROR_SECRET_ACCESS_KEY"`
	Prefix          string        `env:"TC_MIRROR_PREFIX"`
	Workers         int           `env:"TC_MIRROR_WORKERS" envDefault:"1"`
	QueueCapacity   int           `env:"TC_MIRROR_QUEUE" envDefault:"256"`
	EnqueueWait     time.Duration `env:"TC_MIRROR_ENQUEUE_WAIT" envDefault:"25ms"`
}

func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("r2s3: %w", err)
	}
	return cfg, nil
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.Endpoint) != "" }

// Mirror uploads finished files under dataDir, keyed by their path relative
// to it. Uploads run on worker goroutines so callers never wait on the
// network.
type Mirror struct {
	client  *Client
	dataDir string
	prefix  string
	log     logrus.FieldLogger

	jobs        chan string
	enqueueWait time.Duration
	wg          sync.WaitGroup
	once        sync.Once
}

func NewMirror(cfg Config, dataDir string, log logrus.FieldLogger) (*Mirror, error) {
	client, err := NewClient(cfg.Endpoint, cfg.Bucket, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, err
	}
	return newMirror(client, cfg, dataDir, log), nil
}

func newMirror(client *Client, cfg Config, dataDir string, log logrus.FieldLogger) *Mirror {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 256
	}
	if cfg.EnqueueWait <= 0 {
		cfg.EnqueueWait = 25 * time.Millisecond
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &Mirror{
		client:      client,
		dataDir:     dataDir,
		prefix:      strings.Trim(strings.ReplaceAll(cfg.Prefix, "\\", "/"), "/"),
		log:         log.WithField("component", "r2s3"),
		jobs:        make(chan string, cfg.QueueCapacity),
		enqueueWait: cfg.EnqueueWait,
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for p := range m.jobs {
				metrics.MirrorQueueDepth.Set(float64(len(m.jobs)))
				m.upload(p)
			}
		}()
	}
	return m
}

// Enqueue schedules localPath for upload. It waits briefly on a full queue
// and then drops the file.
func (m *Mirror) Enqueue(localPath string) {
	if m == nil {
		return
	}
	select {
	case m.jobs <- localPath:
		metrics.MirrorQueueDepth.Set(float64(len(m.jobs)))
		return
	default:
	}
	timer := time.NewTimer(m.enqueueWait)
	defer timer.Stop()
	select {
	case m.jobs <- localPath:
	case <-timer.C:
		metrics.MirrorUploads.WithLabelValues("dropped").Inc()
		m.log.WithField("file", localPath).Warn("mirror queue full; dropped")
	}
}

// Close waits for queued uploads to finish.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.once.Do(func() {
		close(m.jobs)
		m.wg.Wait()
	})
}

func (m *Mirror) upload(localPath string) {
	key, err := m.objectKey(localPath)
	if err != nil {
		metrics.MirrorUploads.WithLabelValues("skipped").Inc()
		m.log.WithError(err).WithField("file", localPath).Warn("mirror skip")
		return
	}
	const attempts = 4
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err = m.client.PutFile(ctx, key, localPath)
		cancel()
		if err == nil {
			metrics.MirrorUploads.WithLabelValues("ok").Inc()
			m.log.WithField("key", key).Debug("mirror uploaded")
			return
		}
		if i < attempts {
			time.Sleep(time.Duration(i*i) * 200 * time.Millisecond)
		}
	}
	metrics.MirrorUploads.WithLabelValues("failed").Inc()
	m.log.WithError(err).WithField("key", key).Warn("mirror upload failed")
}

func (m *Mirror) objectKey(localPath string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	base, err := filepath.Abs(m.dataDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("r2s3: %s is outside %s", abs, base)
	}
	if m.prefix != "" {
		rel = path.Join(m.prefix, rel)
	}
	return rel, nil
}
