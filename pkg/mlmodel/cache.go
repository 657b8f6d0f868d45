package mlmodel

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/logging"
)

// Cache loads the model artifact once and hands the same instance to every
// caller until the path changes or Invalidate is called. Failed loads are
// retried on the next Get.
type Cache struct {
	mu       sync.Mutex
	path     string
	artifact *Artifact
	load     func(path string) (*Artifact, error)
	logger   *zap.Logger
}

// NewCache creates a cache for the artifact at path
func NewCache(path string, logger *zap.Logger) *Cache {
	logger = logging.OrNop(logger)
	return &Cache{path: path, load: LoadArtifact, logger: logger}
}

// Get returns the cached artifact, loading it on first use
func (c *Cache) Get() (*Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.artifact != nil {
		return c.artifact, nil
	}

	artifact, err := c.load(c.path)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Loaded model",
		zap.String("path", c.path),
		zap.String("model_id", artifact.ID),
		zap.Strings("classes", artifact.Pipeline.Classes))
	c.artifact = artifact
	return artifact, nil
}

// Path returns the artifact path
func (c *Cache) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// SetPath points the cache at a different artifact, dropping the loaded one
// when the path changes
func (c *Cache) SetPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if path != c.path {
		c.path = path
		c.artifact = nil
	}
}

// Invalidate forces the next Get to reload from disk
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifact = nil
}
