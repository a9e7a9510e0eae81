package staging

import (
	"fmt"

	"custody-go/internal/config"
	"custody-go/internal/custody"
)

// DefaultMaxSize is the default limit on extracted content per namespace (256MB).
const DefaultMaxSize int64 = 256 * 1024 * 1024

// NewStagingAreaFromConfig creates a StagingArea implementation based on the config type.
func NewStagingAreaFromConfig(cfg config.StagingConfig, fsmgr custody.FilesystemManager) (custody.StagingArea, error) {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	switch cfg.Type {
	case "temp":
		area, err := NewTempStagingArea(fsmgr, maxSize)
		if err != nil {
			return nil, err
		}
		return area, nil
	case "filesystem":
		if cfg.StagingDir == "" {
			return nil, fmt.Errorf("filesystem staging area requires staging_dir to be set")
		}
		area, err := NewFileSystemStagingArea(fsmgr, cfg.StagingDir, maxSize)
		if err != nil {
			return nil, err
		}
		return area, nil
	default:
		return nil, fmt.Errorf("unknown staging area type: %s", cfg.Type)
	}
}
