package health

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
)

// DiskCheckerConfig configures DiskChecker.
type DiskCheckerConfig struct {
	// Path is any path on the watched filesystem, usually the cache
	// directory.
	Path string

	// MinFree reports unhealthy below this many free bytes.
	// Default: 64 MiB
	MinFree uint64

	// WarningPercent reports degraded at or above this usage.
	// Default: 90
	WarningPercent float64
}

// DiskChecker watches free space on the filesystem holding a file cache.
// Cache writes are best effort, so a full disk otherwise only shows up as
// a falling hit rate.
type DiskChecker struct {
	config DiskCheckerConfig
	usage  func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewDiskChecker creates a checker for config.Path.
func NewDiskChecker(config DiskCheckerConfig) *DiskChecker {
	if config.MinFree == 0 {
		config.MinFree = 64 << 20
	}
	if config.WarningPercent <= 0 || config.WarningPercent > 100 {
		config.WarningPercent = 90
	}
	return &DiskChecker{config: config, usage: disk.UsageWithContext}
}

func (d *DiskChecker) Name() string {
	return "disk"
}

func (d *DiskChecker) Check(ctx context.Context) Result {
	st, err := d.usage(ctx, d.config.Path)
	if err != nil {
		return Unhealthy("disk usage unavailable", fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}

	details := map[string]any{
		"path":          d.config.Path,
		"free":          humanize.IBytes(st.Free),
		"total":         humanize.IBytes(st.Total),
		"usage_percent": st.UsedPercent,
	}
	switch {
	case st.Free < d.config.MinFree:
		return Unhealthy(fmt.Sprintf("disk almost full: %s free", humanize.IBytes(st.Free)), ErrCheckFailed).WithDetails(details)
	case st.UsedPercent >= d.config.WarningPercent:
		return Degraded(fmt.Sprintf("disk usage high: %.1f%%", st.UsedPercent)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("disk usage normal: %.1f%%", st.UsedPercent)).WithDetails(details)
}

// Ensure DiskChecker implements Checker
var _ Checker = (*DiskChecker)(nil)
