// Package workflow keeps a served inventory fresh in the background.
package workflow

import (
	"context"
	"time"

	"github.com/de-tools/aws-atlas/pkg/services/explorer"
	"github.com/rs/zerolog"
)

const defaultInterval = 15 * time.Minute

type Runner struct {
	explorer explorer.Explorer
	done     chan struct{}
	progress chan RunnerProgress
	config   RunnerConfig
}

type RunnerConfig struct {
	// Interval between reloads of the source.
	Interval time.Duration
}

type RunnerProgress struct {
	Reloads        int64
	Failures       int64
	LastReloadedAt time.Time
	LastError      error
}

func NewRunner(exp explorer.Explorer, config RunnerConfig) *Runner {
	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}
	return &Runner{
		explorer: exp,
		done:     make(chan struct{}),
		progress: make(chan RunnerProgress, 100),
		config:   config,
	}
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Progress reports every reload attempt. Reports are dropped when nobody reads.
func (r *Runner) Progress() <-chan RunnerProgress {
	return r.progress
}

// Run reloads the explorer every interval until ctx is cancelled. A failed
// reload keeps the previous result served.
func (r *Runner) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().Str("component", "refresh").Logger()
	defer close(r.done)
	defer close(r.progress)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	var state RunnerProgress
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("refresh stopped")
			return
		case <-ticker.C:
			err := r.explorer.Reload(logger.WithContext(ctx))
			if err != nil {
				state.Failures++
				state.LastError = err
				logger.Error().Err(err).Msg("failed to reload inventory")
			} else {
				state.Reloads++
				state.LastError = nil
				state.LastReloadedAt = time.Now()
				logger.Debug().Int64("reloads", state.Reloads).Msg("inventory reloaded")
			}

			select {
			case r.progress <- state:
			default:
			}
		}
	}
}
