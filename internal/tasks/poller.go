package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultPollInterval is how often the player state is read.
const DefaultPollInterval = 5 * time.Second

// NowPlaying is one poll result. Track is nil when nothing is playing.
type NowPlaying struct {
	Track    *services.CurrentlyPlaying
	PolledAt time.Time
}

// NowPlayingPoller reads the player state at a fixed pace until its context is cancelled.
type NowPlayingPoller struct {
	music   services.MusicService
	limiter *rate.Limiter
	logger  *log.Logger
	now     func() time.Time
}

// NewNowPlayingPoller creates a poller that reads at most once per interval. A non-positive interval selects [DefaultPollInterval].
func NewNowPlayingPoller(music services.MusicService, interval time.Duration, logger *log.Logger) *NowPlayingPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &NowPlayingPoller{
		music:   music,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  shared.WithLogger(logger, "component", "poller"),
		now:     time.Now,
	}
}

// Poll reads the player state once without waiting on the limiter.
func (p *NowPlayingPoller) Poll(ctx context.Context) (NowPlaying, error) {
	playing, err := p.music.CurrentlyPlaying(ctx)
	if err != nil {
		return NowPlaying{}, err
	}
	return NowPlaying{Track: playing, PolledAt: p.now()}, nil
}

// Run polls until ctx is cancelled, delivering each result on updates without blocking.
//
// Failures are logged and polling continues, except for authentication failures, which end the loop
// and are returned since there is no credential left to poll with. Cancellation returns ctx.Err().
func (p *NowPlayingPoller) Run(ctx context.Context, updates chan<- NowPlaying) error {
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			// The next tick falls past the deadline.
			<-ctx.Done()
			return ctx.Err()
		}

		result, err := p.Poll(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case shared.IsAuthError(err):
			// an auth failure ends polling so the stale token is never sent again
			p.logger.Warn("stopping now-playing poll", "error", err)
			return err
		case err != nil:
			p.logger.Error("error polling for now playing status", "error", err)
			continue
		}

		select {
		case updates <- result:
		default:
			p.logger.Debug("dropping now-playing update, receiver busy")
		}
	}
}
