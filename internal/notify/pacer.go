package notify

import (
	"context"

	"golang.org/x/time/rate"
)

// ChannelPacer bounds the outbound send rate per provider channel so a burst
// of dispatches cannot flood email or SMS providers. Burst equals the rate,
// so no capacity is saved up beyond the per-second maximum.
type ChannelPacer struct {
	limiters map[string]*rate.Limiter
}

// NewChannelPacer allows perSecond sends per second on each provider channel.
func NewChannelPacer(perSecond int) *ChannelPacer {
	limit := rate.Limit(perSecond)
	return &ChannelPacer{
		limiters: map[string]*rate.Limiter{
			ChannelEmail: rate.NewLimiter(limit, perSecond),
			ChannelSMS:   rate.NewLimiter(limit, perSecond),
		},
	}
}

// Wait blocks until the channel may send or ctx is done. A nil pacer and
// unknown channels pass immediately; in-app writes are local and unpaced.
func (p *ChannelPacer) Wait(ctx context.Context, channel string) error {
	if p == nil {
		return nil
	}
	limiter, ok := p.limiters[channel]
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
