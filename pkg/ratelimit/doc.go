// Package ratelimit paces outbound calls with a uniformly random delay.
//
// Clients pace with their request bounds before every network call and with
// the wider page bounds between successive pages of a search. There is no
// token bucket or backoff: the random pause is the only throttle.
//
//	pacer := ratelimit.NewJitter(log)
//	if err := pacer.Pace(ctx, cfg.Indeed.Pacing.Request); err != nil {
//	    return err
//	}
//
// Nop and Recorder satisfy Pacer without sleeping and are meant for tests.
package ratelimit
