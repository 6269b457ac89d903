// Package dispatch fans one notification out to every registered device of a
// user. Failures are per-device and never abort the batch; only a credential
// failure propagates, because no device can be reached without a token.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"stagepush/internal/gateway"
	"stagepush/internal/storage"
	"stagepush/pkg/logx"
)

// ErrRegistryRead wraps a device-registry read failure: the subject is
// skipped for this run, the job continues.
var ErrRegistryRead = errors.New("dispatch: device registry read failed")

// Registry is the slice of the store the dispatcher needs.
type Registry interface {
	ListDeviceTokens(ctx context.Context, userID int64) ([]storage.Device, error)
	InvalidateDevice(ctx context.Context, deviceID int64) error
}

// Sender is the gateway surface; *gateway.Client implements it.
type Sender interface {
	BearerToken(ctx context.Context) (string, error)
	Send(ctx context.Context, bearer string, msg gateway.Message) error
}

// Note is one notification to deliver.
type Note struct {
	Title string
	Body  string
	Link  string
	Data  map[string]string
}

// Result aggregates per-device outcomes for one user.
type Result struct {
	Sent   int
	Failed int
}

// OK reports overall success: something went out, or there was nothing to
// fail (a user with no devices is not an error).
func (r Result) OK() bool { return r.Sent > 0 || r.Failed == 0 }

type Config struct {
	// RatePerSec caps gateway POSTs across all jobs. 0 disables the limiter.
	RatePerSec int
}

type Dispatcher struct {
	registry Registry
	sender   Sender
	limiter  *rate.Limiter
	log      logx.Logger
}

func New(cfg Config, registry Registry, sender Sender, log logx.Logger) *Dispatcher {
	var lim *rate.Limiter
	if cfg.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{registry: registry, sender: sender, limiter: lim, log: log}
}

// Send delivers one note to every device of the user.
//
// Error cases: ErrRegistryRead when devices can't be listed (skip subject),
// gateway.ErrCredential when no bearer token could be obtained (abort the
// job run). Everything else is absorbed into Result.
func (d *Dispatcher) Send(ctx context.Context, userID int64, note Note) (Result, error) {
	devices, err := d.registry.ListDeviceTokens(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRegistryRead, err)
	}
	devices = dedupeByToken(devices)
	if len(devices) == 0 {
		return Result{}, nil
	}

	bearer, err := d.sender.BearerToken(ctx)
	if err != nil {
		return Result{}, err
	}

	data := make(map[string]string, len(note.Data)+1)
	for k, v := range note.Data {
		data[k] = v
	}
	if note.Link != "" {
		data["link"] = note.Link
	}

	var res Result
	for _, dev := range devices {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				// context gone; report what happened so far
				return res, err
			}
		}

		msg := gateway.NewMessage(dev.Token, note.Title, note.Body, data)
		start := time.Now()
		err := d.sender.Send(ctx, bearer, msg)
		if err == nil {
			res.Sent++
			continue
		}
		res.Failed++

		if errors.Is(err, gateway.ErrUnregistered) {
			// Self-heal: null the dead token so the next run skips it.
			if ierr := d.registry.InvalidateDevice(ctx, dev.ID); ierr != nil {
				d.log.Warn("token invalidation failed",
					logx.Int64("device", dev.ID), logx.Err(ierr))
			} else {
				d.log.Info("dead token cleared",
					logx.Int64("user", userID), logx.Int64("device", dev.ID))
			}
			continue
		}
		d.log.Warn("push send failed",
			logx.Int64("user", userID),
			logx.Int64("device", dev.ID),
			logx.Duration("took", time.Since(start)),
			logx.Err(err))
	}
	return res, nil
}

func dedupeByToken(devices []storage.Device) []storage.Device {
	seen := make(map[string]struct{}, len(devices))
	out := devices[:0]
	for _, d := range devices {
		if d.Token == "" {
			continue
		}
		if _, ok := seen[d.Token]; ok {
			continue
		}
		seen[d.Token] = struct{}{}
		out = append(out, d)
	}
	return out
}
