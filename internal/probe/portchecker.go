package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

// PortChecker opens a raw TCP connection and waits for first-byte liveness.
// It verifies connectivity only, not protocol correctness: as soon as the
// peer sends anything the probe closes the connection itself.
type PortChecker struct {
	Timeout time.Duration
}

func (c *PortChecker) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	res := domain.ProbeResult{
		Name:      target.Name,
		Component: target.Component,
		Type:      domain.TypePort,
	}
	rec := timing.NewRecorder()

	conn, cancel, err := dialTimed(ctx, target, c.Timeout, rec)
	if err != nil {
		res.StatusCode = domain.StatusError
	} else {
		defer cancel()
		buf := make([]byte, 1)
		_, err = conn.Read(buf)
		switch {
		case err == nil:
			// First byte is proof of life; close proactively.
			rec.Record(timing.PhaseReadable)
			res.StatusCode = domain.StatusClean
		case errors.Is(err, io.EOF):
			// Peer closed without sending: still a clean close.
			rec.Record(timing.PhaseEnd)
			res.StatusCode = domain.StatusClean
		default:
			// Read deadline (probe timeout) or socket error.
			res.StatusCode = domain.StatusError
		}
		_ = conn.Close()
	}

	rec.Record(timing.PhaseClose)
	res.Timings = rec.Snapshot()
	res.Durations = rec.Finalize()
	return res
}

// dialTimed resolves and connects, recording the start, lookup and connect
// phases. The returned conn carries a deadline bounding the whole probe.
func dialTimed(ctx context.Context, target domain.Target, timeout time.Duration, rec *timing.Recorder) (net.Conn, context.CancelFunc, error) {
	deadline := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)

	rec.Record(timing.PhaseStart)

	// Resolve explicitly so lookup is a real phase event; literal IPs skip it.
	addr := target.Addr()
	if net.ParseIP(target.Hostname) == nil {
		addrs, err := net.DefaultResolver.LookupIPAddr(ctx, target.Hostname)
		if err != nil || len(addrs) == 0 {
			cancel()
			if err == nil {
				err = errors.New("no addresses for " + target.Hostname)
			}
			return nil, nil, err
		}
		rec.Record(timing.PhaseLookup)
		addr = net.JoinHostPort(addrs[0].IP.String(), strconv.Itoa(target.Port))
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	rec.Record(timing.PhaseConnect)
	_ = conn.SetDeadline(deadline)
	return conn, cancel, nil
}
