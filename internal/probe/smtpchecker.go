package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

// ehloName identifies this prober in the EHLO line.
const ehloName = "watchtower"

// SMTPChecker layers a minimal greeting exchange on the raw TCP probe: wait
// for the 220 banner, send EHLO once, and take the first 250 reply as the
// liveness signal. No mail is delivered.
type SMTPChecker struct {
	Timeout time.Duration
}

func (c *SMTPChecker) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	res := domain.ProbeResult{
		Name:      target.Name,
		Component: target.Component,
		Type:      domain.TypeSMTP,
	}
	rec := timing.NewRecorder()

	conn, cancel, err := dialTimed(ctx, target, c.Timeout, rec)
	if err != nil {
		res.StatusCode = domain.StatusError
	} else {
		defer cancel()
		res.StatusCode = exchange(conn, rec)
		_ = conn.Close()
	}

	rec.Record(timing.PhaseClose)
	res.Timings = rec.Snapshot()
	res.Durations = rec.Finalize()
	return res
}

// exchange reads server replies line by line, so replies split across
// packets are reassembled before matching.
func exchange(conn net.Conn, rec *timing.Recorder) int {
	br := bufio.NewReader(conn)
	greeted := false

	for {
		line, err := br.ReadString('\n')
		if !greeted && strings.HasPrefix(line, "220") {
			if _, werr := fmt.Fprintf(conn, "EHLO %s\r\n", ehloName); werr != nil {
				return domain.StatusError
			}
			// multiline 220- banners must not trigger another EHLO
			greeted = true
		} else if strings.HasPrefix(line, "250") {
			// EHLO accepted: the server is alive, nothing more to prove.
			rec.Record(timing.PhaseReadable)
			return domain.StatusClean
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				rec.Record(timing.PhaseEnd)
				return domain.StatusClean
			}
			// read deadline or socket error
			return domain.StatusError
		}
	}
}
