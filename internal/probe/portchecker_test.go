package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

// listen starts a TCP listener on a loopback port and returns it with a
// target pointing at it.
func listen(t *testing.T, name string) (net.Listener, domain.Target) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	return ln, domain.Target{Name: name, Hostname: "127.0.0.1", Port: port, Type: domain.TypePort}
}

func TestPortChecker_RefusedPort(t *testing.T) {
	ln, target := listen(t, "closed")
	ln.Close() // free the port so the dial is refused

	chk := &PortChecker{Timeout: time.Second}
	res := chk.Check(context.Background(), target)

	if res.StatusCode != domain.StatusError {
		t.Fatalf("want %d on refused port, got %d", domain.StatusError, res.StatusCode)
	}
	if res.Durations["connect"] != timing.Missing {
		t.Fatalf("connect never completed; want %d, got %d", timing.Missing, res.Durations["connect"])
	}
	if res.Durations["total"] < 0 {
		t.Fatalf("failed probes still finalize; want total >= 0, got %d", res.Durations["total"])
	}
}

func TestPortChecker_FirstByteThenClose(t *testing.T) {
	ln, target := listen(t, "banner")
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Write([]byte("hello"))
		// stay silent; the probe must close on its own after the first byte
		time.Sleep(time.Second)
		conn.Close()
	}()

	chk := &PortChecker{Timeout: 2 * time.Second}
	res := chk.Check(context.Background(), target)

	if res.StatusCode != domain.StatusClean {
		t.Fatalf("want %d after first byte, got %d", domain.StatusClean, res.StatusCode)
	}
	if _, ok := res.Timings[timing.PhaseReadable]; !ok {
		t.Fatalf("want readable phase recorded, got %v", res.Timings)
	}
	if res.Durations["readable"] < 0 {
		t.Fatalf("want readable >= 0, got %d", res.Durations["readable"])
	}
}

func TestPortChecker_PeerClosesWithoutData(t *testing.T) {
	ln, target := listen(t, "mute")
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	chk := &PortChecker{Timeout: 2 * time.Second}
	res := chk.Check(context.Background(), target)

	if res.StatusCode != domain.StatusClean {
		t.Fatalf("want %d on clean close, got %d", domain.StatusClean, res.StatusCode)
	}
	if _, ok := res.Timings[timing.PhaseEnd]; !ok {
		t.Fatalf("want end phase on peer close, got %v", res.Timings)
	}
}

func TestPortChecker_SilentPeerTimesOut(t *testing.T) {
	ln, target := listen(t, "silent")
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// never write, never close within the probe budget
		time.Sleep(time.Second)
		conn.Close()
	}()

	chk := &PortChecker{Timeout: 100 * time.Millisecond}
	res := chk.Check(context.Background(), target)

	if res.StatusCode != domain.StatusError {
		t.Fatalf("want %d on timeout, got %d", domain.StatusError, res.StatusCode)
	}
	if res.Durations["connect"] < 0 {
		t.Fatalf("connect completed before the timeout; want >= 0, got %d", res.Durations["connect"])
	}
	if res.Durations["readable"] != timing.Missing {
		t.Fatalf("want readable %d after timeout, got %d", timing.Missing, res.Durations["readable"])
	}
}
