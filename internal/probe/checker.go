package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
)

// Checker drives one network probe against one target.
//
// Implementations never return an error: network failure (DNS, refused
// connection, handshake, timeout) is encoded in the result's StatusCode so
// that one bad target cannot abort a batch.
type Checker interface {
	Check(ctx context.Context, target domain.Target) domain.ProbeResult
}

// New returns the Checker for the target's type.
func New(t domain.Target, timeout time.Duration) (Checker, error) {
	switch t.Kind() {
	case domain.TypeHTTP:
		return &HTTPChecker{Timeout: timeout}, nil
	case domain.TypePort:
		return &PortChecker{Timeout: timeout}, nil
	case domain.TypeSMTP:
		return &SMTPChecker{Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("unknown target type %q", t.Type)
	}
}
