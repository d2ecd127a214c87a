// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))
	trigger := strings.TrimSpace(os.Getenv("TRIGGER_API_KEYS"))
	spHost := strings.TrimSpace(os.Getenv("STATUS_API_HOST"))
	spKey := strings.TrimSpace(os.Getenv("STATUS_API_KEY"))
	cw := strings.TrimSpace(os.Getenv("CLOUDWATCH_ENABLED"))
	region := strings.TrimSpace(os.Getenv("AWS_REGION"))

	if trigger == "" {
		warn("TRIGGER_API_KEYS is empty — the run endpoint accepts unauthenticated requests.")
	} else {
		if strings.Contains(trigger, " ") {
			warn("TRIGGER_API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
		ok("TRIGGER_API_KEYS present")
	}

	if spHost == "" {
		warn("STATUS_API_HOST empty — incident reconciliation is disabled.")
	} else {
		if spKey == "" {
			fail("STATUS_API_HOST set but STATUS_API_KEY empty (status API calls will be rejected).")
		}
		ok("STATUS_API_HOST=" + spHost)
	}

	if enabled, _ := strconv.ParseBool(cw); enabled {
		if region == "" && strings.TrimSpace(os.Getenv("AWS_DEFAULT_REGION")) == "" {
			fail("CLOUDWATCH_ENABLED set but no AWS_REGION (PutMetricData will fail).")
		}
		ok("CloudWatch sink enabled, region=" + region)
	} else {
		warn("CLOUDWATCH_ENABLED off — metrics go to the local log sink only.")
	}

	if apiAddr == "" {
		warn("API_ADDR is empty; the default bind address will be used.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	ok("preflight passed")
}
