package main

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/dm/spm-go/internal/model"
)

// parseSplunkURI parses a management URI and returns the base URL without
// credentials, plus any username and password it carried. The scheme
// defaults to https and the port to 8089, so "idx1" and
// "admin:changeme@idx1" are accepted.
func parseSplunkURI(raw string) (baseURL, username, password string, err error) {
	if strings.TrimSpace(raw) == "" {
		return "", "", "", fmt.Errorf("splunk URI is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid URI %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", "", fmt.Errorf("unsupported scheme %q (must be http or https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", "", "", fmt.Errorf("invalid URI %q: host is required", raw)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(model.DefaultMgmtPort))
	}

	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
		u.User = nil
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), username, password, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprint(os.Stderr, formatError(err))
		os.Exit(1)
	}
}
