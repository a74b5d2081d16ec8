package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/dm/meshtop-go/internal/client"
	"github.com/dm/meshtop-go/internal/graph"
	"github.com/dm/meshtop-go/internal/tui"
)

// preflightTimeout bounds the status probe before the TUI starts, so a
// dead endpoint fails fast with a readable error instead of a blank
// alternate screen.
const preflightTimeout = 5 * time.Second

// normalizeConsoleURL canonicalizes the console address. Accepted
// shapes: host, host:port, http(s)://host[:port][/path]. A bare host
// defaults to http. Credentials embedded in the URL are rejected; the
// console API authenticates with a bearer token (-token).
func normalizeConsoleURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("console URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q (must be http or https)", u.Scheme)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid URL %q: host is required", raw)
	}

	if u.User != nil {
		return "", fmt.Errorf("credentials in the URL are not supported, use -token")
	}

	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("invalid port %q", p)
		}
	}

	// Query and fragment have no meaning for a base URL; the path may
	// matter (consoles are often served under a prefix).
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

// parseGraphType validates the -graph-type flag value.
func parseGraphType(s string) (graph.GraphType, error) {
	switch gt := graph.GraphType(s); gt {
	case graph.GraphTypeWorkload, graph.GraphTypeApp, graph.GraphTypeVersionedApp, graph.GraphTypeService:
		return gt, nil
	}
	return "", fmt.Errorf("unknown graph type %q (workload, app, versionedApp, service)", s)
}

// splitNamespaces splits the -namespaces flag into clean names.
func splitNamespaces(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// resolveToken returns the bearer token to send: the -token flag wins,
// then the MESHTOP_TOKEN environment variable.
func resolveToken(flagToken string) string {
	if flagToken != "" {
		return flagToken
	}
	return os.Getenv("MESHTOP_TOKEN")
}

// setupLogging configures the global logger. The terminal belongs to
// the TUI, so logs are discarded unless -log-file is given. Returns the
// opened file, or nil when discarding.
func setupLogging(path, level string) (io.Closer, error) {
	log.SetOutput(io.Discard)

	if level != "" {
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		log.SetLevel(lvl)
	}

	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}

func main() {
	var (
		refresh    = flag.Duration("refresh", tui.DefaultRefreshInterval, "auto-refresh interval (e.g. 10s, 30s)")
		window     = flag.Duration("duration", graph.DefaultDuration, "traffic reporting window (e.g. 1m, 5m)")
		namespaces = flag.String("namespaces", "", "comma-separated namespaces to show (default: all discovered)")
		graphType  = flag.String("graph-type", string(graph.GraphTypeVersionedApp), "aggregation granularity: workload, app, versionedApp, service")
		token      = flag.String("token", "", "bearer token for the console API (or MESHTOP_TOKEN)")
		insecure   = flag.Bool("insecure", false, "skip TLS certificate verification")
		logFile    = flag.String("log-file", "", "append logs to this file (default: discard)")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: meshtop [flags] <console-url>\n\n")
		fmt.Fprintf(os.Stderr, "examples:\n")
		fmt.Fprintf(os.Stderr, "  meshtop localhost:20001\n")
		fmt.Fprintf(os.Stderr, "  meshtop -namespaces bookinfo,backends http://console.example.com/mesh\n")
		fmt.Fprintf(os.Stderr, "  meshtop -refresh 30s -duration 5m -insecure https://console.prod:20001\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *refresh <= 0 {
		fmt.Fprintln(os.Stderr, "error: -refresh must be positive")
		os.Exit(1)
	}
	if *window <= 0 {
		fmt.Fprintln(os.Stderr, "error: -duration must be positive")
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "error: console URL is required")
		flag.Usage()
		os.Exit(1)
	}
	// Reject extra positional arguments. flag.Parse stops at the first
	// non-flag argument, so trailing -flags would also be silently ignored.
	if len(args) > 1 {
		extra := args[1]
		if len(extra) > 1 && extra[0] == '-' {
			fmt.Fprintf(os.Stderr, "error: flag %q must be placed before the URL\n", extra)
		} else {
			fmt.Fprintf(os.Stderr, "error: unexpected argument %q\n", extra)
		}
		flag.Usage()
		os.Exit(1)
	}

	baseURL, err := normalizeConsoleURL(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	gt, err := parseGraphType(*graphType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := setupLogging(*logFile, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	c, err := client.NewDefaultClient(client.ClientConfig{
		BaseURL:            baseURL,
		Token:              resolveToken(*token),
		InsecureSkipVerify: *insecure,
		RequestTimeout:     15 * time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), preflightTimeout)
	_, err = c.GetStatus(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to reach mesh console at %s: %v\n", baseURL, err)
		os.Exit(1)
	}

	app := tui.NewApp(c, tui.Config{
		RefreshEvery: *refresh,
		Window:       *window,
		Namespaces:   splitNamespaces(*namespaces),
		GraphType:    gt,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
