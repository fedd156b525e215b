package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nstehr/trackside/trackside-core/agent"
	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/events"
	"github.com/nstehr/trackside/trackside-core/ipc"
	"github.com/nstehr/trackside/trackside-core/metrics"
	"github.com/nstehr/trackside/trackside-core/races"
	"github.com/nstehr/trackside/trackside-core/store"
)

var (
	serveSocket        string
	serveMetricsAddr   string
	serveScoring       string
	serveStrategy      string
	serveRaces         string
	serveEvents        string
	serveCache         string
	serveWatchInterval time.Duration
	serveTickInterval  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Listen for a screen adapter and run careers",
	Long: `Listen on a unix domain socket. Each adapter that connects and says hello
gets its own career loop; the loop reads the screen and sends actions back
over the same connection.

Example usage:
  trackside serve
  trackside serve --metrics-addr :9090 --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveSocket, "socket", "/tmp/trackside.sock", "Unix socket to listen on")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Address for the Prometheus endpoint (disabled when empty)")
	serveCmd.Flags().StringVar(&serveScoring, "scoring", "assets/scoring.yaml", "Scoring weights document")
	serveCmd.Flags().StringVar(&serveStrategy, "strategy", "assets/strategy.yaml", "Strategy and filters document")
	serveCmd.Flags().StringVar(&serveRaces, "races", "assets/race_list.json", "Race catalog")
	serveCmd.Flags().StringVar(&serveEvents, "events", "assets/event_map", "Event map directory")
	serveCmd.Flags().StringVar(&serveCache, "cache", "trackside.db", "Event database cache file")
	serveCmd.Flags().DurationVar(&serveWatchInterval, "watch-interval", 2*time.Second, "How often config files are checked for changes (0 disables)")
	serveCmd.Flags().DurationVar(&serveTickInterval, "tick-interval", 500*time.Millisecond, "Minimum gap between ticks")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println(banner)
	slog.Info("starting trackside", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.NewStore(serveScoring, serveStrategy)
	if serveWatchInterval > 0 {
		go config.WatchStore(ctx, cfg, serveWatchInterval)
	}

	catalog, err := races.Load(serveRaces)
	if err != nil {
		slog.Warn("race catalog unavailable, racing disabled", "path", serveRaces, "error", err)
		catalog = races.New(nil)
	}
	slog.Info("race catalog loaded", "races", catalog.Len())

	opts := agent.DefaultOptions()
	opts.TickInterval = serveTickInterval
	opts.Events = eventSource(serveEvents, serveCache)
	if c, ok := opts.Events.Cache.(*store.BoltCache); ok {
		defer c.Close()
	}

	reg := metrics.New()
	opts.Metrics = reg
	if serveMetricsAddr != "" {
		srv := &http.Server{Addr: serveMetricsAddr, Handler: metricsMux(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("serving metrics", "addr", serveMetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(serveSocket); err != nil {
		return fmt.Errorf("clean up socket %s: %w", serveSocket, err)
	}
	listener, err := net.Listen("unix", serveSocket)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", serveSocket, err)
	}
	defer os.Remove(serveSocket)
	slog.Info("listening on domain socket", "path", serveSocket)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("shutting down")
				return nil
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		slog.Info("new connection accepted")
		go handleConn(ctx, conn, cfg, catalog, opts)
	}
}

func handleConn(ctx context.Context, conn net.Conn, cfg *config.Store, catalog *races.Catalog, opts agent.Options) {
	c := ipc.NewConnection(conn, nil)
	s := agent.NewSession(ctx, c, cfg, catalog, opts)
	s.Register()

	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.Done():
		}
	}()
	c.ReadLoop()
	s.Wait()
	slog.Info("connection closed", "client", s.Client)
}

// eventSource loads the event maps and opens the cache. Either may be
// missing; the engine then answers events with the unknown-event policy
// or rebuilds the database every run.
func eventSource(dir, cachePath string) agent.EventSource {
	var src agent.EventSource
	sources, err := events.LoadSources(dir)
	if err != nil {
		slog.Warn("some event maps were skipped", "dir", dir, "error", err)
	}
	src.Sources = sources

	if cachePath == "" {
		return src
	}
	cache, err := store.NewBoltCache(cachePath)
	if err != nil {
		slog.Warn("event cache unavailable, rebuilding every run", "path", cachePath, "error", err)
		return src
	}
	src.Cache = cache
	return src
}

func metricsMux(reg *metrics.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	return mux
}
