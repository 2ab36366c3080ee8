// Command robosim runs the differential-drive robot simulator.
//
// It supports these commands:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the renderer WebSocket and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "run" – runs a script headless against a scenario and prints the run report
//  4. "validate" – checks scenario and script files
//
// Settings come from robosim.yaml, ROBOSIM_* environment variables (a .env
// file is loaded first) and command flags, in increasing precedence.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/robot-sim/api"
	"github.com/wricardo/robot-sim/game/config"
	"github.com/wricardo/robot-sim/game/records"
	"github.com/wricardo/robot-sim/game/service"
	"github.com/wricardo/robot-sim/game/session"
	"github.com/wricardo/robot-sim/transport/mcp"
	"github.com/wricardo/robot-sim/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Robot Simulator"
)

// main loads .env, builds the command tree and runs it until a signal arrives.
func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", envErr)
	}

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the CLI. Flags left unset fall back to the loaded settings.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "robosim",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "settings file (default: ./robosim.yaml if present)"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging with console output"},
			&cli.StringFlag{Name: "scenario-dir", Usage: "directory containing scenario files"},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP server with REST API, WebSocket and MCP endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP server port"},
					&cli.StringFlag{Name: "db", Usage: "run records database file (empty keeps records in memory)"},
					&cli.DurationFlag{Name: "tick", Usage: "simulation tick interval"},
					&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel"},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token (or NGROK_AUTHTOKEN)"},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, logger, err := setup(cmd)
					if err != nil {
						return err
					}
					return runHTTPServer(ctx, settings, logger)
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server backed by a running or internal HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Usage: "HTTP host to probe for an external API"},
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP port to probe for an external API"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, logger, err := setup(cmd)
					if err != nil {
						return err
					}
					return runStdioMCP(ctx, settings, logger)
				},
			},
			{
				Name:      "run",
				Usage:     "Run a script headless and print the run report",
				ArgsUsage: "SCRIPT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "scenario", Aliases: []string{"s"}, Usage: "scenario id from the scenario directory, or a scenario file"},
					&cli.IntFlag{Name: "max-ticks", Value: defaultMaxTicks, Usage: "stop the program after this many ticks"},
					&cli.BoolFlag{Name: "json", Usage: "print the report as JSON"},
					&cli.BoolFlag{Name: "record", Usage: "append the report to the run records database"},
					&cli.StringFlag{Name: "db", Usage: "run records database file"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, logger, err := setup(cmd)
					if err != nil {
						return err
					}
					return runHeadless(ctx, cmd, settings, logger, os.Stdout)
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate scenario and script files",
				ArgsUsage: "FILE...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runValidate(cmd.Args().Slice(), os.Stdout)
				},
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// setup loads settings, applies flag overrides and builds the root logger
func setup(cmd *cli.Command) (*config.Settings, zerolog.Logger, error) {
	settings, err := config.LoadSettings(cmd.String("config"))
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	applyFlags(cmd, settings)
	if err := settings.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}

	logger, err := newLogger(settings, cmd.Bool("debug"), os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return settings, logger, nil
}

func applyFlags(cmd *cli.Command, s *config.Settings) {
	if cmd.IsSet("log-level") {
		s.LogLevel = cmd.String("log-level")
	}
	if cmd.Bool("debug") {
		s.LogLevel = "debug"
	}
	if cmd.IsSet("scenario-dir") {
		s.ScenarioDir = cmd.String("scenario-dir")
	}
	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("db") {
		s.DatabasePath = cmd.String("db")
	}
	if cmd.IsSet("tick") {
		s.TickInterval = cmd.Duration("tick")
	}
	if cmd.Bool("ngrok") {
		s.Ngrok.Enabled = true
	}
	if cmd.IsSet("ngrok-auth") {
		s.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.Ngrok.Domain = cmd.String("ngrok-domain")
	}
}

// newLogger builds the root logger. Logs always go to w, never stdout, so the
// MCP stdio protocol stays clean.
func newLogger(s *config.Settings, console bool, w io.Writer) (zerolog.Logger, error) {
	level, err := s.Level()
	if err != nil {
		return zerolog.Nop(), err
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// services holds the wired application components
type services struct {
	sim      service.SimService
	sessions *session.Manager
	catalog  *config.Manager
	store    *records.GormStore
	hub      *websocket.Hub
}

func (s *services) Close() {
	s.sessions.Close()
	if s.store != nil {
		s.store.Close()
	}
}

// initializeServices wires the scenario catalog, run records, session
// manager, renderer hub and the simulation service.
func initializeServices(settings *config.Settings, logger zerolog.Logger) (*services, error) {
	catalog, err := config.NewManager(settings.ScenarioDir, config.WithLogger(logger.With().Str("component", "scenarios").Logger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario catalog: %w", err)
	}

	store, err := records.Open(settings.DatabasePath, logger.With().Str("component", "records").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open run records: %w", err)
	}

	hub := websocket.NewHub(websocket.WithLogger(logger.With().Str("component", "websocket").Logger()))

	sessions := session.NewManager(
		session.WithLogger(logger.With().Str("component", "sessions").Logger()),
		session.WithTickInterval(settings.TickInterval),
	)

	sim := service.NewSimService(sessions, catalog,
		service.WithRunStore(store),
		service.WithObserver(hub),
		service.WithLogger(logger.With().Str("component", "service").Logger()),
	)

	return &services{
		sim:      sim,
		sessions: sessions,
		catalog:  catalog,
		store:    store,
		hub:      hub,
	}, nil
}

// mcpHandler serves single JSON-RPC messages over HTTP POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, settings *config.Settings, logger zerolog.Logger) error {
	svc, err := initializeServices(settings, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		svc.hub.Run(ctx)
		return nil
	})
	svc.sessions.StartCleanup(ctx, settings.CleanupInterval, settings.SessionMaxAge)

	apiServer := api.NewServer(svc.sim, svc.hub, api.WithLogger(logger.With().Str("component", "api").Logger()))

	addr := settings.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		logger.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msgf("%s v%s listening", AppName, Version)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if settings.Ngrok.Enabled {
		g.Go(func() error {
			runNgrok(ctx, settings.Ngrok, mainRouter, logger)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
		return nil
	})

	err = g.Wait()
	logger.Info().Msg("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done. Tunnel
// failures are logged and never stop the local server.
func runNgrok(ctx context.Context, settings config.NgrokSettings, handler http.Handler, logger zerolog.Logger) {
	if settings.AuthToken == "" {
		logger.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if settings.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(settings.AuthToken))
	if err != nil {
		logger.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logger.Info().
		Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("mcp", ngrokURL+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error().Err(err).Msg("ngrok server error")
	}
	logger.Info().Msg("ngrok tunnel closed")
}

// apiAvailable reports whether a REST API answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCP runs an MCP stdio server. It reuses an external API at the
// configured address when one answers; otherwise it starts an internal HTTP
// API on a random loopback port and targets that.
func runStdioMCP(ctx context.Context, settings *config.Settings, logger zerolog.Logger) error {
	baseURL := fmt.Sprintf("http://%s", settings.Addr())

	if apiAvailable(ctx, baseURL) {
		logger.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		svc, err := initializeServices(settings, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svc.Close()

		go svc.hub.Run(ctx)
		svc.sessions.StartCleanup(ctx, settings.CleanupInterval, settings.SessionMaxAge)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		httpServer := &http.Server{
			Handler: api.NewServer(svc.sim, svc.hub, api.WithLogger(logger)),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		logger.Info().Str("url", baseURL).Msg("started internal HTTP server for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info().Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
