package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stacksim/stacksim/sim"
	"github.com/stacksim/stacksim/sim/driver"
	"github.com/stacksim/stacksim/sim/scenario"
	"github.com/stacksim/stacksim/sim/telemetry"
)

var (
	listenAddr   string        // HTTP listen address
	tickInterval time.Duration // Wall-clock tick interval
	eventLimit   int           // Events retained for GET /events
)

// server is the HTTP surface of one interactive session.
type server struct {
	session string
	driver  *driver.Driver
	events  *EventLog
	labels  scenario.Labels // guarded by the driver lock
	log     *logrus.Entry
	onReset []func()
}

func newServer(session string, s *sim.Simulator, interval time.Duration, events *EventLog) *server {
	return &server{
		session: session,
		driver:  driver.New(s, interval),
		events:  events,
		labels:  scenario.NewLabels(),
		log:     logrus.WithField("session", session),
	}
}

func (srv *server) routes(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", srv.handleState)
	mux.HandleFunc("GET /events", srv.handleEvents)
	mux.HandleFunc("POST /commands", srv.handleCommand)
	mux.HandleFunc("POST /reset", srv.handleReset)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func (srv *server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srv.driver.Snapshot())
}

func (srv *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srv.events.Events())
}

func (srv *server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd scenario.Command
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var res scenario.Result
	err := srv.driver.Do(func(s *sim.Simulator) error {
		var err error
		res, err = scenario.Apply(s, srv.labels, cmd)
		return err
	})
	if err != nil {
		srv.log.Infof("command %s rejected: %v", cmd, err)
		writeError(w, commandStatus(err), err)
		return
	}
	srv.log.Debugf("command %s applied", cmd)
	writeJSON(w, http.StatusOK, res)
}

func (srv *server) handleReset(w http.ResponseWriter, r *http.Request) {
	_ = srv.driver.Do(func(s *sim.Simulator) error {
		s.Reset()
		srv.labels = scenario.NewLabels()
		return nil
	})
	srv.events.Reset()
	for _, fn := range srv.onReset {
		fn()
	}
	srv.log.Info("simulation reset")
	writeJSON(w, http.StatusOK, srv.driver.Snapshot())
}

// commandStatus maps a command error to an HTTP status.
func commandStatus(err error) int {
	switch {
	case errors.Is(err, scenario.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, sim.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusConflict
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Debugf("writing response: %v", err)
	}
}

// serveCmd runs the simulation in real time behind an HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation in real time behind an HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := resolveConfig(cmd)
		session := uuid.NewString()

		s := sim.NewSimulator(cfg)
		reg := prometheus.NewRegistry()
		collector := telemetry.NewCollector(reg, session)
		events := NewEventLog(eventLimit)
		s.Subscribe(collector.Observe)
		s.Subscribe(events.Record)

		srv := newServer(session, s, tickInterval, events)
		srv.driver.OnTick(collector.Update)
		srv.onReset = append(srv.onReset, collector.ResetNodes)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		httpServer := &http.Server{Addr: listenAddr, Handler: srv.routes(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			srv.log.Infof("listening on %s (tick every %v)", listenAddr, tickInterval)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.log.Fatalf("HTTP server failed: %v", err)
			}
		}()

		if err := srv.driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			srv.log.Errorf("driver stopped: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			srv.log.Warnf("HTTP shutdown: %v", err)
		}
		srv.log.Info("server stopped")
	},
}

func init() {
	addConfigFlags(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().DurationVar(&tickInterval, "interval", time.Second/60, "Wall-clock tick interval")
	serveCmd.Flags().IntVar(&eventLimit, "events", 256, "Number of recent events kept for GET /events")

	rootCmd.AddCommand(serveCmd)
}
