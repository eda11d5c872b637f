package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stacksim/stacksim/sim"
	"github.com/stacksim/stacksim/sim/scenario"
)

// StateClient talks to a running `stacksim serve` instance.
type StateClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStateClient creates a client for the server at baseURL.
func NewStateClient(baseURL string) *StateClient {
	return &StateClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// State fetches the current snapshot.
func (c *StateClient) State(ctx context.Context) (*sim.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/state", nil)
	if err != nil {
		return nil, fmt.Errorf("request creation error: %w", err)
	}
	var snap sim.Snapshot
	if err := c.do(req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Send posts one command and returns what it did.
func (c *StateClient) Send(ctx context.Context, cmd scenario.Command) (*scenario.Result, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/commands", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request creation error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	var res scenario.Result
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *StateClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP error: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, eb.Error)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("JSON parse error: %w", err)
	}
	return nil
}

// hudLine renders the economy the way the in-game HUD shows it.
func hudLine(e sim.EconomySnapshot) string {
	status := "running"
	if !e.Running {
		status = "SYSTEM FAILURE"
	}
	return fmt.Sprintf("t=%7.1fs x%d  $%d  rep %.0f  score %.1f (web %d, api %d, fraud %d)  rps %.2f  upkeep %.2f/s  %s",
		e.Clock, e.TimeScale, e.DisplayMoney(), e.Reputation, e.Score.Total,
		e.Score.Web, e.Score.API, e.Score.FraudBlocked, e.CurrentRPS, e.UpkeepPerSecond, status)
}

var (
	serverURL    string        // Base URL of a running server
	pollInterval time.Duration // Poll interval for watch
)

// watchCmd polls a running server and prints the HUD line
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll a running server and print the economy",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewStateClient(serverURL)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			snap, err := client.State(cmd.Context())
			if err != nil {
				logrus.Fatalf("Failed to fetch state: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hudLine(snap.Economy))
			if !snap.Economy.Running {
				return
			}
			select {
			case <-cmd.Context().Done():
				return
			case <-ticker.C:
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&serverURL, "url", "http://localhost:8080", "Base URL of a running stacksim serve")
	watchCmd.Flags().DurationVar(&pollInterval, "every", time.Second, "Poll interval")

	rootCmd.AddCommand(watchCmd)
}
