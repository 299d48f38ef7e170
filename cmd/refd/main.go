// Package main implements the refd CLI for manual operations against the
// refereed HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the refereed HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refd",
	Short: "CLI for refereed HTTP server operations",
	Long: `refd is a command-line interface for interacting with the refereed HTTP server.
It provides commands for running a full paper review and checking server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "refereed server URL")
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(healthCmd)
}

// reviewCmd submits a manuscript for a full multi-reviewer pass
var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Review a manuscript from a task file or stdin",
	Long: `Submit a manuscript review task to the refereed server and print the
aggregated outcome as indented JSON.

The task file carries the manuscript sections plus optional venue framing
and comparison samples, for example:

  {
    "sections": {
      "abstract": "...",
      "introduction": "...",
      "method": "...",
      "results": "..."
    },
    "venue": "NeurIPS 2026"
  }

Examples:
  # Review a task file
  refd review paper.json

  # Review from stdin
  cat paper.json | refd review -

  # Use a different server
  refd review --server http://localhost:8080 paper.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check refereed server health",
	Long: `Check the health status of the refereed HTTP server.

Examples:
  # Check health
  refd health

  # Check health on a different server
  refd health --server http://localhost:8080`,
	RunE: runHealth,
}

// reviewSummary carries the fields worth echoing to stderr after a review.
type reviewSummary struct {
	OverallScore      float64 `json:"overallScore"`
	Recommendation    string  `json:"recommendation"`
	AcceptProbability int     `json:"acceptProbability"`
}

// HealthResponse matches internal/server HealthResponse
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// runReview handles the review command
func runReview(cmd *cobra.Command, args []string) error {
	var task []byte
	var err error

	// Read input from file or stdin
	if len(args) == 0 || args[0] == "-" {
		task, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		task, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	if len(bytes.TrimSpace(task)) == 0 {
		return fmt.Errorf("no review task provided")
	}
	if !json.Valid(task) {
		return fmt.Errorf("review task is not valid JSON")
	}

	url := fmt.Sprintf("%s/analyze/review-paper", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(task))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	// Three reviewer completions plus an optional benchmark sit behind this
	// one request.
	client := &http.Client{
		Timeout: 3 * time.Minute,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	fmt.Println(pretty.String())

	var summary reviewSummary
	if err := json.Unmarshal(body, &summary); err == nil && summary.Recommendation != "" {
		fmt.Fprintf(os.Stderr, "[refd] %.1f/10, %s, accept probability %d%%\n",
			summary.OverallScore, summary.Recommendation, summary.AcceptProbability)
	}

	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}
