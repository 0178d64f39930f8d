package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reportreel/reportreel/internal/api"
	"github.com/reportreel/reportreel/internal/config"
	"github.com/reportreel/reportreel/internal/pipeline"
)

// --- process ---

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Upload a financial report and start the pipeline",
	Long: `Upload a financial report and start the pipeline.

Examples:
  reportreel process ./q3-report.pdf
  reportreel process ./summary.txt --title "Q3 2026 interim report"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		title, _ := cmd.Flags().GetString("title")

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		if title == "" {
			title = filepath.Base(path)
		}

		contentType := "text/plain"
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			contentType = "application/pdf"
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/documents", api.UploadRequest{
			Title:       title,
			ContentType: contentType,
			Content:     base64.StdEncoding.EncodeToString(data),
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Queued document %s", result["document_id"])
		printStatus("Run", "%s", result["run_id"])
		return nil
	},
}

func init() {
	processCmd.Flags().String("title", "", "title for the document (default: file name)")
}

// --- runs ---

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/runs?limit=%d", limit))
		if err != nil {
			return err
		}

		var runs []struct {
			ID            string `json:"id"`
			DocumentID    string `json:"document_id"`
			OverallStatus string `json:"overall_status"`
			StartedAt     string `json:"started_at"`
		}
		if err := decodeJSON(resp, &runs); err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %-10s  doc %s  %s\n",
				colorize(colorBold, r.ID[:8]),
				r.OverallStatus,
				r.DocumentID[:8],
				r.StartedAt,
			)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
}

// --- run ---

var runCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show a run's stages, progress, and notifications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/runs/"+args[0])
		if err != nil {
			return err
		}

		var view pipeline.StatusView
		if err := decodeJSON(resp, &view); err != nil {
			return err
		}

		printStatus("Run", "%s", view.RunID)
		printStatus("Status", "%s", view.OverallStatus)
		printStatus("Progress", "%d%%", view.OverallProgress)
		if view.EstimatedTimeRemainingMs > 0 {
			eta := time.Duration(view.EstimatedTimeRemainingMs) * time.Millisecond
			printStatus("ETA", "%s", eta.Round(time.Second))
		}

		fmt.Fprintln(os.Stderr)
		for _, stage := range view.Stages {
			marker := "·"
			switch stage.Status {
			case pipeline.StageCompleted:
				marker = colorize(colorGreen, "✓")
			case pipeline.StageFailed:
				marker = colorize(colorRed, "✗")
			case pipeline.StageRunning:
				marker = colorize(colorYellow, "→")
			}
			fmt.Fprintf(os.Stderr, "  %s %-10s %3d%%\n", marker, stage.Name, stage.Progress)
		}

		if len(view.Notifications) > 0 {
			fmt.Fprintln(os.Stderr)
			for _, n := range view.Notifications {
				fmt.Fprintf(os.Stderr, "  %s\n", n)
			}
		}
		return nil
	},
}

// --- facts / scripts ---

var factsCmd = &cobra.Command{
	Use:   "facts <run-id>",
	Short: "Show the extracted financial facts for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRunPayload(cmd, "/runs/"+args[0]+"/facts")
	},
}

var scriptsCmd = &cobra.Command{
	Use:   "scripts <run-id>",
	Short: "Show the generated script variants for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRunPayload(cmd, "/runs/"+args[0]+"/scripts")
	},
}

func printRunPayload(cmd *cobra.Command, path string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.get(cmd.Context(), path)
	if err != nil {
		return err
	}

	var payload any
	if err := decodeJSON(resp, &payload); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// --- pause / resume / retry / cancel ---

var pauseCmd = runControlCommand("pause", "Pause a run at the next stage boundary")
var resumeCmd = runControlCommand("resume", "Resume a paused run")
var retryCmd = runControlCommand("retry", "Retry a failed run from its failed stage")
var cancelCmd = runControlCommand("cancel", "Cancel a run")

func runControlCommand(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <run-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			resp, err := client.post(cmd.Context(), "/runs/"+args[0]+"/"+action, nil)
			if err != nil {
				return err
			}

			var result map[string]string
			if err := decodeJSON(resp, &result); err != nil {
				return err
			}

			printSuccess("Run %s: %s", args[0], result["status"])
			return nil
		},
	}
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
