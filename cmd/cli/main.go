package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "convertly",
		Short: "Convertly CLI - File conversion via external engines",
		Long:  `A command-line interface for converting files with ffmpeg, pandoc, imagemagick and libreoffice.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(retryCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var formatsCmd = &cobra.Command{
	Use:   "formats [extension]",
	Short: "List reachable output formats for an extension",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		resp, err := http.Get(serverURL + "/api/v1/formats/" + args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result struct {
			Extension string `json:"extension"`
			Formats   []struct {
				Format      string `json:"format"`
				Tool        string `json:"tool"`
				DisplayName string `json:"display_name"`
			} `json:"formats"`
		}
		json.Unmarshal(body, &result)

		if len(result.Formats) == 0 {
			fmt.Printf("No output formats available for .%s\n", result.Extension)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FORMAT\tTOOL\tNAME")
		for _, f := range result.Formats {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Format, f.Tool, f.DisplayName)
		}
		w.Flush()
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show engine availability and update info",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		refresh, _ := cmd.Flags().GetBool("refresh")
		updates, _ := cmd.Flags().GetBool("updates")

		var resp *http.Response
		var err error
		switch {
		case updates && refresh:
			resp, err = http.Post(serverURL+"/api/v1/tools/updates/refresh", "application/json", nil)
		case updates:
			resp, err = http.Get(serverURL + "/api/v1/tools/updates")
		case refresh:
			resp, err = http.Post(serverURL+"/api/v1/tools/refresh", "application/json", nil)
		default:
			resp, err = http.Get(serverURL + "/api/v1/tools")
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		if updates {
			var info map[string]struct {
				Installed       bool   `json:"installed"`
				CurrentVersion  string `json:"current_version"`
				LatestVersion   string `json:"latest_version"`
				UpdateAvailable bool   `json:"update_available"`
			}
			json.Unmarshal(body, &info)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tINSTALLED\tCURRENT\tLATEST\tUPDATE")
			for name, u := range info {
				fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%v\n",
					name, u.Installed, orDash(u.CurrentVersion), orDash(u.LatestVersion), u.UpdateAvailable)
			}
			w.Flush()
			return
		}

		var status map[string]struct {
			Available bool   `json:"available"`
			Path      string `json:"path"`
		}
		json.Unmarshal(body, &status)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TOOL\tAVAILABLE\tPATH")
		for name, s := range status {
			fmt.Fprintf(w, "%s\t%v\t%s\n", name, s.Available, orDash(s.Path))
		}
		w.Flush()
	},
}

var installCmd = &cobra.Command{
	Use:   "install [tool]",
	Short: "Download and install an engine",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		name := args[0]

		resp, err := http.Post(serverURL+"/api/v1/tools/"+name+"/download", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusAccepted {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		fmt.Printf("Download started for %s\n", name)
		fmt.Println("Run 'convertly progress' to follow it")
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show engine download progress",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/tools/progress")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result struct {
			Downloading  []string `json:"downloading"`
			LastProgress *struct {
				Tool    string  `json:"tool"`
				Status  string  `json:"status"`
				Message string  `json:"message"`
				Percent float64 `json:"percent"`
			} `json:"last_progress"`
		}
		json.Unmarshal(body, &result)

		if len(result.Downloading) == 0 && result.LastProgress == nil {
			fmt.Println("No downloads in progress")
			return
		}

		for _, name := range result.Downloading {
			fmt.Printf("Downloading: %s\n", name)
		}
		if p := result.LastProgress; p != nil {
			fmt.Printf("Last event: [%s] %s %s (%.0f%%)\n", p.Tool, p.Status, p.Message, p.Percent)
		}
	},
}

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Add a conversion to the queue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		inputPath := args[0]
		format, _ := cmd.Flags().GetString("to")
		outputDir, _ := cmd.Flags().GetString("output")

		payload := map[string]string{
			"input_path":    inputPath,
			"output_format": format,
		}
		if outputDir != "" {
			payload["output_dir"] = outputDir
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/v1/conversions", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusCreated {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		fmt.Printf("Conversion added successfully!\n")
		fmt.Printf("ID: %s\n", result["id"])
		fmt.Printf("Engine: %s\n", result["engine"])
		fmt.Printf("Status: %s\n", result["status"])
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversions",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		url := serverURL + "/api/v1/conversions"
		if status != "" {
			url += "?status=" + status
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var conversions []map[string]interface{}
		json.Unmarshal(body, &conversions)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tINPUT\tFORMAT\tENGINE\tSTATUS\tCREATED")
		for _, c := range conversions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(c["id"].(string), 8),
				truncate(c["input_path"].(string), 40),
				c["output_format"],
				c["engine"],
				c["status"],
				c["created_at"])
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show conversion statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/conversions/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Conversion Statistics:")
		fmt.Printf("  Total:      %v\n", stats["total"])
		fmt.Printf("  Queued:     %v\n", stats["queued"])
		fmt.Printf("  Processing: %v\n", stats["processing"])
		fmt.Printf("  Completed:  %v\n", stats["completed"])
		fmt.Printf("  Failed:     %v\n", stats["failed"])
		fmt.Printf("  Cancelled:  %v\n", stats["cancelled"])
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get conversion details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Get(serverURL + "/api/v1/conversions/" + id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var conversion map[string]interface{}
		json.Unmarshal(body, &conversion)

		fmt.Printf("Conversion Details:\n")
		fmt.Printf("  ID:       %s\n", conversion["id"])
		fmt.Printf("  Input:    %s\n", conversion["input_path"])
		fmt.Printf("  Format:   %s\n", conversion["output_format"])
		fmt.Printf("  Engine:   %s\n", conversion["engine"])
		fmt.Printf("  Status:   %s\n", conversion["status"])
		fmt.Printf("  Created:  %s\n", conversion["created_at"])
		if conversion["output_path"] != nil && conversion["output_path"] != "" {
			fmt.Printf("  Output:   %s\n", conversion["output_path"])
		}
		if conversion["error"] != nil && conversion["error"] != "" {
			fmt.Printf("  Error:    %s\n", conversion["error"])
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a conversion",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Post(serverURL+"/api/v1/conversions/"+id+"/cancel", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		fmt.Println("Conversion cancelled successfully")
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Retry a failed conversion",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Post(serverURL+"/api/v1/conversions/"+id+"/retry", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		fmt.Println("Conversion queued for retry")
	},
}

func init() {
	addCmd.Flags().StringP("to", "t", "", "Output format (required)")
	addCmd.Flags().StringP("output", "o", "", "Output directory")
	addCmd.MarkFlagRequired("to")
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	toolsCmd.Flags().BoolP("refresh", "r", false, "Poll tool status before printing")
	toolsCmd.Flags().BoolP("updates", "u", false, "Show update info instead of status")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
