// Package main provides the matching engine CLI entrypoint.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	sdk "github.com/recovr-ai/matching-engine/pkg/matching"
)

var (
	// Global flags
	serverURL  string
	outputJSON bool
	noColor    bool

	client *sdk.Client
	ui     *UI
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "matching-cli",
	Short: "Matching engine CLI for searching lost and found items",
	Long: `Matching engine CLI provides commands for querying the lost item
matching service.

Use this tool to:
- Search reported items by text description
- Search reported items by image similarity
- Get autocomplete suggestions for partial queries
- List cross-matches between lost and found reports

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if serverURL == "" {
			serverURL = os.Getenv("MATCHING_SERVER_URL")
		}

		var err error
		client, err = sdk.NewClient(sdk.ClientConfig{BaseURL: serverURL})
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}

		ui = NewUI(outputJSON, noColor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "matching engine base URL (default: MATCHING_SERVER_URL or http://localhost:8082)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newImageSearchCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newMatchesCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newSearchCmd creates the search subcommand.
func newSearchCmd() *cobra.Command {
	var query sdk.TextQuery

	cmd := &cobra.Command{
		Use:   "search [name]",
		Short: "Search reported items by text description",
		Long: `Search scores every reported item against the query fields and
returns the best matches, ranked. Positional arguments are joined into
the item name; use flags for the other fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				query.Name = strings.Join(args, " ")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			stop := ui.Spinner("searching")
			resp, err := client.SearchText(ctx, query)
			stop()
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			return printSearchResponse(resp)
		},
	}

	cmd.Flags().StringVar(&query.Description, "description", "", "free-text description")
	cmd.Flags().StringVar(&query.Category, "category", "", "item category filter")
	cmd.Flags().StringVar(&query.Location, "location", "", "location where the item was lost")
	cmd.Flags().StringVar(&query.Color, "color", "", "item color")
	cmd.Flags().StringVar(&query.Material, "material", "", "item material")
	cmd.Flags().StringVar(&query.Size, "size", "", "item size (small, medium, large)")
	cmd.Flags().IntVar(&query.Limit, "limit", 0, "maximum results to return")

	return cmd
}

// newImageSearchCmd creates the image-search subcommand.
func newImageSearchCmd() *cobra.Command {
	var (
		imageURL  string
		imageFile string
		category  string
		location  string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "image-search",
		Short: "Search reported items by image similarity",
		Long: `Image search extracts a feature vector from the image and ranks
reported items by visual similarity. Provide the image as a URL or a
local file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if imageURL == "" && imageFile == "" {
				return fmt.Errorf("either --url or --file is required")
			}

			query := sdk.ImageQuery{
				ImageURL: imageURL,
				Category: category,
				Location: location,
				Limit:    limit,
			}

			if imageFile != "" {
				data, err := os.ReadFile(imageFile)
				if err != nil {
					return fmt.Errorf("read image file: %w", err)
				}
				query.ImageData = encodeBase64(data)
				query.ImageURL = ""
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			stop := ui.Spinner("searching by image")
			resp, err := client.SearchImage(ctx, query)
			stop()
			if err != nil {
				return fmt.Errorf("image search failed: %w", err)
			}

			return printSearchResponse(resp)
		},
	}

	cmd.Flags().StringVar(&imageURL, "url", "", "image URL")
	cmd.Flags().StringVar(&imageFile, "file", "", "local image file path")
	cmd.Flags().StringVar(&category, "category", "", "item category filter")
	cmd.Flags().StringVar(&location, "location", "", "location filter")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results to return")

	return cmd
}

// newSuggestCmd creates the suggest subcommand.
func newSuggestCmd() *cobra.Command {
	var (
		typ   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Get autocomplete suggestions for a partial query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			resp, err := client.Autocomplete(ctx, args[0], typ, limit)
			if err != nil {
				return fmt.Errorf("autocomplete failed: %w", err)
			}

			if outputJSON {
				return printJSON(resp)
			}

			if len(resp.Suggestions) == 0 {
				ui.Info("No suggestions for %q", resp.Query)
				return nil
			}

			rows := make([][]string, 0, len(resp.Suggestions))
			for _, s := range resp.Suggestions {
				rows = append(rows, []string{s.Text, s.Type, fmt.Sprintf("%.2f", s.Score)})
			}
			ui.Table([]string{"Suggestion", "Type", "Score"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "suggestion type (item, location, category)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum suggestions to return")

	return cmd
}

// newMatchesCmd creates the matches subcommand.
func newMatchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matches <item-id>",
		Short: "List cross-matches for a reported item",
		Long: `Matches compares a lost report against found reports (or the other
way around) and lists the most likely counterparts with the reason each
one matched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			stop := ui.Spinner("matching")
			resp, err := client.MatchesForItem(ctx, args[0])
			stop()
			if err != nil {
				return fmt.Errorf("matches failed: %w", err)
			}

			if outputJSON {
				return printJSON(resp)
			}

			if len(resp.Matches) == 0 {
				ui.Info("No matches found for item %s", resp.ItemID)
				return nil
			}

			ui.Success("%d match(es) for item %s", resp.Total, resp.ItemID)
			rows := make([][]string, 0, len(resp.Matches))
			for _, m := range resp.Matches {
				rows = append(rows, []string{
					truncate(m.FoundItem.Name, 32),
					m.FoundItem.Location,
					fmt.Sprintf("%.0f%%", m.Score*100),
					m.Reason,
				})
			}
			ui.Table([]string{"Found Item", "Location", "Score", "Reason"}, rows)
			return nil
		},
	}
}

// newHealthCmd creates the health subcommand.
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the matching engine service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			resp, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			if outputJSON {
				return printJSON(resp)
			}

			ui.Success("Service is %s", resp.Status)
			return nil
		},
	}
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if outputJSON {
				json.NewEncoder(os.Stdout).Encode(map[string]string{
					"version": "0.1.0",
				})
				return
			}
			fmt.Println("matching-cli v0.1.0")
		},
	}
}

func printSearchResponse(resp *sdk.SearchResponse) error {
	if outputJSON {
		return printJSON(resp)
	}

	if len(resp.Results) == 0 {
		ui.Warning("No matches found")
		for _, s := range resp.Suggestions {
			ui.Info("%s", s)
		}
		return nil
	}

	ui.Success("%d result(s), quality: %s (%s)", resp.Total, resp.Quality,
		FormatDuration(time.Duration(resp.TookMs)*time.Millisecond))
	if resp.Cached {
		ui.Info("Served from cache")
	}

	rows := make([][]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		rows = append(rows, []string{
			truncate(r.Item.Name, 32),
			r.Item.Category,
			truncate(r.Item.Location, 24),
			strconv.Itoa(r.Score),
		})
	}
	ui.Table([]string{"Item", "Category", "Location", "Score"}, rows)

	for _, s := range resp.Suggestions {
		ui.Info("%s", s)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
