package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shapedtime/cinesplit/internal/app"
	"github.com/shapedtime/cinesplit/internal/segment"
	"github.com/shapedtime/cinesplit/internal/service"
	"github.com/shapedtime/cinesplit/internal/subtitle"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <title or imdb id>",
		Short: "Split a movie into episodes, storing the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("query must not be empty")
			}
			return ctx.withApp(func(a *app.App) error {
				result, err := a.Service.Analyze(cmd.Context(), query)
				if err != nil {
					return describeFailure(err)
				}
				if asJSON {
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s", result.Movie.DisplayTitle())
				if result.Movie.Year != "" {
					fmt.Fprintf(out, " (%s)", result.Movie.Year)
				}
				fmt.Fprintf(out, " [%s]\n", result.Movie.CanonicalID)
				fmt.Fprintf(out, "Source: %s, subtitle: %s\n", result.Source, result.SubtitleSource)
				fmt.Fprintln(out, renderEpisodes(result.Episodes))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// describeFailure turns pipeline failures into messages a terminal user can act on.
func describeFailure(err error) error {
	switch {
	case service.IsKind(err, service.KindNotFound):
		return fmt.Errorf("movie not found: %w", err)
	case service.IsKind(err, service.KindNoSubtitle):
		return fmt.Errorf("no usable subtitle: %w", err)
	case service.IsKind(err, service.KindSegmentation):
		return fmt.Errorf("segmentation failed, try again: %w", err)
	default:
		return err
	}
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var (
		lang   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "split <subtitle.srt>",
		Short: "Segment a local subtitle file without looking up or storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read subtitle: %w", err)
			}
			return ctx.withApp(func(a *app.App) error {
				if lang == "" {
					lang = a.Config.OpenSubtitles.Languages[0]
				}
				raw := subtitle.Decode(content, lang)
				cleaned := subtitle.Clean(raw)
				if cleaned == "" {
					return fmt.Errorf("%s has no dialogue after cleaning", args[0])
				}
				final := subtitle.FinalTimestamp(raw)

				started := time.Now()
				episodes, err := segment.NewSegmenter(a.LLM).Segment(cmd.Context(), cleaned, final)
				if err != nil {
					return err
				}
				if err := segment.Validate(episodes, final); err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, episodes)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderEpisodes(episodes))
				fmt.Fprintf(out, "%d episodes, final timestamp %s, took %s\n",
					len(episodes), orDash(final), time.Since(started).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "language", "l", "", "Subtitle language, used to pick a legacy encoding")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the episodes as JSON")
	return cmd
}

func newAutocompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "autocomplete <prefix>",
		Short: "Suggest movie titles for a prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := strings.Join(args, " ")
			return ctx.withApp(func(a *app.App) error {
				candidates := a.Service.Autocomplete(cmd.Context(), prefix)
				if len(candidates) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches")
					return nil
				}
				rows := make([][]string, len(candidates))
				for i, c := range candidates {
					rows[i] = []string{c.CanonicalID, c.Title, c.Year}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"IMDb ID", "Title", "Year"}, rows, nil))
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				analyses, err := a.Service.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, analyses)
				}
				if len(analyses) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No analyses stored")
					return nil
				}
				rows := make([][]string, len(analyses))
				for i, an := range analyses {
					rows[i] = []string{
						an.CanonicalID,
						an.Movie.DisplayTitle(),
						orDash(an.Movie.Year),
						fmt.Sprintf("%d", len(an.Episodes)),
						string(an.SubtitleSource),
						an.CreatedAt.Local().Format("2006-01-02 15:04"),
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"IMDb ID", "Title", "Year", "Episodes", "Subtitle", "Stored"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analyses as JSON")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
