package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/cli/config"
	"github.com/creatorbridge/creatorbridge/internal/cli/ui"
	"github.com/creatorbridge/creatorbridge/internal/journal"
)

const (
	formatTable = "table"
	// maxValueWidth truncates values in the history table
	maxValueWidth = 40
)

type historyOptions struct {
	client   clientOptions
	instance string
	limit    int
	local    bool
}

// NewHistoryCommand creates the history command
func NewHistoryCommand(root *rootFlags) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded property writes",
		Long: `List the property writes recorded in the mutation journal, newest first.
By default the journal is read through the server; --local opens the
journal file named by journal.path instead.

Examples:
  creatorbridge history --limit 10
  creatorbridge history --instance 3f2a... --local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				entries []journal.Entry
				err     error
			)
			if opts.local {
				entries, err = localHistory(cmd, root, opts)
			} else {
				entries, err = remoteHistory(cmd, root, opts)
			}
			if err != nil {
				return err
			}

			if opts.client.format != formatTable {
				data, err := json.Marshal(entries)
				if err != nil {
					return err
				}
				return ui.WriteDocument(cmd.OutOrStdout(), data, opts.client.format)
			}
			renderHistory(cmd.OutOrStdout(), entries, root.noColor)
			return nil
		},
	}

	addClientFlags(cmd, &opts.client)
	cmd.Flags().StringVarP(&opts.client.format, "format", "f", formatTable, "Output format: table, json or yaml")
	cmd.Flags().StringVarP(&opts.instance, "instance", "i", "", "Only writes to this instance id")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 50, "Maximum number of entries")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Read the journal file directly")

	return cmd
}

func localHistory(cmd *cobra.Command, root *rootFlags, opts *historyOptions) ([]journal.Entry, error) {
	cfg, err := config.Load(root.configFile, nil)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), root.noColor))
		return nil, &reportedError{err: err}
	}
	if cfg.Journal.Path == "" {
		return nil, fmt.Errorf("journal.path is not set")
	}

	j, err := journal.Open(cmd.Context(), cfg.Journal.Path, zap.NewNop())
	if err != nil {
		return nil, err
	}
	defer j.Close()
	return j.List(cmd.Context(), journal.Filter{Instance: opts.instance, Limit: opts.limit})
}

func remoteHistory(cmd *cobra.Command, root *rootFlags, opts *historyOptions) ([]journal.Entry, error) {
	client, err := newClient(cmd, root, &opts.client)
	if err != nil {
		return nil, err
	}
	data, err := client.history(cmd.Context(), opts.instance, opts.limit)
	if err != nil {
		return nil, err
	}
	var result struct {
		Entries []journal.Entry `json:"entries"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Entries, nil
}

func renderHistory(w io.Writer, entries []journal.Entry, noColor bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded writes")
		return
	}
	t := ui.NewTable(w, []string{"ID", "TIME", "REQUEST", "INSTANCE", "PATH", "VALUE"}, noColor)
	for _, e := range entries {
		t.AddRow(
			strconv.FormatInt(e.ID, 10),
			e.At.Local().Format("2006-01-02 15:04:05"),
			e.RequestID,
			e.Instance,
			e.Path,
			truncate(string(e.Value), maxValueWidth),
		)
	}
	t.Render()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
