package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/creatorbridge/creatorbridge/internal/cli/config"
	"github.com/creatorbridge/creatorbridge/internal/cli/ui"
	"github.com/creatorbridge/creatorbridge/internal/instance"
	"github.com/creatorbridge/creatorbridge/internal/tools"
	"github.com/creatorbridge/creatorbridge/internal/web/auth"
)

// clientOptions are the flags of commands that talk to a running server
type clientOptions struct {
	server  string
	token   string
	format  string
	timeout time.Duration
}

func addClientFlags(cmd *cobra.Command, opts *clientOptions) {
	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "Server URL (default from server.host and server.port)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token (default: minted from auth.secret)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
}

func newClient(cmd *cobra.Command, root *rootFlags, opts *clientOptions) (*toolClient, error) {
	cfg, err := config.Load(root.configFile, nil)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), root.noColor))
		return nil, &reportedError{err: err}
	}

	server := opts.server
	if server == "" {
		server = "http://" + cfg.Address()
	}
	token := opts.token
	if token == "" && cfg.Auth.Secret != "" {
		tokens := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, time.Hour)
		if token, err = tokens.GenerateToken("cli", nil); err != nil {
			return nil, fmt.Errorf("mint token: %w", err)
		}
	}
	return newToolClient(server, token, opts.timeout), nil
}

var specialIDs = []string{instance.SceneGlobalsID, instance.ProjectSettingsID, instance.CommonTypesID}

// NewGetCommand creates the get command
func NewGetCommand(root *rootFlags) *cobra.Command {
	opts := &clientOptions{}
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print the properties of a node, component, asset or settings",
		Long: `Print the plain property tree of an instance. The id is a node, component
or asset uuid, or one of CurrentSceneGlobals and ProjectSettings.

Examples:
  creatorbridge get 3f2a...
  creatorbridge get CurrentSceneGlobals --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd, root, opts)
			if err != nil {
				return err
			}

			data, err := client.get(cmd.Context(), tools.GetInstanceProperties, url.Values{"reference[id]": {args[0]}})
			if err != nil {
				return explain(cmd, root, args[0], err, nil)
			}
			var result struct {
				Dump json.RawMessage `json:"dump"`
			}
			if err := json.Unmarshal(data, &result); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return ui.WriteDocument(cmd.OutOrStdout(), result.Dump, opts.format)
		},
	}
	addClientFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.format, "format", "f", ui.FormatJSON, "Output format: json or yaml")
	return cmd
}

// NewSetCommand creates the set command
func NewSetCommand(root *rootFlags) *cobra.Command {
	opts := &clientOptions{}
	cmd := &cobra.Command{
		Use:   "set <id> <path=value>...",
		Short: "Set properties of a node, component, asset or settings",
		Long: `Set one or more properties. Values are read as JSON when they parse as JSON
and as strings otherwise; the server converts them to the property's type.
Each path is applied in order, and a failing path does not undo the others.

Examples:
  creatorbridge set 3f2a... name=Hero position.y=64
  creatorbridge set 9c1b... spriteFrame=hero-image color='{"r":255,"g":0,"b":0,"a":255}'
  creatorbridge set ProjectSettings general.fitHeight=true`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			paths, values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			client, err := newClient(cmd, root, opts)
			if err != nil {
				return err
			}

			_, err = client.post(cmd.Context(), tools.SetInstanceProperties, map[string]any{
				"reference":     map[string]string{"id": id},
				"propertyPaths": paths,
				"values":        values,
			})
			if err != nil {
				return explain(cmd, root, id, err, client)
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Updated %s: %s", id, strings.Join(paths, ", ")), root.noColor)
			return nil
		},
	}
	addClientFlags(cmd, opts)
	return cmd
}

// NewDefinitionCommand creates the definition command
func NewDefinitionCommand(root *rootFlags) *cobra.Command {
	opts := &clientOptions{}
	cmd := &cobra.Command{
		Use:   "definition <id>",
		Short: "Print TypeScript declarations for an instance",
		Long: `Print the TypeScript declarations describing an instance's properties.
CommonTypes prints the shared value types (Vec3, Color, ...).

Examples:
  creatorbridge definition 9c1b...
  creatorbridge definition CommonTypes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd, root, opts)
			if err != nil {
				return err
			}

			var data json.RawMessage
			if args[0] == instance.CommonTypesID {
				data, err = client.get(cmd.Context(), tools.GetSettingsDefinition, url.Values{"settingsType": {args[0]}})
			} else {
				data, err = client.get(cmd.Context(), tools.GetInstanceDefinition, url.Values{"reference[id]": {args[0]}})
			}
			if err != nil {
				return explain(cmd, root, args[0], err, nil)
			}
			var result tools.DefinitionResult
			if err := json.Unmarshal(data, &result); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Definition)
			return nil
		},
	}
	addClientFlags(cmd, opts)
	return cmd
}

// parseAssignments splits path=value arguments. Values that are valid JSON
// are decoded; anything else is passed as a string.
func parseAssignments(args []string) ([]string, []any, error) {
	paths := make([]string, 0, len(args))
	values := make([]any, 0, len(args))
	for _, arg := range args {
		path, raw, ok := strings.Cut(arg, "=")
		if !ok || path == "" {
			return nil, nil, fmt.Errorf("expected path=value, got %q", arg)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		paths = append(paths, path)
		values = append(values, v)
	}
	return paths, values, nil
}

// explain prints a friendly report for well-known server errors. When a
// client is given, a partial set is followed by path suggestions drawn from
// the instance's current properties.
func explain(cmd *cobra.Command, root *rootFlags, id string, err error, client *toolClient) error {
	var ce *callError
	if !errors.As(err, &ce) {
		return err
	}
	out := cmd.ErrOrStderr()

	switch ce.Code {
	case "not_found":
		fmt.Fprint(out, ui.InstanceNotFoundError(id, ui.FindSimilar(id, specialIDs, nil), root.noColor))
	case "set_failed":
		var failures, failed []string
		if list, ok := ce.Details["failures"].([]any); ok {
			for _, f := range list {
				m, _ := f.(map[string]any)
				path, _ := m["path"].(string)
				msg, _ := m["error"].(string)
				failed = append(failed, path)
				failures = append(failures, fmt.Sprintf("%q: %s", path, msg))
			}
		}
		fmt.Fprint(out, ui.SetFailedError(id, failures, suggestPaths(cmd, client, id, failed), root.noColor))
	case "editor_unavailable":
		fmt.Fprint(out, ui.EditorUnavailableError(ce.Message, root.noColor))
	default:
		return err
	}
	return &reportedError{err: err}
}

func suggestPaths(cmd *cobra.Command, client *toolClient, id string, failed []string) []string {
	if client == nil || len(failed) == 0 {
		return nil
	}
	data, err := client.get(cmd.Context(), tools.GetInstanceProperties, url.Values{"reference[id]": {id}})
	if err != nil {
		return nil
	}
	var result struct {
		Dump any `json:"dump"`
	}
	if json.Unmarshal(data, &result) != nil {
		return nil
	}
	known := ui.PropertyPaths(result.Dump)

	var out []string
	seen := map[string]bool{}
	for _, path := range failed {
		for _, s := range ui.FindSimilar(path, known, nil) {
			if !seen[s] && s != path {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
