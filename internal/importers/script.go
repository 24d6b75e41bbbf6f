package importers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"

	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

const (
	scriptMaxChars    = 20000
	scriptMaxLines    = 400
	scriptTruncatedAt = "\n... (truncated)"
)

// ScriptImporter exposes the source of script assets, read-only.
type ScriptImporter struct {
	fs afero.Fs
}

// NewScriptImporter creates the script capability. A nil file system reads
// from the OS.
func NewScriptImporter(files afero.Fs) *ScriptImporter {
	if files == nil {
		files = afero.NewOsFs()
	}
	return &ScriptImporter{fs: files}
}

func (s *ScriptImporter) Name() string      { return "typescript" }
func (s *ScriptImporter) ClassName() string { return defaultClassName(s.Name()) }

// GetProperties returns the (possibly truncated) content and language. A file
// that exists but cannot be read yields an error field instead.
func (s *ScriptImporter) GetProperties(_ context.Context, asset *host.AssetInfo) (*propgraph.Graph, error) {
	if asset.File == "" {
		return nil, fmt.Errorf("script %s has no file: %w", asset.UUID, propgraph.ErrNotFound)
	}
	if _, err := s.fs.Stat(asset.File); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("script %s: %s: %w", asset.UUID, asset.File, propgraph.ErrNotFound)
	}

	g := propgraph.NewGraph()
	data, err := afero.ReadFile(s.fs, asset.File)
	if err != nil {
		g.Set("error", wrapped(&propgraph.Schema{
			Type: "String", DisplayName: "Error", Readonly: true,
		}, "Failed to read script file: "+err.Error()))
		return g, nil
	}

	g.Set("content", wrapped(&propgraph.Schema{
		Type: "String", DisplayName: "Content", Readonly: true,
	}, truncateScript(string(data))))
	g.Set("language", wrapped(&propgraph.Schema{
		Type: "String", DisplayName: "Language", Readonly: true,
	}, s.Name()))
	return g, nil
}

// SetProperty never handles a path; script sources are not edited here.
func (s *ScriptImporter) SetProperty(context.Context, *host.AssetInfo, string, any) (bool, error) {
	return false, nil
}

func truncateScript(content string) string {
	truncated := false
	if r := []rune(content); len(r) > scriptMaxChars {
		content = string(r[:scriptMaxChars])
		truncated = true
	}
	if lines := strings.Split(content, "\n"); len(lines) > scriptMaxLines {
		content = strings.Join(lines[:scriptMaxLines], "\n")
		truncated = true
	}
	if truncated {
		content += scriptTruncatedAt
	}
	return content
}
