package host

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

type call struct {
	channel string
	message string
	args    []any
}

func recorder(replies map[string]string) (*[]call, Messenger) {
	var calls []call
	return &calls, MessengerFunc(func(_ context.Context, channel, message string, args ...any) (json.RawMessage, error) {
		calls = append(calls, call{channel, message, args})
		reply, ok := replies[channel+"/"+message]
		if !ok {
			return json.RawMessage("null"), nil
		}
		return json.RawMessage(reply), nil
	})
}

func TestClient_QueryNode(t *testing.T) {
	calls, m := recorder(map[string]string{
		"scene/query-node": `{"name": {"type": "String", "value": "Root"}, "uuid": {"type": "String", "value": "n1"}}`,
	})
	c := NewClient(m, nil)

	n, err := c.QueryNode(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "uuid"}, n.Fields.Keys())
	assert.Equal(t, []any{"n1"}, (*calls)[0].args)
}

func TestClient_NullReplyIsNotFound(t *testing.T) {
	_, m := recorder(nil)
	c := NewClient(m, nil)
	ctx := context.Background()

	_, err := c.QueryNode(ctx, "missing")
	assert.ErrorIs(t, err, propgraph.ErrNotFound)

	_, err = c.QueryAssetInfo(ctx, "missing")
	assert.ErrorIs(t, err, propgraph.ErrNotFound)

	cfg, err := c.QueryProjectConfig(ctx)
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestClient_TransportError(t *testing.T) {
	boom := errors.New("connection reset")
	c := NewClient(MessengerFunc(func(context.Context, string, string, ...any) (json.RawMessage, error) {
		return nil, boom
	}), nil)

	err := c.Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "scene/snapshot")
}

func TestClient_SaveAssetMetaSendsString(t *testing.T) {
	calls, m := recorder(nil)
	c := NewClient(m, nil)

	meta := AssetMeta{"importer": "texture", "userData": map[string]any{"anisotropy": 2.0}}
	require.NoError(t, c.SaveAssetMeta(context.Background(), "a1", meta))

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, MsgSaveAssetMeta, got.message)
	require.Len(t, got.args, 2)
	assert.JSONEq(t, `{"importer":"texture","userData":{"anisotropy":2}}`, got.args[1].(string))
}

func TestClient_QueryAllEffects(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"list", `[{"name": "builtin-standard", "uuid": "e1"}, {"name": "builtin-unlit", "uuid": "e2"}]`},
		{"map", `{"builtin-unlit": {"uuid": "e2"}, "builtin-standard": {"name": "builtin-standard", "uuid": "e1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := recorder(map[string]string{"scene/query-all-effects": tt.reply})
			effects, err := NewClient(m, nil).QueryAllEffects(context.Background())
			require.NoError(t, err)
			require.Len(t, effects, 2)
			assert.Equal(t, "builtin-standard", effects[0].Name)
			assert.Equal(t, "builtin-unlit", effects[1].Name)
		})
	}
}

func TestAssetMeta(t *testing.T) {
	meta := AssetMeta{
		"importer": "image",
		"subMetas": map[string]any{
			"b": map[string]any{"importer": "sprite-frame", "uuid": "img@b"},
			"a": map[string]any{"importer": "texture", "uuid": "img@a"},
		},
	}

	assert.Equal(t, "image", meta.Importer())
	assert.Nil(t, meta.UserData())
	meta.EnsureUserData()["type"] = "texture"
	assert.Equal(t, "texture", meta.UserData()["type"])

	sub, ok := meta.SubMeta("sprite-frame")
	require.True(t, ok)
	assert.Equal(t, "img@b", sub.UUID())

	_, ok = meta.SubMeta("erp-texture-cube")
	assert.False(t, ok)
}
