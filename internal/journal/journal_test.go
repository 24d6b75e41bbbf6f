package journal

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/creatorbridge/creatorbridge/internal/apply"
	"github.com/creatorbridge/creatorbridge/internal/instance"
	"github.com/creatorbridge/creatorbridge/internal/web/middleware"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func mutation(inst, path string, value any) apply.Mutation {
	return apply.Mutation{
		Instance: inst,
		Target:   "owner",
		Path:     path,
		Commit:   "__comps__.0." + path,
		Value:    value,
		Kind:     instance.KindComponent,
		At:       at,
	}
}

func TestJournal_RecordAndList(t *testing.T) {
	j := openTest(t)
	ctx := middleware.WithRequestID(context.Background(), "req-1")

	j.Committed(ctx, mutation("c1", "color.r", 128.0))
	j.Committed(ctx, mutation("c1", "spriteFrame", map[string]any{"uuid": "sf"}))
	j.Committed(context.Background(), mutation("c2", "enabled", false))

	all, err := j.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c2", all[0].Instance)
	assert.Equal(t, "", all[0].RequestID)

	c1, err := j.List(context.Background(), Filter{Instance: "c1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, c1, 1)
	e := c1[0]
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "spriteFrame", e.Path)
	assert.Equal(t, "__comps__.0.spriteFrame", e.Commit)
	assert.Equal(t, "component", e.Kind)
	assert.Equal(t, "owner", e.Target)
	assert.JSONEq(t, `{"uuid":"sf"}`, string(e.Value))
	assert.True(t, at.Equal(e.At))
}

func TestJournal_ListEmpty(t *testing.T) {
	j := openTest(t)

	entries, err := j.List(context.Background(), Filter{Instance: "nope"})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestJournal_RecordUsesInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mutations")).
		WithArgs("req-9", "n1", "owner", "component", "name", "__comps__.0.name", `"Hero"`, at.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	j := New(db, nil)
	ctx := middleware.WithRequestID(context.Background(), "req-9")
	require.NoError(t, j.Record(ctx, mutation("n1", "name", "Hero")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_CommittedLogsFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO mutations").WillReturnError(errors.New("disk full"))

	core, logs := observer.New(zap.ErrorLevel)
	j := New(db, zap.New(core))
	j.Committed(context.Background(), mutation("n1", "name", "Hero"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "journal write failed", logs.All()[0].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_ListQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM mutations").WillReturnError(errors.New("locked"))

	_, err = New(db, nil).List(context.Background(), Filter{Limit: 5})
	assert.ErrorContains(t, err, "locked")
}

func TestJournal_AsObserver(t *testing.T) {
	j := openTest(t)
	var o apply.Observer = j

	o.Committed(context.Background(), mutation("n1", "active", true))
	entries, err := j.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, "true", string(entries[0].Value))
}
