package profiling

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		path   string
		want   int
	}{
		{name: "index", config: DefaultConfig(), path: "/debug/pprof/", want: http.StatusOK},
		{name: "cmdline", config: DefaultConfig(), path: "/debug/pprof/cmdline", want: http.StatusOK},
		{name: "goroutine", config: DefaultConfig(), path: "/debug/pprof/goroutine?debug=1", want: http.StatusOK},
		{name: "empty path uses default", config: Config{}, path: "/debug/pprof/heap", want: http.StatusOK},
		{name: "custom path", config: Config{Path: "/pprof"}, path: "/pprof/allocs", want: http.StatusOK},
		{name: "custom path hides default", config: Config{Path: "/pprof"}, path: "/debug/pprof/", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			Register(r, tt.config)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
