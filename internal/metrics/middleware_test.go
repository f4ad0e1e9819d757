package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/entities/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	teapot := httpRequestsTotal.WithLabelValues("GET", "418")
	ok := httpRequestsTotal.WithLabelValues("GET", "200")
	beforeTeapot, beforeOK := testutil.ToFloat64(teapot), testutil.ToFloat64(ok)

	for _, path := range []string{"/v1/entities/1", "/v1/entities/2", "/ok"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, beforeTeapot+2, testutil.ToFloat64(teapot))
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Positive(t, testutil.CollectAndCount(httpRequestDuration))
}
