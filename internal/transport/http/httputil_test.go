package httptransport

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"sijil/pkg/platform/sentinel"
)

func TestWriteStoreError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{sentinel.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("update clinic: %w", sentinel.ErrNotFound), http.StatusNotFound},
		{sentinel.ErrConflict, http.StatusConflict},
		{sentinel.ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("connection refused"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		writeStoreError(rr, tc.err)
		assert.Equal(t, tc.want, rr.Code, tc.err.Error())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}
