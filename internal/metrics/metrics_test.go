package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveQuery(t *testing.T) {
	before := testutil.ToFloat64(QueriesTotal.WithLabelValues("test_op", "ok"))
	ObserveQuery("test_op", nil, 5*time.Millisecond)
	after := testutil.ToFloat64(QueriesTotal.WithLabelValues("test_op", "ok"))

	if after != before+1 {
		t.Errorf("ok counter = %v; want %v", after, before+1)
	}

	beforeErr := testutil.ToFloat64(QueriesTotal.WithLabelValues("test_op", "error"))
	ObserveQuery("test_op", errors.New("boom"), time.Millisecond)
	afterErr := testutil.ToFloat64(QueriesTotal.WithLabelValues("test_op", "error"))

	if afterErr != beforeErr+1 {
		t.Errorf("error counter = %v; want %v", afterErr, beforeErr+1)
	}
}

func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/v1/nodes/{label}/node/{id}", "200"))
	ObserveHTTPRequest("GET", "/v1/nodes/{label}/node/{id}", 200, time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/v1/nodes/{label}/node/{id}", "200"))

	if after != before+1 {
		t.Errorf("http counter = %v; want %v", after, before+1)
	}
}

func TestHandler(t *testing.T) {
	if Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
