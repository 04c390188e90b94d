package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 201: "2xx", 304: "3xx", 404: "4xx", 422: "4xx", 502: "5xx"}
	for code, want := range cases {
		if got := StatusClass(code); got != want {
			t.Fatalf("StatusClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(SuggestionsApplied.WithLabelValues("created"))
	SuggestionsApplied.WithLabelValues("created").Inc()
	if got := testutil.ToFloat64(SuggestionsApplied.WithLabelValues("created")); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}
