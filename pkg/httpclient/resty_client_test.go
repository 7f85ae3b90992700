package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyClientSendsQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("adType"); got != "OFFER" {
			t.Errorf("adType = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "ledger-test" {
			t.Errorf("User-Agent = %q", got)
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	resp, err := NewRestyClient(2*time.Second).Get(context.Background(), srv.URL,
		map[string]string{"adType": "OFFER"},
		map[string]string{"User-Agent": "ledger-test"},
	)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusTeapot || string(resp.Body()) != "short and stout" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode(), resp.Body())
	}
}
