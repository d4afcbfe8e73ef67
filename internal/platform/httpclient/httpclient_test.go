package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoJSON_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Api-Key") != "k" {
			http.Error(w, "bad headers", http.StatusBadRequest)
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("NewWithBaseURL error: %v", err)
	}

	var out map[string]string
	if err := c.DoJSON(context.Background(), http.MethodPost, "echo", map[string]string{"X-Api-Key": "k"}, map[string]string{"msg": "hola"}, &out); err != nil {
		t.Fatalf("DoJSON error: %v", err)
	}
	if out["echo"] != "hola" {
		t.Fatalf("expected echo=hola, got %#v", out)
	}
}

func TestDoJSON_Non2xx_IsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	err := New(time.Second, nil).DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTeapot || httpErr.Body != "teapot" {
		t.Fatalf("expected HTTPError 418, got %v", err)
	}
}

func TestDoJSON_RelativeWithoutBaseURL(t *testing.T) {
	if err := New(0, nil).DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil); err == nil {
		t.Fatalf("expected error for relative path without BaseURL")
	}
}

func TestNewWithBaseURL_Invalid(t *testing.T) {
	if _, err := NewWithBaseURL("not a url", 0); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}
