package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/latest.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("app_id"); got != "secret-app-id" {
			t.Errorf("app_id = %q", got)
		}
		w.Write([]byte(`{"base":"USD","rates":{"USD":1.0,"EUR":0.9}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-app-id")
	table, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Base != "USD" {
		t.Errorf("base = %q", table.Base)
	}
	if table.Rates["EUR"] != 0.9 {
		t.Errorf("EUR rate = %v", table.Rates["EUR"])
	}
}

func TestLatest_StatusOnlyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"description":"Invalid App ID provided: secret-app-id"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-app-id")
	_, err := c.Latest(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "secret-app-id") {
		t.Errorf("error leaks upstream body: %v", err)
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("error missing status code: %v", err)
	}
}

func TestLatest_EmptyTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"USD","rates":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	if _, err := c.Latest(context.Background()); err == nil {
		t.Fatal("expected error on empty rate table")
	}
}

func TestLatest_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	if _, err := c.Latest(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c := New("", "k")
	if c.baseURL != "https://openexchangerates.org" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}
