package cloud

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:     server.URL,
		Timeout:     5 * time.Second,
		StaticToken: "test-token",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return client
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{BaseURL: "https://api.example.test", Timeout: time.Second, StaticToken: "t"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	cfg.StaticToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without token config")
	}

	cfg.TokenURL = "https://auth.example.test/token"
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestListFiles(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/list" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["filePath"] != "equity/usa/daily/" {
			t.Fatalf("filePath=%q", body["filePath"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"objects": []string{"usa/daily/spy.zip", "usa/daily/aapl.zip"},
		})
	}))

	files, err := client.ListFiles(context.Background(), "equity/usa/daily/")
	if err != nil {
		t.Fatalf("ListFiles() err=%v", err)
	}
	want := []string{"equity/usa/daily/aapl.zip", "equity/usa/daily/spy.zip"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files=%v, want %v", files, want)
	}
}

func TestDataInfo(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/prices" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"datasources": map[string]any{
				"1": map[string]any{"options": []any{}, "paths": []any{}},
			},
			"prices": []map[string]any{
				{"vendorName": "AlgoSeek", "regex": `/^equity\/usa\//`, "price": 5},
				{"vendorName": "Broken", "regex": `/((/`, "price": 1},
				{"vendorName": "Free", "regex": `/^alternative\//`},
			},
			"agreement":  "https://example.test/agreement",
			"signed":     true,
			"signedTime": 1577933521,
		})
	}))

	info, err := client.DataInfo(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("DataInfo() err=%v", err)
	}

	if len(info.Vendors) != 2 {
		t.Fatalf("len(Vendors)=%d, want broken regex dropped", len(info.Vendors))
	}
	if info.Vendors[0].Name != "AlgoSeek" || *info.Vendors[0].Price != 5 {
		t.Fatalf("Vendors[0]=%+v", info.Vendors[0])
	}
	if !info.Vendors[0].Matches("equity/usa/daily/spy.zip") {
		t.Fatalf("vendor regex did not match")
	}
	if info.Vendors[1].Price != nil {
		t.Fatalf("Vendors[1].Price=%v, want nil", info.Vendors[1].Price)
	}
	if !info.Agreement.Signed || info.Agreement.URL != "https://example.test/agreement" {
		t.Fatalf("Agreement=%+v", info.Agreement)
	}
	if _, ok := info.Datasources["1"]; !ok {
		t.Fatalf("Datasources=%v", info.Datasources)
	}
}

func TestListDatasets(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/market/data/list" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"datasets": []map[string]any{
				{"id": 1, "name": "US Equities", "delivery": "cloud & download", "vendorName": "AlgoSeek", "tags": []map[string]string{{"name": "Equity"}}},
				{"id": 2, "name": "Internal", "delivery": "cloud only", "vendorName": "X", "pending": true},
			},
		})
	}))

	datasets, err := client.ListDatasets(context.Background())
	if err != nil {
		t.Fatalf("ListDatasets() err=%v", err)
	}
	if len(datasets) != 2 {
		t.Fatalf("len(datasets)=%d", len(datasets))
	}
	if datasets[0].Name != "US Equities" || datasets[0].Delivery != DeliveryCloudAndDownload {
		t.Fatalf("datasets[0]=%+v", datasets[0])
	}
	if datasets[0].Tags[0].Name != "Equity" {
		t.Fatalf("tags=%+v", datasets[0].Tags)
	}
	if !datasets[1].Pending {
		t.Fatalf("datasets[1].Pending=false")
	}
}

func TestPost_ErrorStatus(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))

	if _, err := client.ListFiles(context.Background(), "x/"); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestParseVendorRegex(t *testing.T) {
	pattern, err := parseVendorRegex(`/^equity\/usa\//m`)
	if err != nil {
		t.Fatalf("parseVendorRegex() err=%v", err)
	}
	if !pattern.MatchString("equity/usa/daily/spy.zip") {
		t.Fatalf("pattern did not match")
	}

	if _, err := parseVendorRegex("no-delimiters"); err == nil {
		t.Fatalf("expected error without slash delimiters")
	}
}
