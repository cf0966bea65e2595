package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime/debug"
	"testing"
	"time"
)

func TestAboutNow_BuildInfo(t *testing.T) {
	old := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Path: "mag3110d", Version: "v0.3.0"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "true"},
				{Key: "vcs.time", Value: "2024-05-01T12:00:00Z"},
			},
		}, true
	}
	t.Cleanup(func() { readBuildInfo = old })

	got := aboutNow(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	if got.Module != "mag3110d" || got.Version != "v0.3.0" {
		t.Fatalf("module=%q version=%q", got.Module, got.Version)
	}
	if got.Commit != "abc123" || !got.Dirty || got.BuildTime != "2024-05-01T12:00:00Z" {
		t.Fatalf("vcs=%+v", got)
	}
	if got.NowUTC != "2024-05-02T00:00:00Z" {
		t.Fatalf("now_utc=%q", got.NowUTC)
	}
}

func TestAboutNow_NoBuildInfo(t *testing.T) {
	old := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
	t.Cleanup(func() { readBuildInfo = old })

	got := aboutNow(time.Now())
	if got.Service != "mag3110d" || got.Module != "" {
		t.Fatalf("about=%+v", got)
	}
}

func TestAboutHandler(t *testing.T) {
	ts := httptest.NewServer(AboutHandler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out AboutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Sensor != "MAG3110" || out.GoVersion == "" {
		t.Fatalf("about=%+v", out)
	}
}
