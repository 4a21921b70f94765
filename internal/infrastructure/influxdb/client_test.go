package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
)

// fakeInflux answers /ping and captures /api/v2/write bodies.
type fakeInflux struct {
	*httptest.Server
	writes chan string
	status int
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()
	f := &fakeInflux{writes: make(chan string, 16), status: http.StatusNoContent}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping", "/health":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/write":
			body, _ := io.ReadAll(r.Body)
			f.writes <- string(body)
			w.WriteHeader(f.status)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeInflux) config() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           f.URL,
		Token:         "test-token",
		Org:           "graylogic",
		Bucket:        "audio",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func (f *fakeInflux) nextWrite(t *testing.T) string {
	t.Helper()
	select {
	case body := <-f.writes:
		return body
	case <-time.After(5 * time.Second):
		t.Fatal("no write received")
		return ""
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: url})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_HealthCheckAndClose(t *testing.T) {
	f := newFakeInflux(t)
	cfg := f.config()
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	c, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !c.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}

	// Writes after Close are dropped.
	c.WriteHotplugEvent(HotplugEvent{Kind: "added", Class: "Audio/Sink"})
	c.Flush()
}

func TestClose_Nil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestWriteHotplugEvent(t *testing.T) {
	f := newFakeInflux(t)
	c, err := Connect(f.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	c.WriteHotplugEvent(HotplugEvent{
		Kind:  "added",
		Class: "Audio/Sink",
		Card:  "hw:0,3",
		Site:  "site-001",
		Time:  time.Unix(1760000000, 0),
	})
	c.Flush()

	body := f.nextWrite(t)
	for _, want := range []string{
		"audio_hotplug,",
		`card=hw:0\,3`,
		"class=Audio/Sink",
		"kind=added",
		"site=site-001",
		"count=1i",
		"1760000000000000000",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("line protocol %q missing %q", body, want)
		}
	}
}

func TestWriteInventory(t *testing.T) {
	f := newFakeInflux(t)
	c, err := Connect(f.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	c.WriteInventory("site-001", 2, 5)
	c.Flush()

	body := f.nextWrite(t)
	for _, want := range []string{"audio_inventory,site=site-001", "cards=2i", "devices=5i"} {
		if !strings.Contains(body, want) {
			t.Errorf("line protocol %q missing %q", body, want)
		}
	}
}

func TestWriteErrorsReachCallback(t *testing.T) {
	f := newFakeInflux(t)
	f.status = http.StatusBadRequest
	c, err := Connect(f.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	got := make(chan error, 1)
	c.SetOnError(func(err error) {
		select {
		case got <- err:
		default:
		}
	})

	c.WriteHotplugEvent(HotplugEvent{Kind: "removed", Class: "Audio/Source"})
	c.Flush()

	select {
	case err := <-got:
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write error not reported")
	}
}

func TestHotplugPoint(t *testing.T) {
	p := hotplugPoint(HotplugEvent{Kind: "changed", Class: "Audio/Source"})

	if p.Name() != MeasurementHotplug {
		t.Errorf("Name() = %q", p.Name())
	}
	tags := p.TagList()
	if len(tags) != 2 || tags[0].Key != "class" || tags[1].Key != "kind" {
		t.Errorf("tags = %v, want class and kind only", tags)
	}
	fields := p.FieldList()
	if len(fields) != 1 || fields[0].Key != "count" || fields[0].Value != int64(1) {
		t.Errorf("fields = %v", fields)
	}
	if p.Time().IsZero() {
		t.Error("zero event time not replaced")
	}
}
