package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"mag3110d/internal/poller"
	"mag3110d/internal/sensors/mag3110"
)

// MagController exposes the sensor controls to the API.
// Implementations must be safe to call concurrently.
type MagController interface {
	Active() (bool, error)
	SetActive(enable bool) error
	DataRateMode() (int, error)
	SetDataRateMode(mode int) error
	Suspend() error
	Resume() error
	CachedControl() byte
	DieTemperature() (int8, error)
}

type PollController interface {
	Interval() time.Duration
	SetInterval(d time.Duration) error
	Snapshot() poller.Snapshot
}

const maxRequestBytes = 4 << 10

func Handler(status *Status, mag MagController, poll PollController, logs *LogBuffer, samples *SampleBroadcaster) http.Handler {
	if status == nil {
		status = NewStatus()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, status.Snapshot(time.Now().UTC(), mag, poll))
	})

	mux.HandleFunc("/api/mag/enable", func(w http.ResponseWriter, r *http.Request) {
		if mag == nil {
			http.Error(w, "mag unavailable", http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			on, err := mag.Active()
			if err != nil {
				writeMagError(w, err)
				return
			}
			writeJSON(w, enableBody{Enable: &on})
		case http.MethodPost:
			var req enableBody
			if !decodeBody(w, r, &req) {
				return
			}
			if req.Enable == nil {
				http.Error(w, "enable is required", http.StatusBadRequest)
				return
			}
			if err := mag.SetActive(*req.Enable); err != nil {
				writeMagError(w, err)
				return
			}
			writeJSON(w, req)
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/mag/dr_mode", func(w http.ResponseWriter, r *http.Request) {
		if mag == nil {
			http.Error(w, "mag unavailable", http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			mode, err := mag.DataRateMode()
			if err != nil {
				writeMagError(w, err)
				return
			}
			writeJSON(w, drModeBody{DRMode: &mode})
		case http.MethodPost:
			var req drModeBody
			if !decodeBody(w, r, &req) {
				return
			}
			if req.DRMode == nil {
				http.Error(w, "dr_mode is required", http.StatusBadRequest)
				return
			}
			if err := mag.SetDataRateMode(*req.DRMode); err != nil {
				writeMagError(w, err)
				return
			}
			writeJSON(w, req)
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/mag/suspend", func(w http.ResponseWriter, r *http.Request) {
		lifecycleAction(w, r, mag, func(m MagController) error { return m.Suspend() })
	})
	mux.HandleFunc("/api/mag/resume", func(w http.ResponseWriter, r *http.Request) {
		lifecycleAction(w, r, mag, func(m MagController) error { return m.Resume() })
	})

	mux.HandleFunc("/api/poll/interval", func(w http.ResponseWriter, r *http.Request) {
		if poll == nil {
			http.Error(w, "poller unavailable", http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, intervalBody{Interval: poll.Interval().String()})
		case http.MethodPost:
			var req intervalBody
			if !decodeBody(w, r, &req) {
				return
			}
			d, err := time.ParseDuration(strings.TrimSpace(req.Interval))
			if err != nil {
				http.Error(w, "interval must be a duration like 150ms", http.StatusBadRequest)
				return
			}
			if err := poll.SetInterval(d); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, intervalBody{Interval: poll.Interval().String()})
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	if logs != nil {
		mux.Handle("/api/logs", logs.Handler())
	}

	mux.Handle("/api/about", AboutHandler())
	mux.Handle("/api/stream", StreamHandler(samples))

	return mux
}

type enableBody struct {
	Enable *bool `json:"enable"`
}

type drModeBody struct {
	DRMode *int `json:"dr_mode"`
}

type intervalBody struct {
	Interval string `json:"interval"`
}

func lifecycleAction(w http.ResponseWriter, r *http.Request, mag MagController, fn func(MagController) error) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if mag == nil {
		http.Error(w, "mag unavailable", http.StatusNotFound)
		return
	}
	if err := fn(mag); err != nil {
		writeMagError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{\"ok\":true}\n"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeMagError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mag3110.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, mag3110.ErrTransport):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func Serve(ctx context.Context, listenAddr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
