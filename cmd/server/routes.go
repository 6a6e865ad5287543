package main

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/sim/world"
)

// auditQuerier is implemented by the sqlite index.
type auditQuerier interface {
	AuditsByActor(ctx context.Context, actor uint32, limit int) ([]world.AuditEntry, error)
	AuditsAt(ctx context.Context, pos world.Position, fromTick, toTick uint64) ([]world.AuditEntry, error)
}

type routes struct {
	log    logrus.FieldLogger
	ws     http.HandlerFunc
	audits auditQuerier
	tick   func() uint64
}

func (rt routes) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(rt.logRequests)

	r.Get("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", rt.ws)
		r.Get("/state", rt.handleState)
		if rt.audits != nil {
			r.Get("/audits/actor/{actor}", rt.handleAuditsByActor)
			r.Get("/audits/at/{x}/{y}/{z}", rt.handleAuditsAt)
		}
	})
	return r
}

// logRequests skips the websocket route, whose request lasts the session.
func (rt routes) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/ws" {
			next.ServeHTTP(rw, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(rw, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		rt.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("http request")
	})
}

func (rt routes) handleState(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{"tick": rt.tick()})
}

func (rt routes) handleAuditsByActor(rw http.ResponseWriter, r *http.Request) {
	actor, err := strconv.ParseUint(chi.URLParam(r, "actor"), 10, 32)
	if err != nil {
		http.Error(rw, "bad actor", http.StatusBadRequest)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(rw, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	out, err := rt.audits.AuditsByActor(r.Context(), uint32(actor), limit)
	if err != nil {
		rt.log.WithError(err).Warn("audits by actor")
		http.Error(rw, "index query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"audits": nonNil(out)})
}

func (rt routes) handleAuditsAt(rw http.ResponseWriter, r *http.Request) {
	var pos world.Position
	for _, p := range []struct {
		name string
		dst  *int
	}{{"x", &pos.X}, {"y", &pos.Y}, {"z", &pos.Z}} {
		n, err := strconv.Atoi(chi.URLParam(r, p.name))
		if err != nil {
			http.Error(rw, "bad "+p.name, http.StatusBadRequest)
			return
		}
		*p.dst = n
	}
	from, to := uint64(0), uint64(math.MaxInt64)
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		n, err := strconv.ParseUint(v, 10, 63)
		if err != nil {
			http.Error(rw, "bad from", http.StatusBadRequest)
			return
		}
		from = n
	}
	if v := q.Get("to"); v != "" {
		n, err := strconv.ParseUint(v, 10, 63)
		if err != nil {
			http.Error(rw, "bad to", http.StatusBadRequest)
			return
		}
		to = n
	}
	out, err := rt.audits.AuditsAt(r.Context(), pos, from, to)
	if err != nil {
		rt.log.WithError(err).Warn("audits at")
		http.Error(rw, "index query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"audits": nonNil(out)})
}

func nonNil(in []world.AuditEntry) []world.AuditEntry {
	if in == nil {
		return []world.AuditEntry{}
	}
	return in
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
