package monitor

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/jetreco/internal/httputil"
	"github.com/banshee-data/jetreco/internal/jets/l4pileup"
	"github.com/banshee-data/jetreco/internal/jets/pipeline"
	"github.com/banshee-data/jetreco/internal/jets/storage/sqlite"
	"github.com/banshee-data/jetreco/internal/security"
)

// RouterConfig selects what the router exposes. Nil fields disable their
// routes.
type RouterConfig struct {
	Gatherer prometheus.Gatherer
	Store    *sqlite.JetStore
	Stats    *ProductionStats
	PlotDir  string // root passed to PlotPath
}

// NewRouter builds the monitoring HTTP handler:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/stats
//	GET    /api/events?instance=NAME
//	GET    /api/events/{instance}/{run}/{event}
//	GET    /api/events/{eventID}/jets
//	GET    /api/events/{eventID}/rings
//	DELETE /api/events/{eventID}
//	GET    /plots/{instance}/{file}
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.NotFound(w, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.MethodNotAllowed(w)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Stats != nil {
		r.Get("/api/stats", statsHandler(cfg.Stats))
	}
	if cfg.Store != nil {
		h := &eventHandlers{store: cfg.Store}
		r.Route("/api/events", func(er chi.Router) {
			er.Get("/", h.list)
			er.Get("/{instance}/{run}/{event}", h.get)
			er.Get("/{eventID}/jets", h.jets)
			er.Get("/{eventID}/rings", h.rings)
			er.Delete("/{eventID}", h.delete)
		})
	}
	if cfg.PlotDir != "" {
		r.Get("/plots/{instance}/{file}", plotHandler(cfg.PlotDir))
	}
	return r
}

func plotHandler(root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		if filepath.Ext(file) != ".png" {
			httputil.NotFound(w, "not a plot")
			return
		}
		path := filepath.Join(PlotPath(root, chi.URLParam(r, "instance")), file)
		if err := security.ValidatePathWithinDirectory(path, root); err != nil {
			httputil.BadRequest(w, "invalid plot path")
			return
		}
		if _, err := os.Stat(path); err != nil {
			httputil.NotFound(w, "plot not found")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, path)
	}
}

func statsHandler(stats *ProductionStats) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSONOK(w, map[string]interface{}{
			"uptime_seconds": stats.GetUptime().Seconds(),
			"latest":         stats.GetLatestSnapshot(),
		})
	}
}

type eventHandlers struct {
	store *sqlite.JetStore
}

func (h *eventHandlers) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEvents(r.URL.Query().Get("instance"))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if events == nil {
		events = []*sqlite.EventRecord{}
	}
	httputil.WriteJSONOK(w, events)
}

func (h *eventHandlers) get(w http.ResponseWriter, r *http.Request) {
	run, err := strconv.ParseUint(chi.URLParam(r, "run"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid run number")
		return
	}
	event, err := strconv.ParseUint(chi.URLParam(r, "event"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid event number")
		return
	}
	ev, err := h.store.GetEvent(chi.URLParam(r, "instance"), pipeline.EventID{Run: run, Event: event})
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, ev)
}

func (h *eventHandlers) jets(w http.ResponseWriter, r *http.Request) {
	jets, err := h.store.Jets(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if jets == nil {
		jets = []*sqlite.JetRecord{}
	}
	httputil.WriteJSONOK(w, jets)
}

func (h *eventHandlers) rings(w http.ResponseWriter, r *http.Request) {
	rings, err := h.store.RingStats(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if rings == nil {
		rings = []l4pileup.RingStats{}
	}
	httputil.WriteJSONOK(w, rings)
}

func (h *eventHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteEvent(chi.URLParam(r, "eventID")); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
