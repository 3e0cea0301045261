// Package server exposes configured datasets over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/beetlebugorg/geostream/internal/config"
	"github.com/beetlebugorg/geostream/pkg/geostream"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Server holds the configuration and the collection cache shared by all
// handlers.
type Server struct {
	Config *config.Config
	Cache  *geostream.CollectionCache
	Decode geostream.DecodeOptions

	// Context bounds cache loads. A load started by a request outlives
	// that request so the collection still reaches the cache.
	Context context.Context
}

// NewServer creates a server for cfg with a cache of cfg.CacheSize bytes.
func NewServer(cfg *config.Config, decode geostream.DecodeOptions) *Server {
	return &Server{
		Config:  cfg,
		Cache:   geostream.NewCollectionCache(cfg.CacheSize),
		Decode:  decode,
		Context: context.Background(),
	}
}

// Router returns the routes without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/datasets", s.HandleDatasetList).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{name}", s.HandleDataset).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{name}/features", s.HandleFeatures).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{name}/stream", s.HandleStream).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{name}/ws", s.HandleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/cache", s.HandleCacheStats).Methods(http.MethodGet)
	return r
}

// Handler returns the routes wrapped in request logging, CORS and
// response compression.
func (s *Server) Handler() http.Handler {
	headersOk := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions})

	h := handlers.CompressHandler(s.Router())
	h = handlers.CORS(originsOk, headersOk, methodsOk)(h)
	return RequestLogger(h)
}

// Preload loads every configured dataset into the cache. Failures are
// logged and returned; the datasets stay loadable on demand.
func (s *Server) Preload(ctx context.Context) []error {
	var errs []error
	for _, ds := range s.Config.Datasets {
		coll, err := s.Cache.Get(ds.Name, func() (*geostream.Collection, error) {
			return geostream.Load(ctx, ds.Path, s.Decode)
		})
		if err != nil {
			log.Warn().Err(err).Str("dataset", ds.Name).Msg("Preload failed")
			errs = append(errs, err)
			continue
		}
		log.Info().
			Str("dataset", ds.Name).
			Int("features", coll.FeatureCount()).
			Msg("Dataset loaded")
	}
	return errs
}
