package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/beetlebugorg/geostream/internal/config"
	"github.com/beetlebugorg/geostream/pkg/geostream"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const geoJSONContentType = "application/geo+json"

type datasetInfo struct {
	Name   string `json:"name"`
	Cached bool   `json:"cached"`
}

// HandleDatasetList serves the configured dataset names.
func (s *Server) HandleDatasetList(w http.ResponseWriter, r *http.Request) {
	cached := make(map[string]bool)
	for _, name := range s.Cache.Names() {
		cached[name] = true
	}

	list := make([]datasetInfo, len(s.Config.Datasets))
	for i, ds := range s.Config.Datasets {
		list[i] = datasetInfo{Name: ds.Name, Cached: cached[ds.Name]}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleDataset serves a whole dataset as a FeatureCollection.
func (s *Server) HandleDataset(w http.ResponseWriter, r *http.Request) {
	coll, ok := s.collection(w, r)
	if !ok {
		return
	}
	s.writeFeatures(w, coll.Features())
}

// HandleFeatures serves the features intersecting ?bbox=minx,miny,maxx,maxy.
func (s *Server) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	bbox := r.URL.Query().Get("bbox")
	if bbox == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing bbox parameter"))
		return
	}
	bounds, err := geostream.ParseBounds(bbox)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	coll, ok := s.collection(w, r)
	if !ok {
		return
	}
	s.writeFeatures(w, coll.FeaturesInBounds(bounds))
}

// HandleCacheStats serves the collection cache statistics.
func (s *Server) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := s.Cache.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"collections":  stats.CollectionCount,
		"used_memory":  stats.UsedMemory,
		"max_memory":   stats.MaxMemory,
		"total_access": stats.TotalAccess,
		"names":        s.Cache.Names(),
	})
}

func (s *Server) writeFeatures(w http.ResponseWriter, features []*geostream.Feature) {
	w.Header().Set("Content-Type", geoJSONContentType)
	// Ignoring error as we cannot handle client disconnects
	_ = geostream.WriteFeatureCollection(w, features)
}

// dataset resolves the {name} route variable, answering 404 itself.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (config.Dataset, bool) {
	name := mux.Vars(r)["name"]
	ds, ok := s.Config.Dataset(name)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown dataset "+name))
	}
	return ds, ok
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (*geostream.Collection, bool) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return nil, false
	}

	coll, err := s.Cache.Get(ds.Name, func() (*geostream.Collection, error) {
		return geostream.Load(s.Context, ds.Path, s.Decode)
	})
	if err != nil {
		log.Error().Err(err).Str("dataset", ds.Name).Msg("Failed to load dataset")
		writeError(w, loadStatus(err), err)
		return nil, false
	}
	return coll, true
}

func loadStatus(err error) int {
	if errors.Is(err, os.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
