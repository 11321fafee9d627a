// Package mockapi is a small json-server-compatible data service: flat JSON
// resources behind a REST interface. It backs local development and the
// repository/store tests; the real deployment points DATA_SERVICE_URL at an
// actual data service instead.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type document map[string]interface{}

// Server holds every resource collection in memory and optionally persists
// them back to a db.json-style file after each mutation.
type Server struct {
	logger zerolog.Logger

	mu        sync.Mutex
	file      string
	resources map[string][]document
	nextID    map[string]int
}

func NewServer(logger zerolog.Logger) *Server {
	return &Server{
		logger:    logger.With().Str("component", "mockapi").Logger(),
		resources: make(map[string][]document),
		nextID:    make(map[string]int),
	}
}

// LoadFile reads a db.json file ({"courses": [...], "lessons": [...], ...})
// and persists mutations back to it.
func (s *Server) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var raw map[string][]document
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = path
	s.resources = raw
	for name, docs := range raw {
		max := 0
		for _, doc := range docs {
			if id, ok := docID(doc); ok && id > max {
				max = id
			}
		}
		s.nextID[name] = max + 1
	}
	return nil
}

// Seed installs a collection directly, for tests.
func (s *Server) Seed(resource string, docs []document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[resource] = docs
	max := 0
	for _, doc := range docs {
		if id, ok := docID(doc); ok && id > max {
			max = id
		}
	}
	s.nextID[resource] = max + 1
}

// SeedJSON is Seed from a raw JSON array.
func (s *Server) SeedJSON(resource string, data string) error {
	var docs []document
	if err := json.Unmarshal([]byte(data), &docs); err != nil {
		return err
	}
	s.Seed(resource, docs)
	return nil
}

// Handler returns the REST surface: GET /{res} (with exact-match query
// filters), GET /{res}/{id}, POST /{res}, PUT /{res}/{id} and DELETE
// /{res}/{id} answering 204 with no body.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.route)
	return mux
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		switch r.Method {
		case http.MethodGet:
			s.list(w, r, parts[0])
		case http.MethodPost:
			s.create(w, r, parts[0])
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2:
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.get(w, parts[0], id)
		case http.MethodPut:
			s.replace(w, r, parts[0], id)
		case http.MethodDelete:
			s.delete(w, parts[0], id)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.resources[resource]
	query := r.URL.Query()
	out := make([]document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, query) {
			out = append(out, doc)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, resource string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, doc := s.find(resource, id); doc != nil {
		writeJSON(w, http.StatusOK, doc)
		return
	}
	http.Error(w, "{}", http.StatusNotFound)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, resource string) {
	var doc document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextID[resource] == 0 {
		s.nextID[resource] = 1
	}
	doc["id"] = s.nextID[resource]
	s.nextID[resource]++
	s.resources[resource] = append(s.resources[resource], doc)
	s.persist()
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) replace(w http.ResponseWriter, r *http.Request, resource string, id int) {
	var doc document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, existing := s.find(resource, id)
	if existing == nil {
		http.Error(w, "{}", http.StatusNotFound)
		return
	}
	doc["id"] = id
	s.resources[resource][i] = doc
	s.persist()
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) delete(w http.ResponseWriter, resource string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.resources[resource]
	kept := docs[:0]
	for _, doc := range docs {
		if did, ok := docID(doc); !ok || did != id {
			kept = append(kept, doc)
		}
	}
	s.resources[resource] = kept
	s.persist()
	// json-server answers deletes with 204 and no body, including deletes of
	// ids that were already gone.
	w.WriteHeader(http.StatusNoContent)
}

// find returns the index and document for an id, or (-1, nil). Caller holds
// the lock.
func (s *Server) find(resource string, id int) (int, document) {
	for i, doc := range s.resources[resource] {
		if did, ok := docID(doc); ok && did == id {
			return i, doc
		}
	}
	return -1, nil
}

// persist writes the current state back to the backing file, if any. Caller
// holds the lock.
func (s *Server) persist() {
	if s.file == "" {
		return
	}
	data, err := json.MarshalIndent(s.resources, "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal state")
		return
	}
	if err := os.WriteFile(s.file, data, 0o644); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist state")
	}
}

// matches applies json-server-style exact-match query filtering: every query
// parameter must equal the document field's string form.
func matches(doc document, query map[string][]string) bool {
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		field, ok := doc[key]
		if !ok {
			return false
		}
		if fieldString(field) != values[0] {
			return false
		}
	}
	return true
}

func fieldString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; ids and foreign keys are integers
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func docID(doc document) (int, bool) {
	switch t := doc["id"].(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	default:
		return 0, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
