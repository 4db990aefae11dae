// Package remotetest provides an in-process stand-in for the shared remote
// document endpoint.
package remotetest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// Option configures a Server.
type Option func(*Server)

// WithETag makes the server report a version on reads and honour If-Match
// on writes.
func WithETag() Option {
	return func(s *Server) { s.etag = true }
}

// WithBody seeds the document verbatim.
func WithBody(raw string) Option {
	return func(s *Server) { s.body = []byte(raw) }
}

// Server is a fake document endpoint. The zero document is "[]".
type Server struct {
	mu        sync.Mutex
	srv       *httptest.Server
	body      []byte
	version   int
	etag      bool
	failCode  int
	putFail   int
	gets      int
	puts      int
	lastQuery string
	beforePut func()
}

// New starts a server. Call Close when done.
func New(opts ...Option) *Server {
	s := &Server{body: []byte("[]")}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// URL returns the document URL.
func (s *Server) URL() string { return s.srv.URL + "/doc" }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// SetRecords replaces the document with records.
func (s *Server) SetRecords(records []model.Evaluation) {
	b, err := json.Marshal(records)
	if err != nil {
		panic(err)
	}
	s.SetBody(string(b))
}

// SetBody replaces the document verbatim.
func (s *Server) SetBody(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = []byte(raw)
	s.version++
}

// Body returns the current document bytes.
func (s *Server) Body() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.body...)
}

// Records decodes the current document.
func (s *Server) Records() []model.Evaluation {
	var out []model.Evaluation
	if err := json.Unmarshal(s.Body(), &out); err != nil {
		panic(err)
	}
	return out
}

// FailWith makes every request answer code until Recover is called.
func (s *Server) FailWith(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCode = code
}

// Recover undoes FailWith.
func (s *Server) Recover() { s.FailWith(0) }

// FailPutsWith makes writes answer code while reads keep working. Zero
// restores normal writes.
func (s *Server) FailPutsWith(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putFail = code
}

// BeforePut runs fn before each PUT is applied, outside the server lock.
func (s *Server) BeforePut(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforePut = fn
}

// Gets returns the number of GET requests served.
func (s *Server) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// Puts returns the number of PUT requests accepted.
func (s *Server) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// LastQuery returns the raw query of the last GET.
func (s *Server) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

func (s *Server) currentTag() string { return strconv.Quote("v" + strconv.Itoa(s.version)) }

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.failCode != 0 {
		code := s.failCode
		s.mu.Unlock()
		http.Error(w, "unavailable", code)
		return
	}
	hook := s.beforePut
	s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		s.gets++
		s.lastQuery = r.URL.RawQuery
		body := append([]byte(nil), s.body...)
		if s.etag {
			w.Header().Set("ETag", s.currentTag())
		}
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)

	case http.MethodPut:
		if hook != nil {
			hook()
		}
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.putFail != 0 {
			http.Error(w, "write rejected", s.putFail)
			return
		}
		if s.etag {
			if match := r.Header.Get("If-Match"); match != "" && match != s.currentTag() {
				http.Error(w, "version mismatch", http.StatusPreconditionFailed)
				return
			}
		}
		s.body = payload
		s.version++
		s.puts++
		if s.etag {
			w.Header().Set("ETag", s.currentTag())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
