// Package httpapi serves the decoder over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/qrcode"
)

// RequestIDHeader carries the ID assigned to every request.
const RequestIDHeader = "X-Request-ID"

// Server holds what the handlers share. Decoding keeps no state between
// requests, so one Server serves any number of concurrent requests.
type Server struct {
	reader         *qrcode.Reader
	options        qrscan.DecodeOptions
	maxUploadBytes int64
	logger         *log.Logger
}

// NewServer creates a Server decoding with opts as the base options.
// Requests may override some of them through query parameters.
func NewServer(opts qrscan.DecodeOptions, maxUploadBytes int64, logger *log.Logger) *Server {
	return &Server{
		reader:         qrcode.NewReader(),
		options:        opts,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// NewRouter returns the routes of s.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/v1/decode", s.DecodeImageHandler).Methods("POST")
	r.HandleFunc("/v1/decode/rgba/{width:[0-9]+}x{height:[0-9]+}", s.DecodeRGBAHandler).Methods("POST")
	return r
}

type requestIDKey struct{}

// RequestID returns the ID assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(RequestIDHeader, id)
		s.logger.Printf("%s %s %s (%d bytes)", id, r.Method, r.URL.Path, r.ContentLength)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}
