package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	qrscan "github.com/ericlevine/qrscan"
	"github.com/ericlevine/qrscan/imageio"
)

type decodeResponse struct {
	RequestID string `json:"requestId"`
	*qrscan.Result
}

type errorResponse struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
	// Kind names the pipeline stage that failed, for decode failures.
	Kind string `json:"kind,omitempty"`
}

// DecodeImageHandler decodes an encoded image (PNG, JPEG, GIF, BMP, TIFF or
// WebP) posted as the request body.
func (s *Server) DecodeImageHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	img, _, err := imageio.Decode(bytes.NewReader(body))
	if errors.Is(err, imageio.ErrUnsupportedFormat) {
		s.writeError(w, r, http.StatusUnsupportedMediaType, err)
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	result, err := s.reader.DecodeImage(img, opts)
	s.writeResult(w, r, result, err)
}

// DecodeRGBAHandler decodes a raw row-major RGBA buffer whose dimensions
// are given in the path.
func (s *Server) DecodeRGBAHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	width, errW := strconv.Atoi(vars["width"])
	height, errH := strconv.Atoi(vars["height"])
	if errW != nil || errH != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("bad dimensions %sx%s", vars["width"], vars["height"]))
		return
	}
	opts, err := s.requestOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	result, err := s.reader.Decode(body, width, height, opts)
	s.writeResult(w, r, result, err)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	reader := io.Reader(r.Body)
	if s.maxUploadBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	body, err := io.ReadAll(reader)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
		return nil, false
	case err != nil:
		s.writeError(w, r, http.StatusBadRequest, err)
		return nil, false
	}
	return body, true
}

// requestOptions overlays the query parameters on the server options:
//
//	try_harder, pure, decode_urls, also_full_frame   booleans
//	inversion                                        original, invert or both
//	charset                                          character set name
//	region                                           x,y,w,h or x,y,w,h,dw,dh
func (s *Server) requestOptions(q url.Values) (*qrscan.DecodeOptions, error) {
	opts := s.options
	for name, dst := range map[string]*bool{
		"try_harder":      &opts.TryHarder,
		"pure":            &opts.PureBarcode,
		"decode_urls":     &opts.DecodeURLs,
		"also_full_frame": &opts.AlsoTryWithoutScanRegion,
	} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
	}
	if v := q.Get("inversion"); v != "" {
		mode, err := qrscan.ParseInversionMode(v)
		if err != nil {
			return nil, err
		}
		opts.Inversion = mode
	}
	if v := q.Get("charset"); v != "" {
		opts.CharacterSet = v
	}
	if v := q.Get("region"); v != "" {
		region, err := parseRegion(v)
		if err != nil {
			return nil, err
		}
		opts.ScanRegion = region
	}
	return &opts, nil
}

func parseRegion(s string) (*qrscan.ScanRegion, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 6 {
		return nil, fmt.Errorf("region %q: want x,y,w,h or x,y,w,h,dw,dh", s)
	}
	n := make([]int, 6)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return nil, fmt.Errorf("region %q: bad value %q", s, p)
		}
		n[i] = v
	}
	return &qrscan.ScanRegion{
		X: n[0], Y: n[1], Width: n[2], Height: n[3],
		DownScaledWidth: n[4], DownScaledHeight: n[5],
	}, nil
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, result *qrscan.Result, err error) {
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, decodeResponse{RequestID: RequestID(r.Context()), Result: result})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	id := RequestID(r.Context())
	s.logger.Printf("%s: %v", id, err)
	writeJSON(w, status, errorResponse{RequestID: id, Error: err.Error(), Kind: qrscan.ErrorKind(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
