package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/matzehuels/glitchimage/pkg/cache"
	"github.com/matzehuels/glitchimage/pkg/pipeline"
)

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 220, 255
	}
	img.SetNRGBA(3, 3, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(New(pipeline.NewRunner(fc, nil, nil), cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, u string) *http.Response {
	t.Helper()
	resp, err := http.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Config{})
	resp := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, Config{})
	resp := get(t, srv.URL+"/?src="+url.QueryEscape("https://x/a.png")+"&disabled-noise")
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `<img src="/stream?`) {
		t.Errorf("index page = %s", data)
	}
}

func TestRenderGIF(t *testing.T) {
	imgs := imageServer(t)
	srv := newTestServer(t, Config{})
	u := srv.URL + "/render.gif?seed=5&frames=4&src=" + url.QueryEscape(imgs.URL+"/img.png")

	resp := get(t, u)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("X-Cache = %q, want miss", resp.Header.Get("X-Cache"))
	}
	g, err := gif.DecodeAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Image) != 4 {
		t.Errorf("frames = %d, want 4", len(g.Image))
	}

	if again := get(t, u); again.Header.Get("X-Cache") != "hit" {
		t.Errorf("second X-Cache = %q, want hit", again.Header.Get("X-Cache"))
	}
}

func TestRenderErrors(t *testing.T) {
	imgs := imageServer(t)
	srv := newTestServer(t, Config{})

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"local path refused", "src=/etc/passwd.png", http.StatusBadRequest, "INVALID_INPUT"},
		{"missing src", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"unsupported extension", "src=" + url.QueryEscape(imgs.URL+"/file.txt"), http.StatusBadGateway, "LOAD_ERROR"},
		{"not found", "src=" + url.QueryEscape(imgs.URL+"/gone.png"), http.StatusBadGateway, "LOAD_ERROR"},
		{"bad background", "background=red&src=" + url.QueryEscape(imgs.URL+"/img.png"), http.StatusBadRequest, "INVALID_COLOR"},
		{"auto without width", "auto&src=" + url.QueryEscape(imgs.URL+"/img.png"), http.StatusBadRequest, "CONFIGURATION_ERROR"},
		{"bad seed", "seed=x&src=" + url.QueryEscape(imgs.URL+"/img.png"), http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv.URL+"/render.gif?frames=1&"+tt.query)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body map[string]string
			json.NewDecoder(resp.Body).Decode(&body)
			if body["code"] != tt.code {
				t.Errorf("code = %q, want %q (%s)", body["code"], tt.code, body["error"])
			}
		})
	}
}

func TestOversizedRequestsRejected(t *testing.T) {
	imgs := imageServer(t)
	src := url.QueryEscape(imgs.URL + "/img.png")
	srv := newTestServer(t, Config{MaxRenderPixels: 16 * 8 * 10})

	tests := []struct {
		name string
		path string
	}{
		{"render surface", "/render.gif?frames=1&auto&width=8192&src=" + src},
		{"render frame budget", "/render.gif?frames=11&src=" + src},
		{"stream surface", "/stream?frames=1&auto&width=8192&src=" + src},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv.URL+tt.path)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
			var body map[string]string
			json.NewDecoder(resp.Body).Decode(&body)
			if body["code"] != "INVALID_INPUT" {
				t.Errorf("code = %q, want INVALID_INPUT (%s)", body["code"], body["error"])
			}
		})
	}

	resp := get(t, srv.URL+"/render.gif?frames=10&src="+src)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("render within budget: status = %d", resp.StatusCode)
	}
}

func TestStream(t *testing.T) {
	imgs := imageServer(t)
	srv := newTestServer(t, Config{FPS: 60})
	resp := get(t, srv.URL+"/stream?frames=3&src="+url.QueryEscape(imgs.URL+"/img.png"))
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Stream-ID") == "" {
		t.Error("missing X-Stream-ID")
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" {
		t.Fatalf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	mr := multipart.NewReader(resp.Body, params["boundary"])
	parts := 0
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		img, err := jpeg.Decode(p)
		if err != nil {
			t.Fatalf("part %d: %v", parts, err)
		}
		if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
			t.Errorf("frame = %v, want 16x8", b)
		}
		parts++
	}
	if parts != 3 {
		t.Errorf("parts = %d, want 3", parts)
	}
}

func TestStreamLimit(t *testing.T) {
	s := New(pipeline.NewRunner(nil, nil, nil), Config{MaxStreams: 1})
	if !s.acquire() {
		t.Fatal("first acquire failed")
	}
	if s.acquire() {
		t.Error("second acquire should fail")
	}

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	resp := get(t, srv.URL+"/stream?src="+url.QueryEscape("https://example.invalid/a.png"))
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}

	s.release()
	if !s.acquire() {
		t.Error("acquire after release failed")
	}
}
