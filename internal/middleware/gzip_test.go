package middleware_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/loyalty-client/internal/crmstub"
	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/envelope"
	"github.com/mmeshcher/loyalty-client/internal/handler"
	"github.com/mmeshcher/loyalty-client/internal/middleware"
)

func newCRMRouter(t *testing.T) http.Handler {
	t.Helper()

	seed, err := demo.DefaultSeed()
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}

	backend := crmstub.NewBackend(seed.Available, zap.NewNop(), crmstub.WithBcryptCost(bcrypt.MinCost))
	if err := backend.Seed("91234567", "secret1", seed); err != nil {
		t.Fatalf("seed backend: %v", err)
	}

	h := handler.NewHandler(backend, zap.NewNop(), middleware.NewAuthMiddleware("test-secret"), nil)
	return h.SetupRouter()
}

func gzipBody(t *testing.T, s string) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(s)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return &buf
}

func TestGzipMiddleware(t *testing.T) {
	const registerBody = `{"CUSTOMER_TEL":"92345678","PASSWORD":"pw1234","CUSTOMER_NAME":"Wong","CUSTOMER_SEX":"2"}`

	type want struct {
		statusCode      int
		contentEncoding string
		rtnCode         envelope.Status
	}

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		compressed bool
		headers    map[string]string
		want       want
	}{
		{
			name:       "compressed register, gzip accepted",
			method:     http.MethodPost,
			target:     "/ctlCRMAppAPI?action=register",
			body:       registerBody,
			compressed: true,
			headers: map[string]string{
				"Content-Encoding": "gzip",
				"Accept-Encoding":  "gzip",
				"Content-Type":     "application/json",
			},
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				rtnCode:         envelope.StatusOK,
			},
		},
		{
			name:       "compressed register, plain response",
			method:     http.MethodPost,
			target:     "/ctlCRMAppAPI?action=register",
			body:       registerBody,
			compressed: true,
			headers: map[string]string{
				"Content-Encoding": "gzip",
				"Content-Type":     "application/json",
			},
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "",
				rtnCode:         envelope.StatusOK,
			},
		},
		{
			name:   "login, gzip accepted",
			method: http.MethodGet,
			target: "/ctlCRMAppAPI?action=login&phone=91234567&password=secret1",
			headers: map[string]string{
				"Accept-Encoding": "gzip",
			},
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				rtnCode:         envelope.StatusOK,
			},
		},
		{
			name:   "wrong password, gzip accepted",
			method: http.MethodGet,
			target: "/ctlCRMAppAPI?action=login&phone=91234567&password=nope",
			headers: map[string]string{
				"Accept-Encoding": "gzip",
			},
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				rtnCode:         envelope.StatusErr,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCRMRouter(t)

			var body io.Reader = strings.NewReader(tt.body)
			if tt.compressed {
				body = gzipBody(t, tt.body)
			}

			req := httptest.NewRequest(tt.method, tt.target, body)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.want.statusCode {
				t.Fatalf("status: got %d want %d", res.StatusCode, tt.want.statusCode)
			}

			if ct := res.Header.Get("Content-Type"); ct != "application/json" {
				t.Fatalf("content-type: got %q want application/json", ct)
			}

			if ce := res.Header.Get("Content-Encoding"); ce != tt.want.contentEncoding {
				t.Fatalf("content-encoding: got %q want %q", ce, tt.want.contentEncoding)
			}

			var raw []byte
			var err error
			if res.Header.Get("Content-Encoding") == "gzip" {
				gr, err := gzip.NewReader(res.Body)
				if err != nil {
					t.Fatalf("new gzip reader: %v", err)
				}
				defer gr.Close()
				raw, err = io.ReadAll(gr)
				if err != nil {
					t.Fatalf("read gzip body: %v", err)
				}
			} else {
				raw, err = io.ReadAll(res.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
			}

			env, err := envelope.Decode(raw)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.Code != tt.want.rtnCode {
				t.Fatalf("RTN_CODE: got %s want %s", env.Code, tt.want.rtnCode)
			}
		})
	}
}

func TestGzipMiddleware_CorruptBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/ctlCRMAppAPI?action=register", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")

	w := httptest.NewRecorder()
	newCRMRouter(t).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", w.Code, http.StatusBadRequest)
	}
}
