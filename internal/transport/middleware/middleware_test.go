package middleware_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/transport"
	"github.com/alphawing/brokerage/internal/transport/middleware"
	"github.com/alphawing/brokerage/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("RequestID", func() {
	It("should mint an id when none is sent", func() {
		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = middleware.RequestIDFromContext(r.Context())
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(seen).NotTo(BeEmpty())
		Expect(w.Header().Get(middleware.RequestIDHeader)).To(Equal(seen))
	})

	It("should keep an incoming id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		middleware.RequestID(ok).ServeHTTP(w, req)
		Expect(w.Header().Get(middleware.RequestIDHeader)).To(Equal("abc-123"))
	})
})

var _ = Describe("Recovery", func() {
	It("should answer 500 in the error envelope", func() {
		h := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		var body map[string]map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["error"]["type"]).To(Equal("INTERNAL_ERROR"))
		Expect(w.Body.String()).NotTo(ContainSubstring("boom"))
	})
})

var _ = Describe("CORS", func() {
	handler := middleware.CORS([]string{"https://app.example.com"})(ok)

	It("should reflect an allowed origin", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example.com"))
		Expect(w.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
	})

	It("should ignore other origins", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("should answer preflight requests", func() {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "PUT")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(w.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring("PUT"))
	})

	It("should allow any origin with a wildcard", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		middleware.CORS([]string{"*"})(ok).ServeHTTP(w, req)
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})
})

var _ = Describe("IPRateLimiter", func() {
	It("should refuse requests beyond the burst", func() {
		limiter := middleware.NewIPRateLimiter(0.001, 2, transport.NewBaseHandler(logger.Discard()))
		h := limiter.Middleware(ok)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}
		Expect(codes).To(Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}))

		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrorTypeRateLimited)))
		Expect(w.Header().Get("Retry-After")).To(Equal("1"))

		req = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:5555"
		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should not trust a forwarded header from an untrusted peer", func() {
		limiter := middleware.NewIPRateLimiter(0.001, 1, transport.NewBaseHandler(logger.Discard()))
		resolver, err := middleware.NewClientIPResolver(nil)
		Expect(err).NotTo(HaveOccurred())
		h := resolver.Middleware(limiter.Middleware(ok))

		throttled := 0
		for i := 0; i < 50; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "203.0.113.9:5555"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code == http.StatusTooManyRequests {
				throttled++
			}
		}
		Expect(throttled).To(Equal(49))
	})
})

var _ = Describe("Metrics", func() {
	It("should count requests by route pattern", func() {
		reg := prometheus.NewRegistry()
		metrics := middleware.NewMetrics(reg)

		r := chi.NewRouter()
		r.Use(metrics.Instrument)
		r.Get("/symbols/{id}", ok)

		for _, path := range []string{"/symbols/1", "/symbols/2"} {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		}

		families, err := reg.Gather()
		Expect(err).NotTo(HaveOccurred())

		var found bool
		for _, mf := range families {
			if mf.GetName() != "http_requests_total" {
				continue
			}
			Expect(mf.GetMetric()).To(HaveLen(1))
			m := mf.GetMetric()[0]
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			Expect(labels).To(HaveKeyWithValue("path", "/symbols/{id}"))
			Expect(labels).To(HaveKeyWithValue("status", "200"))
			Expect(m.GetCounter().GetValue()).To(Equal(2.0))
			found = true
		}
		Expect(found).To(BeTrue())
	})
})

var _ = Describe("Logging", func() {
	It("should pass the body through untouched", func() {
		var got string
		h := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			got = body["password"]
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"u","password":"hunter2"}`)))
		Expect(got).To(Equal("hunter2"))
		Expect(w.Code).To(Equal(http.StatusCreated))
	})
})

var _ = Describe("ClientIPResolver", func() {
	request := func(remote string, forwarded ...string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		for _, f := range forwarded {
			req.Header.Add("X-Forwarded-For", f)
		}
		return req
	}

	It("should use the peer address by default", func() {
		resolver, err := middleware.NewClientIPResolver(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resolver.Resolve(request("203.0.113.9:5555", "198.51.100.1"))).To(Equal("203.0.113.9"))
	})

	It("should take the right-most untrusted hop behind a trusted proxy", func() {
		resolver, err := middleware.NewClientIPResolver([]string{"10.0.0.0/8", "192.0.2.1"})
		Expect(err).NotTo(HaveOccurred())

		Expect(resolver.Resolve(request("10.1.2.3:80", "1.1.1.1, 198.51.100.7, 192.0.2.1"))).To(Equal("198.51.100.7"))
		Expect(resolver.Resolve(request("10.1.2.3:80", "1.1.1.1", "198.51.100.7"))).To(Equal("198.51.100.7"))
		Expect(resolver.Resolve(request("10.1.2.3:80"))).To(Equal("10.1.2.3"))
		Expect(resolver.Resolve(request("10.1.2.3:80", "not-an-ip"))).To(Equal("10.1.2.3"))
	})

	It("should reject malformed proxy entries", func() {
		_, err := middleware.NewClientIPResolver([]string{"10.0.0.0/99"})
		Expect(err).To(HaveOccurred())
		_, err = middleware.NewClientIPResolver([]string{"proxy.local"})
		Expect(err).To(HaveOccurred())
	})

	It("should expose the resolved address to handlers", func() {
		resolver, err := middleware.NewClientIPResolver([]string{"10.0.0.1"})
		Expect(err).NotTo(HaveOccurred())

		var seen string
		h := resolver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = transport.ClientIP(r)
		}))
		h.ServeHTTP(httptest.NewRecorder(), request("10.0.0.1:4000", "198.51.100.7"))
		Expect(seen).To(Equal("198.51.100.7"))
	})
})
