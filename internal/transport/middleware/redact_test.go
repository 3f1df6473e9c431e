package middleware

import (
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("redaction", func() {
	It("masks sensitive keys at any depth", func() {
		out := redactBody([]byte(`{"username":"u","password":"p","nested":{"apiKey":"k","items":[{"refresh_token":"r","symbol":"AAPL"}]}}`))

		var doc map[string]any
		Expect(json.Unmarshal([]byte(out), &doc)).To(Succeed())
		Expect(doc["username"]).To(Equal("u"))
		Expect(doc["password"]).To(Equal(redacted))
		nested := doc["nested"].(map[string]any)
		Expect(nested["apiKey"]).To(Equal(redacted))
		item := nested["items"].([]any)[0].(map[string]any)
		Expect(item["refresh_token"]).To(Equal(redacted))
		Expect(item["symbol"]).To(Equal("AAPL"))
	})

	It("drops non-JSON bodies that mention a secret", func() {
		Expect(redactBody([]byte("password=hunter2"))).To(ContainSubstring(redacted))
		Expect(redactBody([]byte("plain text"))).To(Equal("plain text"))
		Expect(redactBody(nil)).To(BeEmpty())
	})

	It("masks credential headers", func() {
		h := http.Header{}
		h.Set("Authorization", "Bearer abc")
		h.Set("Cookie", "remix=xyz")
		h.Set("Accept", "application/json")

		out := redactHeaders(h)
		Expect(out["Authorization"]).To(Equal(redacted))
		Expect(out["Cookie"]).To(Equal(redacted))
		Expect(out["Accept"]).To(Equal("application/json"))
	})
})
