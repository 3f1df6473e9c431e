package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/alphawing/brokerage/internal"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Gate", func() {
	var (
		store  *memoryStore
		tokens *TokenService
		gate   *Gate
		seen   internal.Principal
		next   http.Handler
	)

	ginkgo.BeforeEach(func() {
		store = newMemoryStore()
		tokens = newTestTokens(store)
		gate = NewGate(tokens, store, testLogger())
		seen = internal.Principal{}
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = internal.PrincipalFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})
	})

	serve := func(mw func(http.Handler) http.Handler, role Role, userID int64) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/client/all", nil)
		if role != "" {
			pair, err := tokens.Issue(Identity{ID: userID, Role: role})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		}
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Details struct {
					Missing []string `json:"missing"`
				} `json:"details"`
			} `json:"error"`
		}
		gomega.Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(gomega.Succeed())
		return body.Error.Code
	}

	ginkgo.It("admits an allowed role and exposes the principal", func() {
		w := serve(gate.Require(AllUsers), RoleDemo, 7)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(seen).To(gomega.Equal(internal.Principal{UserID: 7, Role: "demo"}))
	})

	ginkgo.It("answers 403 when no credentials are present", func() {
		w := serve(gate.Require(AllUsers), "", 0)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(errorCode(w)).To(gomega.Equal(string(internal.ErrCodeInvalidToken)))
	})

	ginkgo.It("answers 403 for a role outside the set", func() {
		w := serve(gate.Require(AdminOnly), RoleClient, 3)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(errorCode(w)).To(gomega.Equal(string(internal.ErrCodeRoleNotAllowed)))
	})

	ginkgo.It("keeps the service role out of the standard user sets", func() {
		gomega.Expect(AllUsers.Contains(RoleService)).To(gomega.BeFalse())
		gomega.Expect(AnyRole.Contains(RoleService)).To(gomega.BeTrue())
	})

	ginkgo.Context("with required permissions", func() {
		ginkgo.It("admits when every permission is granted", func() {
			store.permissions[4] = []string{"accounts:read", "accounts:write", "extra"}
			w := serve(gate.Require(AllUsers, "accounts:read", "accounts:write"), RoleClient, 4)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("lists the missing permissions", func() {
			store.permissions[4] = []string{"accounts:read"}
			w := serve(gate.Require(AllUsers, "accounts:read", "accounts:write", "accounts:delete"), RoleClient, 4)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Details struct {
						Missing []string `json:"missing"`
					} `json:"details"`
				} `json:"error"`
			}
			gomega.Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body.Error.Code).To(gomega.Equal(string(internal.ErrCodeMissingPermissions)))
			gomega.Expect(body.Error.Details.Missing).To(gomega.Equal([]string{"accounts:delete", "accounts:write"}))
		})

		ginkgo.It("reads permissions on every request", func() {
			mw := gate.Require(AllUsers, "symbols:write")
			gomega.Expect(serve(mw, RoleAdmin, 9).Code).To(gomega.Equal(http.StatusForbidden))

			store.permissions[9] = []string{"symbols:write"}
			gomega.Expect(serve(mw, RoleAdmin, 9).Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("answers 500 when permissions cannot be loaded", func() {
			store.failWith = errors.New("connection reset")
			w := serve(gate.Require(AllUsers, "x"), RoleClient, 4)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(w.Body.String()).NotTo(gomega.ContainSubstring("connection reset"))
		})
	})

	ginkgo.It("authorizes without permissions when none are required", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		pair, err := tokens.Issue(Identity{ID: 5, Role: RoleAdmin})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		r.Header.Set("Authorization", "Bearer "+pair.AccessToken)

		claims, err := gate.Authorize(r, AdminOnly, nil)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal(int64(5)))
	})
})
