package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/auth"
)

func tokenFor(t *testing.T, m *auth.JWTManager, id string, role domain.Role) string {
	t.Helper()
	token, err := m.Generate(&domain.User{ID: id, Role: role})
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	other := auth.NewJWTManager("other-secret", time.Hour)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"foreign signature", "Bearer " + tokenFor(t, other, "u1", domain.RoleAdmin), http.StatusUnauthorized},
		{"valid token", "Bearer " + tokenFor(t, manager, "u1", domain.RoleOperator), http.StatusOK},
		{"lowercase scheme", "bearer " + tokenFor(t, manager, "u1", domain.RoleOperator), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domain.User
			handler := AuthMiddleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = domain.UserFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "u1", seen.ID)
				assert.Equal(t, domain.RoleOperator, seen.Role)
			}
		})
	}
}

func TestRoleGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		user   *domain.User
		status int
	}{
		{"writer without user", RequireWriter, nil, http.StatusUnauthorized},
		{"writer as partner", RequireWriter, &domain.User{ID: "p1", Role: domain.RolePartner}, http.StatusForbidden},
		{"writer as operator", RequireWriter, &domain.User{ID: "o1", Role: domain.RoleOperator}, http.StatusOK},
		{"admin as operator", RequireRole(domain.RoleAdmin), &domain.User{ID: "o1", Role: domain.RoleOperator}, http.StatusForbidden},
		{"admin as admin", RequireRole(domain.RoleAdmin), &domain.User{ID: "a1", Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.user != nil {
				req = req.WithContext(domain.ContextWithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()
			tt.guard(ok).ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRequireOwnerOrStaff(t *testing.T) {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user := &domain.User{ID: req.Header.Get("X-User"), Role: domain.Role(req.Header.Get("X-Role"))}
			next.ServeHTTP(w, req.WithContext(domain.ContextWithUser(req.Context(), user)))
		})
	})
	r.With(RequireOwnerOrStaff).Get("/wallets/{ownerId}", func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name   string
		user   string
		role   domain.Role
		status int
	}{
		{"own wallet", "p1", domain.RolePartner, http.StatusOK},
		{"foreign wallet", "p2", domain.RolePartner, http.StatusForbidden},
		{"operator", "o1", domain.RoleOperator, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/wallets/p1", nil)
			req.Header.Set("X-User", tt.user)
			req.Header.Set("X-Role", string(tt.role))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
