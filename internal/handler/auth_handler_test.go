package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/foodgram/internal/auth"
	"github.com/hitoshi/foodgram/internal/model"
)

// --- POST /api/users テスト ---

func TestAuthHandler_Register_Created(t *testing.T) {
	var got auth.RegisterInput
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			got = in
			return &model.User{ID: "u-9", Email: in.Email, Username: in.Username, FirstName: in.FirstName, LastName: in.LastName}, nil
		},
	}
	h := NewAuthHandler(svc)

	body := `{"email":"vasya@example.com","username":"vasya","first_name":"Vasya","last_name":"Pupkin","password":"s3cret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got.Password != "s3cret-pass" || got.FirstName != "Vasya" {
		t.Errorf("service received %+v", got)
	}

	var resp userResponse
	decodeBody(t, w, &resp)
	if resp.ID != "u-9" || resp.Username != "vasya" || resp.IsSubscribed {
		t.Errorf("response = %+v", resp)
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{"))
	w := httptest.NewRecorder()

	h.Register(w, req)

	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidRequest)
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			return nil, model.NewUserAlreadyExistsError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"email":"a@b.c"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeUserAlreadyExists)
}

// --- POST /api/auth/token/login テスト ---

func TestAuthHandler_Login_ReturnsToken(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.AuthToken, error) {
			if email != "cook@example.com" || password != "pw-12345678" {
				t.Errorf("Login(%q, %q)", email, password)
			}
			return &model.AuthToken{Key: "abc123"}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/login",
		strings.NewReader(`{"email":"cook@example.com","password":"pw-12345678"}`))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp tokenResponse
	decodeBody(t, w, &resp)
	if resp.AuthToken != "abc123" {
		t.Errorf("auth_token = %q, want %q", resp.AuthToken, "abc123")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.AuthToken, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/login",
		strings.NewReader(`{"email":"cook@example.com","password":"wrong"}`))
	w := httptest.NewRecorder()

	h.Login(w, req)

	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeInvalidCredentials)
}

// --- POST /api/auth/token/logout テスト ---

func TestAuthHandler_Logout_WithoutToken_ReturnsUnauthorized(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	assertErrorCode(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

// --- POST /api/users/set_password テスト ---

func TestAuthHandler_SetPassword(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusNoContent},
		{"wrong current password", model.NewValidationError("current_password", "一致しません"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				setPasswordFn: func(ctx context.Context, userID, current, next string) error {
					if userID != testUser.ID || current != "old-password" || next != "new-password" {
						t.Errorf("SetPassword(%q, %q, %q)", userID, current, next)
					}
					return tt.err
				},
			}
			h := NewAuthHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/users/set_password",
				strings.NewReader(`{"current_password":"old-password","new_password":"new-password"}`))
			req = withUser(req, testUser)
			w := httptest.NewRecorder()

			h.SetPassword(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthHandler_SetPassword_Anonymous(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/users/set_password", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.SetPassword(w, req)

	assertErrorCode(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}
