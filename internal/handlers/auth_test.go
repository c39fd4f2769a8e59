package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tallerapp/vehicle-maintenance/internal/auth"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

func TestAuthHandler_Login(t *testing.T) {
	authService, err := auth.NewService()
	require.NoError(t, err)

	t.Run("successful login", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		mockSeq := new(MockSequences)
		handler := NewAuthHandler(authService, mockUsers, mockSeq)

		passwordHash, err := authService.HashPassword("password123")
		require.NoError(t, err)
		user := &models.User{
			ID:           4,
			Username:     "maria",
			Email:        "maria@example.com",
			PasswordHash: passwordHash,
			Role:         models.RoleOwner,
			IsActive:     true,
		}

		mockUsers.On("FindUserByUsername", mock.Anything, "maria").Return(user, nil)
		mockUsers.On("UpdateLastLogin", mock.Anything, int64(4)).Return(nil)

		body, _ := json.Marshal(models.LoginRequest{Username: "maria", Password: "password123"})
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, int64(4), resp.User.ID)
		mockUsers.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUsers, new(MockSequences))

		passwordHash, _ := authService.HashPassword("password123")
		user := &models.User{ID: 4, Username: "maria", PasswordHash: passwordHash, IsActive: true}
		mockUsers.On("FindUserByUsername", mock.Anything, "maria").Return(user, nil)

		body, _ := json.Marshal(models.LoginRequest{Username: "maria", Password: "wrong"})
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUsers, new(MockSequences))
		mockUsers.On("FindUserByUsername", mock.Anything, "ghost").Return(nil, errors.New("not found"))

		body, _ := json.Marshal(models.LoginRequest{Username: "ghost", Password: "password123"})
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUsers, new(MockSequences))

		passwordHash, _ := authService.HashPassword("password123")
		user := &models.User{ID: 4, Username: "maria", PasswordHash: passwordHash, IsActive: false}
		mockUsers.On("FindUserByUsername", mock.Anything, "maria").Return(user, nil)

		body, _ := json.Marshal(models.LoginRequest{Username: "maria", Password: "password123"})
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	authService, err := auth.NewService()
	require.NoError(t, err)

	t.Run("successful registration", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		mockSeq := new(MockSequences)
		handler := NewAuthHandler(authService, mockUsers, mockSeq)

		mockUsers.On("FindUserByUsername", mock.Anything, "newuser").Return(nil, errors.New("not found"))
		mockUsers.On("FindUserByEmail", mock.Anything, "new@example.com").Return(nil, errors.New("not found"))
		mockSeq.On("NextID", mock.Anything, "users").Return(int64(11), nil)
		mockUsers.On("InsertUser", mock.Anything, mock.Anything).Return(nil)

		body, _ := json.Marshal(models.RegisterRequest{
			Username: "newuser",
			Email:    "new@example.com",
			Password: "password123",
			Role:     models.RoleOwner,
		})
		req := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(11), resp.User.ID)
		assert.NotEmpty(t, resp.Token)
		mockUsers.AssertExpectations(t)
		mockSeq.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockUsers := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUsers, new(MockSequences))

		existing := &models.User{ID: 1, Username: "taken"}
		mockUsers.On("FindUserByUsername", mock.Anything, "taken").Return(existing, nil)

		body, _ := json.Marshal(models.RegisterRequest{
			Username: "taken",
			Email:    "taken@example.com",
			Password: "password123",
			Role:     models.RoleOwner,
		})
		req := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid role", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), new(MockSequences))

		body, _ := json.Marshal(models.RegisterRequest{
			Username: "newuser",
			Email:    "new@example.com",
			Password: "password123",
			Role:     "superuser",
		})
		req := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
