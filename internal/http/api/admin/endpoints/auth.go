package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/db"
	"github.com/Andes-Streaming/cartwall/internal/http/api"
	"github.com/Andes-Streaming/cartwall/internal/http/api/admin/packets"
	"github.com/Andes-Streaming/cartwall/internal/http/middleware"
	"github.com/Andes-Streaming/cartwall/internal/model"
)

type AuthController struct {
	secret string
	store  db.Store
}

func NewAuthController(secret string, store db.Store) *AuthController {
	return &AuthController{secret: secret, store: store}
}

// AuthPublicModule mounts signup/login, reachable without a token.
func AuthPublicModule(secret string, store db.Store) api.Module {
	ctl := NewAuthController(secret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PublicPOST("/auth/signup", ctl.signup)
		c.PublicPOST("/auth/login", ctl.login)
	})
}

// AuthSessionModule mounts the endpoints that need an authenticated user.
func AuthSessionModule(secret string, store db.Store) api.Module {
	ctl := NewAuthController(secret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", ctl.currentProfile)
		c.PUT("/auth/current_profile", ctl.updateProfile)
	})
}

func (a *AuthController) signup(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SignupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not hash password"}
	}

	id, err := a.store.CreateUser(ctx.Request.Context(), request.Email, hashed, request.Name)
	if err != nil {
		log.Error().Err(err).Str("email", request.Email).Msg("signup failed")
		return nil, &api.APIError{Code: http.StatusConflict, Message: "could not create user"}
	}

	token, err := middleware.GenerateJWT(id, a.secret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not issue token"}
	}
	return packets.TokenResponse{Token: token}, nil
}

func (a *AuthController) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	user, err := a.store.GetUserByEmail(ctx.Request.Context(), request.Email)
	if err != nil || !middleware.CheckPassword(user.HashedPassword, request.Password) {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(user.ID, a.secret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not issue token"}
	}
	return packets.TokenResponse{Token: token}, nil
}

func (a *AuthController) currentProfile(_ *gin.Context, user *model.User) (any, *api.APIError) {
	return packets.UserResponse{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

func (a *AuthController) updateProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	email := user.Email
	if request.Email != nil {
		email = *request.Email
	}
	name := user.Name
	if request.Name != nil {
		name = request.Name
	}

	if err := a.store.UpdateUserProfile(ctx.Request.Context(), user.ID, email, name); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update profile"}
	}
	return packets.UserResponse{ID: user.ID, Email: email, Name: name}, nil
}
