package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/placehub/placehub/internal/cache"
	"github.com/placehub/placehub/internal/config"
	"github.com/placehub/placehub/internal/domain/user"
	"github.com/placehub/placehub/internal/security"
	"github.com/placehub/placehub/internal/storage"
)

type UsersRepository interface {
	List(ctx context.Context) ([]user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) error
}

type TokenIssuer interface {
	IssueToken(userID, email string) (string, error)
}

const usersListCacheKey = "users:list:v1"

type UsersHandler struct {
	repo    UsersRepository
	jwt     TokenIssuer
	images  ImageStore
	cleaner ImageReleaser
	cache   cache.Store
}

func NewUsersHandler(repo UsersRepository, jwt TokenIssuer, images ImageStore, cleaner ImageReleaser, c cache.Store) *UsersHandler {
	return &UsersHandler{
		repo:    repo,
		jwt:     jwt,
		images:  images,
		cleaner: cleaner,
		cache:   c,
	}
}

// ListUsers projects every account; password hashes never serialize.
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	if h.cache != nil {
		if b, ok := h.cache.Get(ctx.Request.Context(), usersListCacheKey); ok {
			RespondDataWithETag(ctx, http.StatusOK, b)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	users, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Fetching users failed, please try again.")
		return
	}

	body, err := json.Marshal(gin.H{"users": users})

	if err != nil {
		RespondInternal(ctx, "Fetching users failed, please try again.")
		return
	}

	if h.cache != nil {
		h.cache.Set(ctx.Request.Context(), usersListCacheKey, body)
	}

	RespondDataWithETag(ctx, http.StatusOK, body)
}

func (h *UsersHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindForm(ctx, &req) {
		return
	}

	fileHeader, err := ctx.FormFile("image")

	if err != nil {
		RespondUnprocessable(ctx, invalidInputMessage)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	_, err = h.repo.GetByEmail(cctx, req.Email)

	if err == nil {
		RespondUnprocessable(ctx, "Email exists already, please enter a different email or login instead.")
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "Could not find user.")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user, please try again.")
		return
	}

	file, err := fileHeader.Open()

	if err != nil {
		RespondInternal(ctx, "User signup failed, please try again.")
		return
	}

	defer file.Close()

	imageURL, err := h.images.Save(cctx, fileHeader.Filename, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))

	if err != nil {
		// only the caller can fix a bad content type; anything else is
		// a storage failure on our side
		if errors.Is(err, storage.ErrUnsupportedType) {
			RespondUnprocessable(ctx, invalidInputMessage)
			return
		}
		RespondInternal(ctx, "User signup failed, please try again.")
		return
	}

	u := user.NewFromSignUp(req, hash, imageURL)

	err = h.repo.Create(cctx, u)

	if err != nil {
		// the stored avatar has no account row to belong to anymore
		if h.cleaner != nil {
			h.cleaner.Enqueue(imageURL)
		}

		// a concurrent signup with the same email can still lose the
		// race after the check above; that surfaces as a generic
		// failure rather than a conflict
		RespondInternal(ctx, "User signup failed, please try again.")
		return
	}

	token, err := h.jwt.IssueToken(u.ID, u.Email)

	if err != nil {
		RespondInternal(ctx, "User signup failed, please try again.")
		return
	}

	if h.cache != nil {
		h.cache.Delete(cctx, usersListCacheKey)
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"userId": u.ID,
		"email":  u.Email,
		"token":  token,
	})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	found, err := h.repo.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondAuthFailed(ctx, "No user found for entered email, please try again or sign up instead.")
			return
		}
		RespondInternal(ctx, "Could not find user.")
		return
	}

	err = security.CheckPassword(found.PasswordHash, req.Password)

	if err != nil {
		RespondAuthFailed(ctx, "Invalid email/password combination, please check your credentials and try again.")
		return
	}

	token, err := h.jwt.IssueToken(found.ID, found.Email)

	if err != nil {
		RespondInternal(ctx, "Could not log you in, please try again.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"userId": found.ID,
		"email":  found.Email,
		"token":  token,
	})
}
