package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// AuthService authenticates workers and issues their tokens.
type AuthService struct {
	workers  repository.WorkerRepository
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	WorkerRepo repository.WorkerRepository
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		workers:  deps.WorkerRepo,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		logger:   logger,
	}
}

// Login verifies the worker's password and returns a bearer token.
// Unknown emails, inactive workers and wrong passwords look the same.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Worker, string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password required", nil)
	}
	worker, err := s.workers.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !worker.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(worker.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", zap.String("worker_id", worker.ID))
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(worker)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return worker, token, exp, nil
}

// IssueToken mints a token for an existing worker without a password check.
// Used by operator tooling.
func (s *AuthService) IssueToken(ctx context.Context, workerID string) (string, time.Time, error) {
	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		return "", time.Time{}, translateLookup(err, "worker", map[string]any{"worker_id": workerID})
	}
	token, exp, err := s.tokenMgr.GenerateToken(worker)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
