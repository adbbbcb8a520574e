package service

import (
	"context"
	"errors"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ledger/internal/model"
	"ledger/internal/repo"
	"ledger/internal/utils"
)

// AuthService issues and revokes access tokens. Signup creates the user and
// its paired account in one transaction, seeding the balance randomly.
type AuthService interface {
	Signup(ctx context.Context, in model.SignupInput) (model.AuthOutput, error)
	Login(ctx context.Context, in model.LoginInput) (model.AuthOutput, error)
	Logout(ctx context.Context, userID int64) error
}

type authService struct {
	users  repo.UserRepository
	tokens repo.TokenStore
	tm     *utils.TokenManager
	logger *zap.SugaredLogger
}

func NewAuthService(users repo.UserRepository, tokens repo.TokenStore, tm *utils.TokenManager, logger *zap.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		tm:     tm,
		logger: logger.Sugar(),
	}
}

func (a *authService) Signup(ctx context.Context, in model.SignupInput) (model.AuthOutput, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.AuthOutput{}, err
	}

	seed := 1 + rand.Int63n(100_000)
	userID, err := a.users.Create(ctx, in, string(hash), seed)
	if err != nil {
		return model.AuthOutput{}, err
	}

	out, err := a.issue(ctx, userID)
	if err != nil {
		return model.AuthOutput{}, err
	}
	a.logger.Infow("signup", "user_id", userID)
	return out, nil
}

func (a *authService) Login(ctx context.Context, in model.LoginInput) (model.AuthOutput, error) {
	user, err := a.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.AuthOutput{}, model.ErrInvalidCredentials
		}
		return model.AuthOutput{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return model.AuthOutput{}, model.ErrInvalidCredentials
	}

	out, err := a.issue(ctx, user.ID)
	if err != nil {
		return model.AuthOutput{}, err
	}
	a.logger.Infow("login", "user_id", user.ID)
	return out, nil
}

func (a *authService) issue(ctx context.Context, userID int64) (model.AuthOutput, error) {
	token, err := a.tm.Generate(userID)
	if err != nil {
		return model.AuthOutput{}, err
	}
	if err := a.tokens.SaveToken(ctx, userID, token, a.tm.TTL()); err != nil {
		return model.AuthOutput{}, err
	}
	return model.AuthOutput{UserID: userID, AccessToken: token}, nil
}

func (a *authService) Logout(ctx context.Context, userID int64) error {
	if err := a.tokens.DeleteToken(ctx, userID); err != nil {
		a.logger.Errorw("logout", "user_id", userID, "error", err)
		return err
	}
	a.logger.Infow("logout", "user_id", userID)
	return nil
}
