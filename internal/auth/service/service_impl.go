package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	authdomain "github.com/billfold/billfold/internal/auth/domain"
	"github.com/billfold/billfold/internal/auth/password"
	authordomain "github.com/billfold/billfold/internal/author/domain"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/pkg/db"
	"github.com/billfold/billfold/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLen = 8

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Config config.Config
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	sessionTTL time.Duration

	authors repository.Repository[authordomain.Author]
}

func NewService(p ServiceParam) authdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("auth.service"),
		genID:      p.GenID,
		sessionTTL: p.Config.SessionTTL,

		authors: repository.ProvideStore[authordomain.Author](p.DB),
	}
}

func (s *Service) Signup(ctx context.Context, req authdomain.SignupRequest) (authdomain.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || !strings.Contains(email, "@") {
		return authdomain.AuthResult{}, authdomain.ErrInvalidEmail
	}
	if name == "" {
		return authdomain.AuthResult{}, authdomain.ErrInvalidName
	}
	if len(req.Password) < minPasswordLen {
		return authdomain.AuthResult{}, authdomain.ErrInvalidPassword
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return authdomain.AuthResult{}, err
	}

	now := time.Now().UTC()
	user := authdomain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return authdomain.ErrUserExists
			}
			return err
		}

		// Every account gets exactly one owner author; charges default to it.
		owner := authordomain.Author{
			ID:        s.genID.Generate(),
			UserID:    user.ID,
			Name:      name,
			IsOwner:   true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		authors := s.authors.WithTrx(tx)
		if err := authors.Create(ctx, &owner); err != nil {
			if !db.IsTransientErr(err) {
				return err
			}
			s.log.Warn("owner author insert failed, retrying once", zap.Error(err))
			return authors.Create(ctx, &owner)
		}
		return nil
	})
	if err != nil {
		return authdomain.AuthResult{}, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return authdomain.AuthResult{}, err
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID.String()))
	return authdomain.AuthResult{User: user, Session: session}, nil
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (authdomain.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return authdomain.AuthResult{}, authdomain.ErrInvalidCredentials
	}

	var user authdomain.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return authdomain.AuthResult{}, authdomain.ErrInvalidCredentials
		}
		return authdomain.AuthResult{}, err
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		return authdomain.AuthResult{}, authdomain.ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return authdomain.AuthResult{}, err
	}
	return authdomain.AuthResult{User: user, Session: session}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&authdomain.Session{}).Error
}

func (s *Service) ResolveSession(ctx context.Context, token string) (authdomain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return authdomain.User{}, authdomain.ErrInvalidSession
	}

	var session authdomain.Session
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return authdomain.User{}, authdomain.ErrInvalidSession
		}
		return authdomain.User{}, err
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		_ = s.db.WithContext(ctx).Where("token = ?", token).Delete(&authdomain.Session{}).Error
		return authdomain.User{}, authdomain.ErrSessionExpired
	}

	return s.GetUser(ctx, session.UserID)
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (authdomain.User, error) {
	var user authdomain.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return authdomain.User{}, authdomain.ErrInvalidSession
		}
		return authdomain.User{}, err
	}
	return user, nil
}

func (s *Service) createSession(ctx context.Context, userID snowflake.ID) (authdomain.Session, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return authdomain.Session{}, err
	}

	now := time.Now().UTC()
	session := authdomain.Session{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return authdomain.Session{}, err
	}
	return session, nil
}
