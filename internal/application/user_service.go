package application

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/domain/credential"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/registry"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

var ErrResetNotImplemented = apperror.New(apperror.KindUnimplemented, apperror.CodeResetNotImplemented, "password reset is not implemented")

type Service struct {
	Registry  *registry.Registry
	Hasher    *credential.Hasher
	Publisher EventPublisher
	Logger    *logrus.Logger
	Now       func() time.Time
}

func NewService(reg *registry.Registry, hasher *credential.Hasher, pub EventPublisher, logger *logrus.Logger) *Service {
	if hasher == nil {
		hasher = credential.Default
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		Registry:  reg,
		Hasher:    hasher,
		Publisher: pub,
		Logger:    logger,
		Now:       time.Now,
	}
}

type CreateUserInput struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedBy string
}

// UpdateUserInput replaces name, email and phone together; all three are
// required.
type UpdateUserInput struct {
	ID    string
	Name  *string
	Email *string
	Phone *string
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.Invalid("id", "id is required")
	}
	return nil
}

// publish runs after the registry call has returned, so no lock is held.
func (s *Service) publish(ctx context.Context, typ, userID string) {
	ev := newUserEvent(typ, userID, s.Now())
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultPublishTimeout)
	defer cancel()
	if err := s.Publisher.PublishJSON(pctx, ev); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"event":   typ,
			"user_id": userID,
		}).Warn("publish user event failed")
	}
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	if err := requireID(in.ID); err != nil {
		return nil, err
	}
	u, err := entity.NewUser(entity.NewUserInput{
		ID:        in.ID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedBy: in.CreatedBy,
	}, s.Now)
	if err != nil {
		return nil, err
	}
	if err := s.Registry.Insert(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithField("user_id", u.ID()).Info("user created")
	s.publish(ctx, EventUserCreated, u.ID())
	return u, nil
}

func (s *Service) GetAllUsers(_ context.Context) ([]*entity.User, error) {
	return s.Registry.List(), nil
}

func (s *Service) GetUserByID(_ context.Context, id string) (*entity.User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return s.Registry.Find(id)
}

func (s *Service) UpdateUserByID(ctx context.Context, in UpdateUserInput) (*entity.User, error) {
	if err := requireID(in.ID); err != nil {
		return nil, err
	}
	switch {
	case in.Name == nil:
		return nil, apperror.Invalid("name", "name is required")
	case in.Email == nil:
		return nil, apperror.Invalid("email", "email is required")
	case in.Phone == nil:
		return nil, apperror.Invalid("phone", "phone is required")
	}
	u, err := s.Registry.Update(ctx, in.ID, func(u *entity.User) error {
		return u.Update(entity.UpdateInput{Name: in.Name, Email: in.Email, Phone: in.Phone})
	})
	if err != nil {
		return nil, err
	}
	s.Logger.WithField("user_id", u.ID()).Info("user updated")
	s.publish(ctx, EventUserUpdated, u.ID())
	return u, nil
}

func (s *Service) UserExists(_ context.Context, id string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	return s.Registry.Exists(id), nil
}

// SetPassword hashes before entering the registry so the slow hash never runs
// under the registry lock.
func (s *Service) SetPassword(ctx context.Context, id, password string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if password == "" {
		return apperror.Invalid("password", "password is required")
	}
	if !s.Registry.Exists(id) {
		return registry.ErrNotFound
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return err
	}
	u, err := s.Registry.Update(ctx, id, func(u *entity.User) error {
		return u.SetPasswordHash(hash)
	})
	if err != nil {
		return err
	}
	s.Logger.WithField("user_id", u.ID()).Info("user password changed")
	s.publish(ctx, EventUserPasswordChanged, u.ID())
	return nil
}

// VerifyPassword compares outside the registry lock against a snapshot.
func (s *Service) VerifyPassword(_ context.Context, id, password string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	u, err := s.Registry.Find(id)
	if err != nil {
		return false, err
	}
	return u.VerifyPassword(password)
}

// ResetPassword is an explicit stub until a notification collaborator exists.
func (s *Service) ResetPassword(_ context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return ErrResetNotImplemented
}
