package authsvc

import (
	"context"
	"errors"
	"strings"

	"librarymgmt/model"
	userrepo "librarymgmt/repository/user"
	"librarymgmt/util/hash"
	jwtutil "librarymgmt/util/jwt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrBadInput      = errors.New("bad input")
	ErrInvalidCreds  = errors.New("invalid credentials")
)

// Code reduces err to one of the package sentinels, or nil.
func Code(err error) error {
	for _, sentinel := range []error{ErrUsernameTaken, ErrBadInput, ErrInvalidCreds} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

type Service interface {
	// CreateUser registers a user; the caller must already be authorized
	// as admin.
	CreateUser(ctx context.Context, req model.CreateUserReq) (*model.User, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

type service struct {
	ur     userrepo.Repo
	secret string
}

func New(ur userrepo.Repo, secret string) Service { return &service{ur: ur, secret: secret} }

func (s *service) CreateUser(ctx context.Context, req model.CreateUserReq) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		return nil, ErrBadInput
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Username:     username,
		PasswordHash: hashed,
		Role:         req.Role,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	u, err := s.ur.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}
	token, err := jwtutil.Issue(s.secret, u.ID, u.Username, u.Role, 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
