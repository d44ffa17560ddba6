// Package credentials implements direct id/password login next to the
// social flows.
package credentials

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/unstable-code/angple/internal/member"
)

var (
	// ErrInvalidLogin covers unknown ids and wrong passwords alike, so
	// responses do not reveal which one failed.
	ErrInvalidLogin = errors.New("invalid id or password")

	ErrInactiveMember = errors.New("member account is inactive")

	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

const hashVersion = "bcrypt"

const minPasswordLen = 8

type Service struct {
	members member.Repository
	creds   member.CredentialRepository
	cost    int
}

func NewService(members member.Repository, creds member.CredentialRepository) *Service {
	return &Service{members: members, creds: creds, cost: bcrypt.DefaultCost}
}

// Login verifies the password for the given member id and returns the
// member on success.
func (s *Service) Login(ctx context.Context, id, password string) (*member.Member, error) {
	m, err := s.members.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrInvalidLogin
	}

	c, err := s.creds.FindByMemberID(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrInvalidLogin
	}

	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidLogin
	}
	if !m.Active {
		return nil, ErrInactiveMember
	}
	return m, nil
}

// Register creates a member with a password credential.
func (s *Service) Register(ctx context.Context, id, nickname, email, password string) (*member.Member, error) {
	id = strings.TrimSpace(id)
	nickname = strings.TrimSpace(nickname)
	if id == "" || nickname == "" {
		return nil, errors.New("id and nickname are required")
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	m := &member.Member{
		ID:       id,
		Nickname: nickname,
		Level:    1,
		Email:    email,
		Active:   true,
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}
	if err := s.SetPassword(ctx, m.ID, password); err != nil {
		return nil, err
	}
	return m, nil
}

// SetPassword stores a fresh hash for the member, replacing any
// existing credential.
func (s *Service) SetPassword(ctx context.Context, memberID, password string) error {
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	return s.creds.Upsert(ctx, &member.Credential{
		MemberID:     memberID,
		PasswordHash: string(hash),
		HashVersion:  hashVersion,
	})
}
