// Package bridge resolves an external provider profile to a local
// member, creating the account when the visitor is new.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/unstable-code/angple/internal/member"
	"github.com/unstable-code/angple/internal/oauth/provider"
	"github.com/unstable-code/angple/internal/random"
)

// ErrInactiveMember marks a resolved account that is disabled; callers
// must not establish a session for it.
var ErrInactiveMember = errors.New("member account is inactive")

// idRetryLimit bounds the suffixed retries when a derived member id
// collides.
const idRetryLimit = 5

// PendingRegistration carries the profile snapshot a first-time visitor
// needs to finish signup with a chosen nickname.
type PendingRegistration struct {
	Profile           provider.Profile
	SuggestedNickname string
}

// Resolution is the outcome of Resolve: exactly one of Member and
// Pending is set.
type Resolution struct {
	Member  *member.Member
	Pending *PendingRegistration
}

type Service struct {
	members member.Repository
	links   member.SocialLinkRepository
}

func NewService(members member.Repository, links member.SocialLinkRepository) *Service {
	return &Service{members: members, links: links}
}

// Resolve maps a provider profile onto a member. Lookup order: the
// provider link, then a case-insensitive email match (which links the
// profile as a side effect), then a pending registration for a new
// visitor.
func (s *Service) Resolve(ctx context.Context, p *provider.Profile) (*Resolution, error) {
	link, err := s.links.Find(ctx, p.Provider, p.Identifier)
	if err != nil {
		return nil, err
	}
	if link != nil {
		m, err := s.members.FindByID(ctx, link.MemberID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			if !m.Active {
				return nil, ErrInactiveMember
			}
			// Refresh the stored snapshot with whatever the
			// provider sent this time.
			if err := s.links.Upsert(ctx, linkFromProfile(p, m.ID)); err != nil {
				return nil, err
			}
			return &Resolution{Member: m}, nil
		}
		// Stale link pointing at a removed member; fall through to
		// the remaining lookups.
	}

	if p.Email != "" {
		m, err := s.members.FindByEmail(ctx, p.Email)
		if err != nil {
			return nil, err
		}
		if m != nil {
			if !m.Active {
				return nil, ErrInactiveMember
			}
			if err := s.links.Upsert(ctx, linkFromProfile(p, m.ID)); err != nil {
				return nil, err
			}
			return &Resolution{Member: m}, nil
		}
	}

	return &Resolution{Pending: &PendingRegistration{
		Profile:           *p,
		SuggestedNickname: p.DisplayName,
	}}, nil
}

// CompleteRegistration creates the member for a pending profile with
// the nickname the visitor chose, then links the provider identity. A
// derived id collision is retried with a random suffix; a nickname
// collision is returned to the caller unchanged.
func (s *Service) CompleteRegistration(ctx context.Context, p *provider.Profile, nickname string) (*member.Member, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, errors.New("nickname is required")
	}

	baseID := deriveMemberID(p)
	id := baseID
	var m *member.Member
	for attempt := 0; ; attempt++ {
		m = &member.Member{
			ID:       id,
			Nickname: nickname,
			Level:    1,
			Email:    p.Email,
			Active:   true,
		}
		err := s.members.Create(ctx, m)
		if err == nil {
			break
		}
		if errors.Is(err, member.ErrDuplicateID) && attempt < idRetryLimit {
			id = baseID + random.Suffix(4)
			continue
		}
		return nil, err
	}

	if err := s.links.Upsert(ctx, linkFromProfile(p, m.ID)); err != nil {
		return nil, err
	}
	return m, nil
}

func linkFromProfile(p *provider.Profile, memberID string) *member.SocialLink {
	return &member.SocialLink{
		Provider:           p.Provider,
		ProviderIdentifier: p.Identifier,
		MemberID:           memberID,
		DisplayName:        p.DisplayName,
		PhotoURL:           p.PhotoURL,
		ProfileURL:         p.ProfileURL,
	}
}

// deriveMemberID builds a provider-prefixed id from the external
// identifier, keeping only lowercase alphanumerics and capping length
// so suffixed retries stay readable.
func deriveMemberID(p *provider.Profile) string {
	var b strings.Builder
	for _, r := range strings.ToLower(p.Identifier) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() >= 20 {
			break
		}
	}
	ident := b.String()
	if ident == "" {
		ident = random.Suffix(8)
	}
	return fmt.Sprintf("%s_%s", strings.ToLower(p.Provider), ident)
}
