package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"galaxyinn/backend/internal/domain"
)

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	users, err := s.repo.Users(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out, nil
}

// SaveUser creates a user when in.ID is nil, otherwise updates it. Usernames are
// unique and case-insensitive; PINs are stored as bcrypt hashes.
func (s *Service) SaveUser(ctx context.Context, in domain.UserInput) (domain.UserView, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.UserView{}, err
	}
	if err := checkInput(in); err != nil {
		return domain.UserView{}, err
	}

	var saved domain.User
	err := s.repo.Update(ctx, func(ctx context.Context) error {
		users, err := s.repo.Users(ctx)
		if err != nil {
			return err
		}

		var idx int
		if in.ID == nil {
			if in.Username == nil || in.PIN == nil {
				return invalidf("username and pin are required")
			}
			users = append(users, domain.User{
				ID:        nextIntID(users, func(u domain.User) int { return u.ID }),
				Role:      domain.RoleCashier,
				Active:    true,
				CreatedAt: s.now(),
			})
			idx = len(users) - 1
		} else {
			idx = indexOf(users, func(u domain.User) bool { return u.ID == *in.ID })
			if idx < 0 {
				return notFoundf("user %d", *in.ID)
			}
		}

		user := &users[idx]
		if in.Username != nil {
			username := strings.ToLower(strings.TrimSpace(*in.Username))
			for i, other := range users {
				if i != idx && other.Username == username {
					return invalidf("username %q is taken", username)
				}
			}
			user.Username = username
		}
		if in.Name != nil {
			user.Name = strings.TrimSpace(*in.Name)
		}
		if in.Role != nil {
			user.Role = *in.Role
		}
		if in.Active != nil {
			user.Active = *in.Active
		}
		if in.PIN != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.PIN), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.PINHash = string(hash)
		}

		saved = *user
		return s.repo.SaveUsers(ctx, users)
	})
	return saved.View(), err
}

// Authenticate checks a username and PIN against the active users.
func (s *Service) Authenticate(ctx context.Context, username string, pin string) (domain.UserView, error) {
	users, err := s.repo.Users(ctx)
	if err != nil {
		return domain.UserView{}, err
	}
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range users {
		if u.Username != username || !u.Active {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PINHash), []byte(pin)) != nil {
			return domain.UserView{}, ErrInvalidCredentials
		}
		return u.View(), nil
	}
	return domain.UserView{}, ErrInvalidCredentials
}

// UserByUsername is used when auth is disabled to act as a fixed account.
func (s *Service) UserByUsername(ctx context.Context, username string) (domain.UserView, error) {
	users, err := s.repo.Users(ctx)
	if err != nil {
		return domain.UserView{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u.View(), nil
		}
	}
	return domain.UserView{}, notFoundf("user %s", username)
}
