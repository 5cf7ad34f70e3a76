package application

import (
	"context"
	"errors"
)

// DemoPassword is shared by the demo accounts.
const DemoPassword = "test123"

// DemoAccounts are seeded when the service runs in demo mode.
var DemoAccounts = []RegisterParams{
	{
		Email:       "nutri@test.com",
		Password:    DemoPassword,
		DisplayName: "Dr. Juan Nutricionista",
		Phone:       "+34 600 000 001",
		Role:        string(RoleProfessional),
	},
	{
		Email:       "cliente@test.com",
		Password:    DemoPassword,
		DisplayName: "María Cliente",
		Phone:       "+34 600 000 002",
		Role:        string(RoleClient),
	},
}

// SeedDemoAccounts registers every demo account that does not exist yet.
// Passwords go through the regular hashing path.
func (s *AuthService) SeedDemoAccounts(ctx context.Context) ([]User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	seeded := make([]User, 0, len(DemoAccounts))
	for _, account := range DemoAccounts {
		user, err := s.Register(ctx, account)
		if errors.Is(err, ErrDuplicateEmail) {
			continue
		}
		if err != nil {
			return seeded, err
		}
		seeded = append(seeded, user)
	}
	return seeded, nil
}
