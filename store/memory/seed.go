package memory

import (
	"context"

	"github.com/pandodao/coffee-wallet/core"
)

// DemoFriends is the catalog handed to every seeded account.
var DemoFriends = []*core.Friend{
	{ID: "1", Name: "Sarah Johnson", Handle: "@sarahj", Recent: true},
	{ID: "2", Name: "Michael Chen", Handle: "@mikechen", Recent: true},
	{ID: "3", Name: "Emma Wilson", Handle: "@emmaw", Recent: true},
	{ID: "4", Name: "David Kim", Handle: "@davidk"},
	{ID: "5", Name: "Olivia Martinez", Handle: "@oliviam"},
	{ID: "6", Name: "James Wilson", Handle: "@jamesw"},
}

// Seed opens an account with balance for every user and gives each of them
// the friends catalog.
func (s *Store) Seed(ctx context.Context, users []string, balance int64, friends []*core.Friend) error {
	for _, user := range users {
		if err := s.Open(ctx, user, balance); err != nil {
			return err
		}

		if err := s.Friends().Save(ctx, user, friends); err != nil {
			return err
		}
	}

	return nil
}
