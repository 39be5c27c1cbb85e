package friend

import (
	"context"
	"strings"

	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/store"
)

func New(friends core.FriendStore) core.FriendService {
	return &service{friends: friends}
}

type service struct {
	friends core.FriendStore
}

// Search matches query as a substring of name or handle, ignoring case. Only
// an empty query returns the whole catalog; whitespace is matched as typed.
func (s *service) Search(ctx context.Context, ownerID, query string) ([]*core.Friend, error) {
	friends, err := s.friends.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if query == "" {
		return nonNil(friends), nil
	}

	query = strings.ToLower(query)
	matched := make([]*core.Friend, 0, len(friends))
	for _, friend := range friends {
		if strings.Contains(strings.ToLower(friend.Name), query) ||
			strings.Contains(strings.ToLower(friend.Handle), query) {
			matched = append(matched, friend)
		}
	}

	return matched, nil
}

func (s *service) Recents(ctx context.Context, ownerID string) ([]*core.Friend, error) {
	friends, err := s.friends.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	recents := make([]*core.Friend, 0, len(friends))
	for _, friend := range friends {
		if friend.Recent {
			recents = append(recents, friend)
		}
	}

	return recents, nil
}

func (s *service) Find(ctx context.Context, ownerID, id string) (*core.Friend, error) {
	friend, err := s.friends.Find(ctx, ownerID, id)
	if err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrUnknownFriend
		}

		return nil, err
	}

	return friend, nil
}

func nonNil(friends []*core.Friend) []*core.Friend {
	if friends == nil {
		return []*core.Friend{}
	}

	return friends
}
