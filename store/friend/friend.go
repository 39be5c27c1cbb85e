package friend

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/generic"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.FriendStore {
	catalogs, err := lru.New[string, []*core.Friend](256)
	if err != nil {
		panic(err)
	}

	return &store{
		db:       db,
		catalogs: catalogs,
	}
}

type store struct {
	db       *nap.DB
	catalogs *lru.Cache[string, []*core.Friend]
}

func (s *store) List(ctx context.Context, ownerID string) ([]*core.Friend, error) {
	if friends, ok := s.catalogs.Get(ownerID); ok {
		return friends, nil
	}

	friends, err := s.list(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.catalogs.Add(ownerID, friends)
	return friends, nil
}

func (s *store) list(ctx context.Context, ownerID string) ([]*core.Friend, error) {
	b := sq.Select(scanColumns...).
		From("friends").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("position", "friend_id")

	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var friends []*core.Friend
	for rows.Next() {
		var friend core.Friend
		if err := scanFriend(rows, &friend); err != nil {
			return nil, err
		}

		friends = append(friends, &friend)
	}

	return friends, rows.Err()
}

func (s *store) Find(ctx context.Context, ownerID, id string) (*core.Friend, error) {
	friends, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for _, friend := range friends {
		if friend.ID == id {
			return friend, nil
		}
	}

	return nil, sql.ErrNoRows
}

func (s *store) Save(ctx context.Context, ownerID string, friends []*core.Friend) error {
	tx := generic.Must(s.db.Begin())
	defer tx.Rollback()

	if _, err := sq.Delete("friends").Where(sq.Eq{"owner_id": ownerID}).RunWith(tx).ExecContext(ctx); err != nil {
		return err
	}

	if len(friends) > 0 {
		b := sq.Insert("friends").
			Columns("owner_id", "friend_id", "position", "name", "handle", "avatar", "recent")
		for idx, friend := range friends {
			b = b.Values(ownerID, friend.ID, idx, friend.Name, friend.Handle, friend.Avatar, friend.Recent)
		}

		if _, err := b.RunWith(tx).ExecContext(ctx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.catalogs.Remove(ownerID)
	return nil
}
