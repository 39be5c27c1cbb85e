package core

import "context"

type Friend struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id,omitempty"`
	Name    string `json:"name"`
	Handle  string `json:"handle"`
	Avatar  string `json:"avatar,omitempty"`
	Recent  bool   `json:"recent"`
}

// FriendStore returns an owner's friends in catalog order.
type FriendStore interface {
	List(ctx context.Context, ownerID string) ([]*Friend, error)
	Find(ctx context.Context, ownerID, id string) (*Friend, error)
	// Save replaces the owner's catalog, keeping the order of friends.
	Save(ctx context.Context, ownerID string, friends []*Friend) error
}

type FriendService interface {
	Search(ctx context.Context, ownerID, query string) ([]*Friend, error)
	Recents(ctx context.Context, ownerID string) ([]*Friend, error)
	Find(ctx context.Context, ownerID, id string) (*Friend, error)
}
