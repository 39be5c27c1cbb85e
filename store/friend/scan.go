package friend

import "github.com/pandodao/coffee-wallet/core"

type scanner interface {
	Scan(dest ...interface{}) error
}

var scanColumns = []string{
	"friend_id",
	"owner_id",
	"name",
	"handle",
	"avatar",
	"recent",
}

func scanFriend(scanner scanner, friend *core.Friend) error {
	return scanner.Scan(
		&friend.ID,
		&friend.OwnerID,
		&friend.Name,
		&friend.Handle,
		&friend.Avatar,
		&friend.Recent,
	)
}
