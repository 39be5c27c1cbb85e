package core

import "errors"

var (
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrMessageTooLong      = errors.New("message too long")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnknownFriend       = errors.New("unknown friend")
	ErrCommitFailed        = errors.New("commit failed")
	ErrInvalidState        = errors.New("invalid state")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidLocation     = errors.New("invalid location")
	ErrInvalidTrace        = errors.New("invalid trace id")
)
