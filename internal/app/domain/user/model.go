package user

import "time"

// User is a platform profile. Wallet is the login identity; Username is the
// public handle and unique across the platform.
type User struct {
	ID          string    `json:"id"`
	Wallet      string    `json:"wallet"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
