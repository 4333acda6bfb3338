package contact

import "time"

// Contact is a notification address registered by an owner (e-mail or
// similar, opaque to the bot).
type Contact struct {
	OwnerID   string    `yaml:"owner_id"`
	Address   string    `yaml:"address"`
	Notify    bool      `yaml:"notify"`
	UpdatedAt time.Time `yaml:"updated_at"`
}
