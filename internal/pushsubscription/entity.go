package pushsubscription

import "time"

// Subscription is a browser push subscription registered by an owner
// through the web form.
type Subscription struct {
	ID        string    `yaml:"id"`
	OwnerID   string    `yaml:"owner_id"`
	Endpoint  string    `yaml:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key"`
	CreatedAt time.Time `yaml:"created_at"`
}
