package domain

// User represents a bot user as seen by the access config
type User struct {
	ID         int64
	Registered bool
	Admin      bool
	ChatID     int64
}

// Admin holds the configured administrator
type Admin struct {
	ID     int64 `yaml:"id"`
	ChatID int64 `yaml:"chat_id,omitempty"`
}

// UserEntry holds per-user data learned at runtime
type UserEntry struct {
	ChatID int64 `yaml:"chat_id,omitempty"`
}

// Access is the process-wide access configuration: the admin and the
// registered users keyed by Telegram user id.
type Access struct {
	Admin Admin               `yaml:"admin"`
	Users map[int64]UserEntry `yaml:"users"`
}

// Clone returns a deep copy of the access configuration
func (a *Access) Clone() *Access {
	out := &Access{
		Admin: a.Admin,
		Users: make(map[int64]UserEntry, len(a.Users)),
	}
	for id, entry := range a.Users {
		out.Users[id] = entry
	}
	return out
}
