package models

import "time"

// Team is created once at tournament setup. The seed (1..8) is used only to
// build the initial winner-bracket round-1 pairing.
type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Seed      int       `json:"seed" db:"seed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}
