package domain

import "time"

// Run describes one saved inventory.
type Run struct {
	ID        string
	Source    string
	Profile   string
	Region    string
	AccountID string
	CreatedAt time.Time
	Resources int
	Edges     int
	Kinds     map[Kind]int
}
