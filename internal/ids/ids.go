// Package ids mints the stable string identifiers the engine uses for
// entities, components, players, teams, worlds, and chunks.
package ids

import "github.com/google/uuid"

// New returns a fresh 128-bit UUID rendered as text.
func New() string {
	return uuid.New().String()
}
