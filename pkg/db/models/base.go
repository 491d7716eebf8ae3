package models

import "github.com/google/uuid"

// ensureID assigns a client-side UUID before insert. Postgres also defaults
// ids with gen_random_uuid(); SQLite test databases have no such function.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
