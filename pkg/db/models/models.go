package models

// All lists every model owned by the core schema, in dependency order.
func All() []any {
	return []any{
		&Account{},
		&LedgerEntry{},
		&DocumentSequence{},
		&Invoice{},
		&FreelancerProfile{},
		&Badge{},
		&Favorite{},
	}
}
