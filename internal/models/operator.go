package models

// Operator is an administrative account allowed to manage plans, creditors
// and access lists. Operators authenticate with a password and act through
// short-lived tokens.
type Operator struct {
	// Account is the operator's login name (primary key).
	Account string

	// PasswordHash is the bcrypt hash of the operator's password.
	PasswordHash string

	CreatedAt int64
}
