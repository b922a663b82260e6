// Package users implements account storage and authentication for the
// sync server.
package users

import "time"

type User struct {
	ID           string    `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
