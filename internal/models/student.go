package models

import "time"

// Student can place student usage requests against a lab.
type Student struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CareerID     *string   `db:"career_id" json:"career_id,omitempty"`
	SemesterID   *string   `db:"semester_id" json:"semester_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
