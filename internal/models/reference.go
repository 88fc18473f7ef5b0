package models

// Career is a degree program students are enrolled in.
type Career struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Faculty string `db:"faculty" json:"faculty"`
}

// Semester is an academic term.
type Semester struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Subject is a course taught within a career.
type Subject struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	CareerID   *string `db:"career_id" json:"career_id,omitempty"`
	SemesterID *string `db:"semester_id" json:"semester_id,omitempty"`
}
