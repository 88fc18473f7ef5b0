package models

// Lab is a physical laboratory where practices run.
type Lab struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Location  string  `db:"location" json:"location"`
	ManagerID *string `db:"manager_id" json:"manager_id,omitempty"`
}

// LabManager is the staff member responsible for one or more labs.
type LabManager struct {
	ID             string `db:"id" json:"id"`
	FirstName      string `db:"first_name" json:"first_name"`
	LastName       string `db:"last_name" json:"last_name"`
	Email          string `db:"email" json:"email"`
	RequestingUnit string `db:"requesting_unit" json:"requesting_unit"`
}

// Teacher leads staff usage requests.
type Teacher struct {
	ID        string `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}
