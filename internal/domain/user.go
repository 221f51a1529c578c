package domain

import "time"

type Role string

const (
	RolePlayer Role = "player"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Review struct {
	ID        string
	UserID    string
	VenueID   string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
