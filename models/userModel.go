package models

import (
	"strings"
	"time"
)

const (
	RoleOwner  = "Owner"
	RoleAdmin  = "Admin"
	RoleDriver = "Driver"

	StaffStatusActive = "active"
)

// Staff is a dashboard account stored in the staff collection.
type Staff struct {
	ID         string     `json:"staff_id" bson:"_id"`
	Email      string     `json:"email" bson:"email" validate:"email,required"`
	Password   string     `json:"-" bson:"password"`
	First_name string     `json:"first_name" bson:"firstName"`
	Last_name  string     `json:"last_name" bson:"lastName"`
	Suffix     string     `json:"suffix,omitempty" bson:"suffix,omitempty"`
	Role       string     `json:"role" bson:"role"`
	Status     string     `json:"status" bson:"status"`
	Created_at *time.Time `json:"created_at" bson:"createdAt"`
}

// DisplayName follows the profile button: names, then the email's local part, then the id.
func (s Staff) DisplayName() string {
	if s.First_name != "" && s.Last_name != "" {
		name := s.First_name + " " + s.Last_name
		if s.Suffix != "" {
			name += " " + s.Suffix
		}
		return name
	}
	if s.Email != "" {
		local := strings.SplitN(s.Email, "@", 2)[0]
		if local != "" {
			return strings.ToUpper(local[:1]) + local[1:]
		}
	}
	return s.ID
}

// Session is the signed-in staff identity carried by a request.
type Session struct {
	StaffID string `json:"staff_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

// HasRole reports whether the session role is one of roles. An empty list allows everyone.
func (s Session) HasRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// IsDriver compares case-insensitively, as roles were entered by hand in older records.
func (s Session) IsDriver() bool {
	return strings.EqualFold(s.Role, RoleDriver)
}

// Customer is the profile shown next to orders.
type Customer struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
