package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

// UserRecord is the flat shape written to and read from record stores.
type UserRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by"`
	Customers    []string  `json:"customers"`
}

// Record projects the aggregate into its stored shape.
func (u *User) Record() UserRecord {
	return UserRecord{
		ID:           u.id,
		Name:         u.name,
		Email:        u.email,
		Phone:        u.phone,
		PasswordHash: u.passwordHash,
		CreatedAt:    u.createdAt,
		CreatedBy:    u.createdBy,
		Customers:    u.Customers(),
	}
}

// Restore rebuilds an aggregate from stored data. Only the identity is
// re-validated: records written under older field rules must still load.
func Restore(rec UserRecord) (*User, error) {
	if rec.ID != NormalizeID(rec.ID) {
		return nil, apperror.Internal(apperror.CodeRecordMalformed, "malformed user record",
			fmt.Errorf("id %q is not normalized", rec.ID))
	}
	// The cause is flattened so a stored record never matches validation
	// sentinels.
	if err := validateID(rec.ID); err != nil {
		return nil, apperror.Internal(apperror.CodeRecordMalformed, "malformed user record", errors.New(err.Error()))
	}
	if rec.CreatedAt.IsZero() {
		return nil, apperror.Internal(apperror.CodeRecordMalformed, "malformed user record",
			fmt.Errorf("record %q has no creation time", rec.ID))
	}
	customers := make([]string, len(rec.Customers))
	copy(customers, rec.Customers)
	return &User{
		id:           rec.ID,
		name:         rec.Name,
		email:        rec.Email,
		phone:        rec.Phone,
		passwordHash: rec.PasswordHash,
		createdAt:    rec.CreatedAt.UTC(),
		createdBy:    rec.CreatedBy,
		customers:    customers,
	}, nil
}
