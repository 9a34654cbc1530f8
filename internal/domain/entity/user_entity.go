package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oksasatya/go-user-registry/internal/domain/credential"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

// Field limits. Construction and mutation use different lower bounds; the
// mutation bounds are the legacy setter rules.
const (
	IDMinChars    = 4
	IDMaxChars    = 20
	EmailMinChars = 3
	EmailMaxChars = 50
	NameMinChars  = 2
	NameMaxChars  = 40

	UpdateNameMinChars  = 5
	UpdateEmailMinChars = 6
	UpdatePhoneMinChars = 6
)

// IDAlphabet lists every character allowed in a user id.
const IDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789_"

// Sentinels for errors.Is; they match by code.
var (
	ErrIDLength        = apperror.New(apperror.KindValidation, apperror.CodeUserIDLength, "invalid id length")
	ErrIDCharset       = apperror.New(apperror.KindValidation, apperror.CodeUserIDCharset, "invalid id characters")
	ErrEmailLength     = apperror.New(apperror.KindValidation, apperror.CodeUserEmailLength, "invalid email length")
	ErrEmailFormat     = apperror.New(apperror.KindValidation, apperror.CodeUserEmailFormat, "invalid email format")
	ErrNameLength      = apperror.New(apperror.KindValidation, apperror.CodeUserNameLength, "invalid name length")
	ErrPhoneLength     = apperror.New(apperror.KindValidation, apperror.CodeUserPhoneLength, "invalid phone length")
	ErrUpdateInvalid   = apperror.New(apperror.KindValidation, apperror.CodeUserUpdateInvalid, "invalid user update")
	ErrRecordMalformed = apperror.New(apperror.KindInternal, apperror.CodeRecordMalformed, "malformed user record")
)

// User is the aggregate root for the user domain. Fields are unexported so a
// User can only come from NewUser or Restore and only change through its
// validated mutators.
type User struct {
	id           string
	name         string
	email        string
	phone        string
	passwordHash string
	createdAt    time.Time
	createdBy    string
	customers    []string
}

// NewUserInput carries untrusted construction data.
type NewUserInput struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedBy string
}

// NewUser normalizes id and email to lowercase and validates, in order: id
// length, id charset, email length, email content, name length. The first
// failing rule is returned.
func NewUser(in NewUserInput, now func() time.Time) (*User, error) {
	if now == nil {
		now = time.Now
	}
	id := NormalizeID(in.ID)
	email := strings.ToLower(in.Email)

	if err := validateID(id); err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(email); n < EmailMinChars || n > EmailMaxChars {
		return nil, apperror.Field(apperror.CodeUserEmailLength, "email", "length", "email must be between 3 and 50 characters long")
	}
	if err := validateEmailContent(email); err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(in.Name); n < NameMinChars || n > NameMaxChars {
		return nil, apperror.Field(apperror.CodeUserNameLength, "name", "length", "name must be between 2 and 40 characters long")
	}

	return &User{
		id:        id,
		name:      in.Name,
		email:     email,
		phone:     in.Phone,
		createdAt: now().UTC(),
		createdBy: in.CreatedBy,
		customers: []string{},
	}, nil
}

// NormalizeID returns the canonical form used for storage and lookup.
func NormalizeID(id string) string {
	return strings.ToLower(id)
}

func validateID(id string) error {
	if n := utf8.RuneCountInString(id); n < IDMinChars || n > IDMaxChars {
		return apperror.Field(apperror.CodeUserIDLength, "id", "length", "id must be between 4 and 20 characters long")
	}
	for _, r := range id {
		if !strings.ContainsRune(IDAlphabet, r) {
			return apperror.Field(apperror.CodeUserIDCharset, "id", "charset", "id may only contain "+IDAlphabet)
		}
	}
	return nil
}

func validateEmailContent(email string) error {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return apperror.Field(apperror.CodeUserEmailFormat, "email", "format", "email must contain '@' and '.'")
	}
	return nil
}

func (u *User) ID() string           { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) Phone() string        { return u.phone }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) CreatedBy() string    { return u.createdBy }

// Customers returns a copy of the associated customer ids.
func (u *User) Customers() []string {
	out := make([]string, len(u.customers))
	copy(out, u.customers)
	return out
}

// HasCredential reports whether a password hash is stored.
func (u *User) HasCredential() bool { return u.passwordHash != "" }

func checkName(name string) *apperror.FieldViolation {
	if n := utf8.RuneCountInString(name); n < UpdateNameMinChars || n > NameMaxChars {
		return &apperror.FieldViolation{Field: "name", Constraint: "length", Message: "name must be between 5 and 40 characters long"}
	}
	return nil
}

func checkEmail(email string) (*apperror.FieldViolation, apperror.Code) {
	if n := utf8.RuneCountInString(email); n < UpdateEmailMinChars || n > EmailMaxChars {
		return &apperror.FieldViolation{Field: "email", Constraint: "length", Message: "email must be between 6 and 50 characters long"}, apperror.CodeUserEmailLength
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return &apperror.FieldViolation{Field: "email", Constraint: "format", Message: "email must contain '@' and '.'"}, apperror.CodeUserEmailFormat
	}
	return nil, ""
}

func checkPhone(phone string) *apperror.FieldViolation {
	if utf8.RuneCountInString(phone) < UpdatePhoneMinChars {
		return &apperror.FieldViolation{Field: "phone", Constraint: "length", Message: "phone must be at least 6 characters long"}
	}
	return nil
}

func violation(code apperror.Code, v *apperror.FieldViolation) error {
	return apperror.Field(code, v.Field, v.Constraint, v.Message)
}

// SetName replaces the name using the mutation rule (5 to 40 characters).
func (u *User) SetName(name string) error {
	if v := checkName(name); v != nil {
		return violation(apperror.CodeUserNameLength, v)
	}
	u.name = name
	return nil
}

// SetEmail lowercases and replaces the email using the mutation rule.
func (u *User) SetEmail(email string) error {
	email = strings.ToLower(email)
	if v, code := checkEmail(email); v != nil {
		return violation(code, v)
	}
	u.email = email
	return nil
}

// SetPhone replaces the phone; mutation requires at least 6 characters.
func (u *User) SetPhone(phone string) error {
	if v := checkPhone(phone); v != nil {
		return violation(apperror.CodeUserPhoneLength, v)
	}
	u.phone = phone
	return nil
}

// UpdateInput lists the fields of a combined update. Nil fields are left
// untouched.
type UpdateInput struct {
	Name  *string
	Email *string
	Phone *string
}

// Update validates every supplied field before committing any of them. On
// failure the returned error lists all violations and u is unchanged.
func (u *User) Update(in UpdateInput) error {
	var (
		violations []apperror.FieldViolation
		codes      []apperror.Code
		email      string
	)
	if in.Name != nil {
		if v := checkName(*in.Name); v != nil {
			violations = append(violations, *v)
			codes = append(codes, apperror.CodeUserNameLength)
		}
	}
	if in.Email != nil {
		email = strings.ToLower(*in.Email)
		if v, code := checkEmail(email); v != nil {
			violations = append(violations, *v)
			codes = append(codes, code)
		}
	}
	if in.Phone != nil {
		if v := checkPhone(*in.Phone); v != nil {
			violations = append(violations, *v)
			codes = append(codes, apperror.CodeUserPhoneLength)
		}
	}

	switch len(violations) {
	case 0:
	case 1:
		return violation(codes[0], &violations[0])
	default:
		return &apperror.Error{
			Kind:       apperror.KindValidation,
			Code:       apperror.CodeUserUpdateInvalid,
			Field:      violations[0].Field,
			Constraint: violations[0].Constraint,
			Message:    "user update has invalid fields",
			Violations: violations,
		}
	}

	if in.Name != nil {
		u.name = *in.Name
	}
	if in.Email != nil {
		u.email = email
	}
	if in.Phone != nil {
		u.phone = *in.Phone
	}
	return nil
}

// SetPassword checks strength, hashes with h (credential.Default when nil)
// and stores the hash.
func (u *User) SetPassword(h *credential.Hasher, password string) error {
	hash, err := h.Hash(password)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	return nil
}

// SetPasswordHash stores a hash produced by credential.Hasher. It lets callers
// hash outside a critical section and commit the result inside it.
func (u *User) SetPasswordHash(hash string) error {
	if err := credential.CheckHash(hash); err != nil {
		return err
	}
	u.passwordHash = hash
	return nil
}

// VerifyPassword reports whether password matches the stored credential. A
// user without a credential never matches.
func (u *User) VerifyPassword(password string) (bool, error) {
	if u.passwordHash == "" {
		return false, nil
	}
	return credential.Verify(password, u.passwordHash)
}

// InvalidateCredential drops the stored hash. A reset workflow calls this
// before issuing a new credential out of band.
func (u *User) InvalidateCredential() {
	u.passwordHash = ""
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	c := *u
	c.customers = u.Customers()
	return &c
}
