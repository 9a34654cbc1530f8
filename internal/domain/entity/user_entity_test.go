package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-registry/internal/domain/credential"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

var fixedTime = time.Date(2026, 1, 23, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func newDemoUser(t *testing.T) *User {
	t.Helper()
	u, err := NewUser(NewUserInput{ID: "demo", Name: "user", Email: "demo@user.com"}, fixedNow)
	require.NoError(t, err)
	return u
}

func TestNewUserNormalizesAndRoundTrips(t *testing.T) {
	u, err := NewUser(NewUserInput{
		ID:        "Demo_User1",
		Name:      "Demo User",
		Email:     "Demo@Example.COM",
		Phone:     "+36 20 123 4567",
		CreatedBy: "admin",
	}, fixedNow)
	require.NoError(t, err)

	require.Equal(t, "demo_user1", u.ID())
	require.Equal(t, "Demo User", u.Name())
	require.Equal(t, "demo@example.com", u.Email())
	require.Equal(t, "+36 20 123 4567", u.Phone())
	require.Equal(t, "admin", u.CreatedBy())
	require.Equal(t, fixedTime, u.CreatedAt())
	require.Empty(t, u.PasswordHash())
	require.False(t, u.HasCredential())
	require.NotNil(t, u.Customers())
	require.Empty(t, u.Customers())
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name       string
		in         NewUserInput
		want       error
		field      string
		constraint string
	}{
		{
			name: "id too short",
			in:   NewUserInput{ID: "ab", Name: "Valid Name", Email: "a@b.co", CreatedBy: "x"},
			want: ErrIDLength, field: "id", constraint: "length",
		},
		{
			name: "id too long",
			in:   NewUserInput{ID: strings.Repeat("a", 21), Name: "Valid Name", Email: "a@b.co"},
			want: ErrIDLength, field: "id", constraint: "length",
		},
		{
			name: "id charset",
			in:   NewUserInput{ID: "demo-user", Name: "Valid Name", Email: "a@b.co"},
			want: ErrIDCharset, field: "id", constraint: "charset",
		},
		{
			name: "id non ascii",
			in:   NewUserInput{ID: "démo", Name: "Valid Name", Email: "a@b.co"},
			want: ErrIDCharset, field: "id", constraint: "charset",
		},
		{
			name: "email too short",
			in:   NewUserInput{ID: "valid_id", Name: "Valid Name", Email: "a@"},
			want: ErrEmailLength, field: "email", constraint: "length",
		},
		{
			name: "email too long",
			in:   NewUserInput{ID: "valid_id", Name: "Valid Name", Email: strings.Repeat("a", 45) + "@b.com"},
			want: ErrEmailLength, field: "email", constraint: "length",
		},
		{
			name: "email not an email",
			in:   NewUserInput{ID: "valid_id", Name: "Valid Name", Email: "not-an-email", CreatedBy: "x"},
			want: ErrEmailFormat, field: "email", constraint: "format",
		},
		{
			name: "name too short",
			in:   NewUserInput{ID: "valid_id", Name: "A", Email: "a@b.co"},
			want: ErrNameLength, field: "name", constraint: "length",
		},
		{
			name: "name too long",
			in:   NewUserInput{ID: "valid_id", Name: strings.Repeat("n", 41), Email: "a@b.co"},
			want: ErrNameLength, field: "name", constraint: "length",
		},
		{
			name: "id checked before email",
			in:   NewUserInput{ID: "x", Name: "A", Email: "bad"},
			want: ErrIDLength, field: "id", constraint: "length",
		},
		{
			name: "email length checked before content",
			in:   NewUserInput{ID: "valid_id", Name: "A", Email: "ab"},
			want: ErrEmailLength, field: "email", constraint: "length",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser(tt.in, fixedNow)
			require.Nil(t, u)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, apperror.ErrValidation)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			require.Equal(t, tt.field, appErr.Field)
			require.Equal(t, tt.constraint, appErr.Constraint)
		})
	}
}

func TestNewUserAllowsEmptyPhoneAndShortName(t *testing.T) {
	u, err := NewUser(NewUserInput{ID: "abcd", Name: "Al", Email: "a@b"}, fixedNow)
	require.Error(t, err, "email without a dot is rejected")
	require.Nil(t, u)

	u, err = NewUser(NewUserInput{ID: "abcd", Name: "Al", Email: "a@b.c"}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, "", u.Phone())
}

func TestSetEmail(t *testing.T) {
	u := newDemoUser(t)
	require.NoError(t, u.SetEmail("demo@demo.com"))
	require.ErrorIs(t, u.SetEmail("wohoo"), ErrEmailLength)
	require.ErrorIs(t, u.SetEmail("wohoo_mail"), ErrEmailFormat)
	require.ErrorIs(t, u.SetEmail("a@b.c"), ErrEmailLength)
	require.NoError(t, u.SetEmail("Demo@Company.com"))
	require.Equal(t, "demo@company.com", u.Email())
}

func TestSetName(t *testing.T) {
	u := newDemoUser(t)
	require.Equal(t, "user", u.Name())
	require.ErrorIs(t, u.SetName("abc"), ErrNameLength)
	require.ErrorIs(t, u.SetName(strings.Repeat("n", 41)), ErrNameLength)
	require.NoError(t, u.SetName("Demo User"))
	require.NoError(t, u.SetName("Hello World"))
	require.Equal(t, "Hello World", u.Name())
}

func TestSetPhone(t *testing.T) {
	u := newDemoUser(t)
	phone := "+99 (701) 479 397129"
	require.Equal(t, "", u.Phone())
	require.NoError(t, u.SetPhone(phone))
	require.ErrorIs(t, u.SetPhone("phn"), ErrPhoneLength)
	require.ErrorIs(t, u.SetPhone("12345"), ErrPhoneLength)
	require.Equal(t, phone, u.Phone())
}

func strp(s string) *string { return &s }

func TestUpdateIsAllOrNothing(t *testing.T) {
	u := newDemoUser(t)
	before := u.Record()

	err := u.Update(UpdateInput{Name: strp("Valid Name"), Email: strp("bad"), Phone: strp("123")})
	require.ErrorIs(t, err, ErrUpdateInvalid)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Len(t, appErr.Violations, 2)
	require.Equal(t, "email", appErr.Violations[0].Field)
	require.Equal(t, "phone", appErr.Violations[1].Field)
	require.Equal(t, before, u.Record())

	err = u.Update(UpdateInput{Name: strp("Valid Name"), Email: strp("New@Mail.com"), Phone: strp("123456")})
	require.NoError(t, err)
	require.Equal(t, "Valid Name", u.Name())
	require.Equal(t, "new@mail.com", u.Email())
	require.Equal(t, "123456", u.Phone())
}

func TestUpdateSingleViolationKeepsFieldCode(t *testing.T) {
	u := newDemoUser(t)
	err := u.Update(UpdateInput{Name: strp("abc")})
	require.ErrorIs(t, err, ErrNameLength)
	require.Equal(t, "user", u.Name())
}

func TestUpdateSkipsNilFields(t *testing.T) {
	u := newDemoUser(t)
	require.NoError(t, u.Update(UpdateInput{Name: strp("Another Name")}))
	require.Equal(t, "Another Name", u.Name())
	require.Equal(t, "demo@user.com", u.Email())
	require.Equal(t, "", u.Phone())
}

func TestSetPassword(t *testing.T) {
	h := credential.NewHasher(bcrypt.MinCost)
	u := newDemoUser(t)
	require.Empty(t, u.PasswordHash())

	for _, weak := range []string{"weak", "pass", "password", "Password", "PAssword"} {
		require.ErrorIs(t, u.SetPassword(h, weak), credential.ErrWeakPassword, weak)
		require.Empty(t, u.PasswordHash())
	}

	require.NoError(t, u.SetPassword(h, "PAssword7"))
	require.NoError(t, u.SetPassword(h, "Str0ngPass1"))
	require.True(t, u.HasCredential())

	ok, err := credential.Verify("Str0ngPass1", u.PasswordHash())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = u.VerifyPassword("wrong")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetPasswordHash(t *testing.T) {
	u := newDemoUser(t)
	require.ErrorIs(t, u.SetPasswordHash("not-a-hash"), credential.ErrMalformedHash)
	require.False(t, u.HasCredential())

	hash, err := credential.NewHasher(bcrypt.MinCost).Hash("Str0ngPass1")
	require.NoError(t, err)
	require.NoError(t, u.SetPasswordHash(hash))

	ok, err := u.VerifyPassword("Str0ngPass1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestInvalidateCredential(t *testing.T) {
	u := newDemoUser(t)
	require.NoError(t, u.SetPassword(credential.NewHasher(bcrypt.MinCost), "Str0ngPass1"))

	u.InvalidateCredential()
	require.False(t, u.HasCredential())

	ok, err := u.VerifyPassword("Str0ngPass1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	u := newDemoUser(t)
	c := u.Clone()
	require.NoError(t, c.SetName("Changed Name"))
	require.Equal(t, "user", u.Name())
	require.Equal(t, u.ID(), c.ID())

}

func TestCustomersReturnsCopy(t *testing.T) {
	rec := newDemoUser(t).Record()
	rec.Customers = []string{"c1"}
	u, err := Restore(rec)
	require.NoError(t, err)

	customers := u.Customers()
	customers[0] = "changed"
	require.Equal(t, []string{"c1"}, u.Customers())
}

func TestRecordRestoreRoundTrip(t *testing.T) {
	u := newDemoUser(t)
	rec := u.Record()
	rec.Customers = []string{"c1", "c2"}

	restored, err := Restore(rec)
	require.NoError(t, err)
	require.Equal(t, rec, restored.Record())
}

func TestRestoreRejectsMalformedRecords(t *testing.T) {
	for _, rec := range []UserRecord{
		{ID: "", CreatedAt: fixedTime},
		{ID: "Demo", CreatedAt: fixedTime},
		{ID: "bad id", CreatedAt: fixedTime},
		{ID: "demo"},
	} {
		_, err := Restore(rec)
		require.ErrorIs(t, err, ErrRecordMalformed, "%+v", rec)
		require.Equal(t, apperror.KindInternal, apperror.KindOf(err))
		require.NotErrorIs(t, err, apperror.ErrValidation, "%+v", rec)
	}
}

func TestRestoreShortIDIsNotValidationError(t *testing.T) {
	_, err := Restore(UserRecord{ID: "ab", CreatedAt: fixedTime})
	require.ErrorIs(t, err, apperror.ErrInternal)
	require.NotErrorIs(t, err, apperror.ErrValidation)
	require.NotErrorIs(t, err, ErrIDLength)
	require.Contains(t, err.Error(), "id must be between 4 and 20 characters long")
}
