package grpcapi

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

// Wire field names.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldEmail       = "email"
	fieldPhone       = "phone"
	fieldCreatedBy   = "created_by"
	fieldCreatedAt   = "created_at"
	fieldCustomers   = "customers"
	fieldHasPassword = "has_password"
	fieldPassword    = "password"
	fieldUser        = "user"
	fieldUsers       = "users"
	fieldUserExists  = "user_exists"
	fieldValid       = "valid"
)

// UserView is the client-side decoding of a user message. The password hash
// never leaves the server.
type UserView struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	CreatedAt   time.Time
	CreatedBy   string
	Customers   []string
	HasPassword bool
}

func encodeUser(u *entity.User) *structpb.Value {
	customers := make([]*structpb.Value, 0, len(u.Customers()))
	for _, c := range u.Customers() {
		customers = append(customers, structpb.NewStringValue(c))
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		fieldID:          structpb.NewStringValue(u.ID()),
		fieldName:        structpb.NewStringValue(u.Name()),
		fieldEmail:       structpb.NewStringValue(u.Email()),
		fieldPhone:       structpb.NewStringValue(u.Phone()),
		fieldCreatedAt:   structpb.NewStringValue(u.CreatedAt().UTC().Format(time.RFC3339Nano)),
		fieldCreatedBy:   structpb.NewStringValue(u.CreatedBy()),
		fieldCustomers:   structpb.NewListValue(&structpb.ListValue{Values: customers}),
		fieldHasPassword: structpb.NewBoolValue(u.HasCredential()),
	}})
}

func userResponse(u *entity.User) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{fieldUser: encodeUser(u)}}
}

// optionalString returns the string field name, or nil when it is absent. A
// present field of another type is a shape error.
func optionalString(s *structpb.Struct, name string) (*string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, apperror.Field(apperror.CodeRequestInvalid, name, "type", name+" must be a string")
	}
	out := str.StringValue
	return &out, nil
}

// stringField returns the string field name, or "" when absent.
func stringField(s *structpb.Struct, name string) (string, error) {
	p, err := optionalString(s, name)
	if err != nil || p == nil {
		return "", err
	}
	return *p, nil
}

func structField(s *structpb.Struct, name string) (*structpb.Struct, bool) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, false
	}
	inner := v.GetStructValue()
	return inner, inner != nil
}

func decodeUser(s *structpb.Struct) (UserView, error) {
	if s == nil {
		return UserView{}, fmt.Errorf("user message is missing")
	}
	f := s.GetFields()
	view := UserView{
		ID:          f[fieldID].GetStringValue(),
		Name:        f[fieldName].GetStringValue(),
		Email:       f[fieldEmail].GetStringValue(),
		Phone:       f[fieldPhone].GetStringValue(),
		CreatedBy:   f[fieldCreatedBy].GetStringValue(),
		HasPassword: f[fieldHasPassword].GetBoolValue(),
		Customers:   []string{},
	}
	if raw := f[fieldCreatedAt].GetStringValue(); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return UserView{}, fmt.Errorf("decode created_at: %w", err)
		}
		view.CreatedAt = ts
	}
	for _, c := range f[fieldCustomers].GetListValue().GetValues() {
		view.Customers = append(view.Customers, c.GetStringValue())
	}
	return view, nil
}
