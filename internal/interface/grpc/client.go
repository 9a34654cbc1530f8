package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

// Client calls ServiceName over an existing connection. Failures come back as
// *apperror.Error rebuilt from the status details.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out); err != nil {
		return nil, apperror.FromGRPCStatus(err)
	}
	return out, nil
}

func (c *Client) invokeUser(ctx context.Context, method string, req *structpb.Struct) (UserView, error) {
	out, err := c.invoke(ctx, method, req)
	if err != nil {
		return UserView{}, err
	}
	inner, ok := structField(out, fieldUser)
	if !ok {
		return UserView{}, fmt.Errorf("%s: response has no user", method)
	}
	return decodeUser(inner)
}

func stringStruct(fields map[string]string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		s.Fields[k] = structpb.NewStringValue(v)
	}
	return s
}

// CreateUserRequest mirrors the CreateUser message.
type CreateUserRequest struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedBy string
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (UserView, error) {
	return c.invokeUser(ctx, "CreateUser", stringStruct(map[string]string{
		fieldID:        req.ID,
		fieldName:      req.Name,
		fieldEmail:     req.Email,
		fieldPhone:     req.Phone,
		fieldCreatedBy: req.CreatedBy,
	}))
}

func (c *Client) GetAllUsers(ctx context.Context) ([]UserView, error) {
	out, err := c.invoke(ctx, "GetAllUsers", &structpb.Struct{})
	if err != nil {
		return nil, err
	}
	values := out.GetFields()[fieldUsers].GetListValue().GetValues()
	users := make([]UserView, 0, len(values))
	for _, v := range values {
		u, err := decodeUser(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (c *Client) GetUserByID(ctx context.Context, id string) (UserView, error) {
	return c.invokeUser(ctx, "GetUserById", stringStruct(map[string]string{fieldID: id}))
}

// UpdateUserByID sends a full replacement of name, email and phone.
func (c *Client) UpdateUserByID(ctx context.Context, id, name, email, phone string) (UserView, error) {
	payload := stringStruct(map[string]string{fieldID: id, fieldName: name, fieldEmail: email, fieldPhone: phone})
	return c.invokeUser(ctx, "UpdateUserById", &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldUser: structpb.NewStructValue(payload),
	}})
}

func (c *Client) UserExists(ctx context.Context, id string) (bool, error) {
	out, err := c.invoke(ctx, "UserExists", stringStruct(map[string]string{fieldID: id}))
	if err != nil {
		return false, err
	}
	return out.GetFields()[fieldUserExists].GetBoolValue(), nil
}

func (c *Client) SetPassword(ctx context.Context, id, password string) error {
	_, err := c.invoke(ctx, "SetPassword", stringStruct(map[string]string{fieldID: id, fieldPassword: password}))
	return err
}

func (c *Client) VerifyPassword(ctx context.Context, id, password string) (bool, error) {
	out, err := c.invoke(ctx, "VerifyPassword", stringStruct(map[string]string{fieldID: id, fieldPassword: password}))
	if err != nil {
		return false, err
	}
	return out.GetFields()[fieldValid].GetBoolValue(), nil
}

func (c *Client) ResetPassword(ctx context.Context, id string) error {
	_, err := c.invoke(ctx, "ResetPassword", stringStruct(map[string]string{fieldID: id}))
	return err
}
