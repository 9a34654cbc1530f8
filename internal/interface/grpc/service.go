package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "userregistry.v1.UserService"

// UserService is the application surface served over gRPC.
type UserService interface {
	CreateUser(ctx context.Context, in application.CreateUserInput) (*entity.User, error)
	GetAllUsers(ctx context.Context) ([]*entity.User, error)
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	UpdateUserByID(ctx context.Context, in application.UpdateUserInput) (*entity.User, error)
	UserExists(ctx context.Context, id string) (bool, error)
	SetPassword(ctx context.Context, id, password string) error
	VerifyPassword(ctx context.Context, id, password string) (bool, error)
	ResetPassword(ctx context.Context, id string) error
}

// UserServiceServer is the server API for ServiceName. Every message is a
// google.protobuf.Struct.
type UserServiceServer interface {
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAllUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUserById(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUserById(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UserExists(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv UserServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(UserServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(UserServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// UserServiceDesc describes ServiceName for grpc.Server.RegisterService.
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateUser", UserServiceServer.CreateUser),
		unaryMethod("GetAllUsers", UserServiceServer.GetAllUsers),
		unaryMethod("GetUserById", UserServiceServer.GetUserById),
		unaryMethod("UpdateUserById", UserServiceServer.UpdateUserById),
		unaryMethod("UserExists", UserServiceServer.UserExists),
		unaryMethod("SetPassword", UserServiceServer.SetPassword),
		unaryMethod("VerifyPassword", UserServiceServer.VerifyPassword),
		unaryMethod("ResetPassword", UserServiceServer.ResetPassword),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "userregistry/v1/user_service.proto",
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

// Handler adapts UserService to UserServiceServer. Errors are returned as
// apperror values; ErrorInterceptor turns them into statuses.
type Handler struct {
	svc UserService
}

func NewHandler(svc UserService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in application.CreateUserInput
	fields := []struct {
		name string
		dst  *string
	}{
		{fieldID, &in.ID},
		{fieldName, &in.Name},
		{fieldEmail, &in.Email},
		{fieldPhone, &in.Phone},
		{fieldCreatedBy, &in.CreatedBy},
	}
	for _, f := range fields {
		v, err := stringField(req, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	u, err := h.svc.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return userResponse(u), nil
}

func (h *Handler) GetAllUsers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	users, err := h.svc.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]*structpb.Value, 0, len(users))
	for _, u := range users {
		values = append(values, encodeUser(u))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldUsers: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}, nil
}

func (h *Handler) GetUserById(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, fieldID)
	if err != nil {
		return nil, err
	}
	u, err := h.svc.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return userResponse(u), nil
}

func (h *Handler) UpdateUserById(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	payload, ok := structField(req, fieldUser)
	if !ok {
		return nil, apperror.Invalid(fieldUser, "user is required")
	}
	id, err := stringField(payload, fieldID)
	if err != nil {
		return nil, err
	}
	in := application.UpdateUserInput{ID: id}
	if in.Name, err = optionalString(payload, fieldName); err != nil {
		return nil, err
	}
	if in.Email, err = optionalString(payload, fieldEmail); err != nil {
		return nil, err
	}
	if in.Phone, err = optionalString(payload, fieldPhone); err != nil {
		return nil, err
	}
	u, err := h.svc.UpdateUserByID(ctx, in)
	if err != nil {
		return nil, err
	}
	return userResponse(u), nil
}

func (h *Handler) UserExists(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, fieldID)
	if err != nil {
		return nil, err
	}
	ok, err := h.svc.UserExists(ctx, id)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{fieldUserExists: structpb.NewBoolValue(ok)}}, nil
}

func (h *Handler) SetPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, fieldID)
	if err != nil {
		return nil, err
	}
	password, err := stringField(req, fieldPassword)
	if err != nil {
		return nil, err
	}
	if err := h.svc.SetPassword(ctx, id, password); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (h *Handler) VerifyPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, fieldID)
	if err != nil {
		return nil, err
	}
	password, err := stringField(req, fieldPassword)
	if err != nil {
		return nil, err
	}
	ok, err := h.svc.VerifyPassword(ctx, id, password)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{fieldValid: structpb.NewBoolValue(ok)}}, nil
}

func (h *Handler) ResetPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, fieldID)
	if err != nil {
		return nil, err
	}
	if err := h.svc.ResetPassword(ctx, id); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

var (
	_ UserServiceServer = (*Handler)(nil)
	_ UserService       = (*application.Service)(nil)
)
