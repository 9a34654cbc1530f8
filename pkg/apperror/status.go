package apperror

import (
	"net/http"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCCode maps a kind to its transport status code.
func (k Kind) GRPCCode() codes.Code {
	switch k {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindAlreadyExists:
		return codes.AlreadyExists
	case KindUnimplemented:
		return codes.Unimplemented
	default:
		return codes.Internal
	}
}

// HTTPStatus maps a kind to an HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindUnimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// ToGRPCStatus converts err into a gRPC status error carrying ErrorInfo and,
// for validation failures, BadRequest field violations. Internal causes are
// not exposed to the caller.
func ToGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	e, ok := As(err)
	if !ok {
		if st, isStatus := status.FromError(err); isStatus {
			return st.Err()
		}
		return status.New(codes.Internal, "internal error").Err()
	}

	msg := e.Message
	if e.Kind == KindInternal {
		msg = "internal error"
	}
	st := status.New(e.Kind.GRPCCode(), msg)

	info := &errdetails.ErrorInfo{Reason: string(e.Code), Domain: Domain}
	if e.Field != "" {
		info.Metadata = map[string]string{"field": e.Field, "constraint": e.Constraint}
	}
	var (
		withDetails *status.Status
		dErr        error
	)
	if e.Kind == KindValidation && len(e.Violations) > 0 {
		br := &errdetails.BadRequest{}
		for _, v := range e.Violations {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       v.Field,
				Description: v.Constraint + ": " + v.Message,
			})
		}
		withDetails, dErr = st.WithDetails(info, br)
	} else {
		withDetails, dErr = st.WithDetails(info)
	}
	if dErr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// FromGRPCStatus rebuilds an *Error from a status produced by ToGRPCStatus.
func FromGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return Internal(CodeUnknown, "rpc failed", err)
	}
	out := &Error{Kind: kindFromGRPC(st.Code()), Code: CodeUnknown, Message: st.Message()}
	for _, d := range st.Details() {
		switch det := d.(type) {
		case *errdetails.ErrorInfo:
			out.Code = Code(det.GetReason())
			out.Field = det.GetMetadata()["field"]
			out.Constraint = det.GetMetadata()["constraint"]
		case *errdetails.BadRequest:
			for _, fv := range det.GetFieldViolations() {
				constraint, msg, _ := strings.Cut(fv.GetDescription(), ": ")
				out.Violations = append(out.Violations, FieldViolation{Field: fv.GetField(), Constraint: constraint, Message: msg})
			}
		}
	}
	return out
}

func kindFromGRPC(c codes.Code) Kind {
	switch c {
	case codes.InvalidArgument:
		return KindValidation
	case codes.NotFound:
		return KindNotFound
	case codes.AlreadyExists:
		return KindAlreadyExists
	case codes.Unimplemented:
		return KindUnimplemented
	default:
		return KindInternal
	}
}
