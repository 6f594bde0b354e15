package grpcapi

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/blog-engagement/services/engagement/internal/engagement"
)

const errDomain = "engagement"

func withInfo(c codes.Code, reason, msg string, bad *errdetails.BadRequest) error {
	st := status.New(c, msg)
	info := &errdetails.ErrorInfo{Reason: reason, Domain: errDomain}
	var (
		st2 *status.Status
		err error
	)
	if bad != nil {
		st2, err = st.WithDetails(info, bad)
	} else {
		st2, err = st.WithDetails(info)
	}
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

func errInvalidArgument(reason, field, msg string) error {
	bad := &errdetails.BadRequest{FieldViolations: []*errdetails.BadRequest_FieldViolation{
		{Field: field, Description: msg},
	}}
	return withInfo(codes.InvalidArgument, reason, msg, bad)
}

func errUnauthenticated(msg string) error {
	return withInfo(codes.Unauthenticated, "UNAUTHENTICATED", msg, nil)
}

func errPermissionDenied(msg string) error {
	return withInfo(codes.PermissionDenied, "FORBIDDEN", msg, nil)
}

// toStatus maps engine errors onto gRPC status codes.
func toStatus(err error) error {
	var ve *engagement.ValidationError
	var se *engagement.StorageError
	switch {
	case errors.Is(err, engagement.ErrUnauthenticated):
		return errUnauthenticated("authentication required")
	case errors.As(err, &ve):
		return errInvalidArgument(validationReason(ve), ve.Field, ve.Err.Error())
	case errors.Is(err, engagement.ErrNotFound):
		return withInfo(codes.NotFound, "NOT_FOUND", "comment not found", nil)
	case errors.As(err, &se):
		return withInfo(codes.Unavailable, "STORAGE_UNAVAILABLE", "storage temporarily unavailable, retry later", nil)
	default:
		return withInfo(codes.Internal, "INTERNAL", "internal error", nil)
	}
}

func validationReason(ve *engagement.ValidationError) string {
	switch {
	case errors.Is(ve, engagement.ErrEmptyContent):
		return "EMPTY_CONTENT"
	case errors.Is(ve, engagement.ErrMissingAuthor):
		return "MISSING_AUTHOR"
	case errors.Is(ve, engagement.ErrInvalidStatus):
		return "INVALID_STATUS"
	case errors.Is(ve, engagement.ErrMissingSubject):
		return "MISSING_ID"
	}
	return "INVALID_ARGUMENT"
}
