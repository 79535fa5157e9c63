package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestGrpcCode(t *testing.T) {
	assert.Equal(t, codes.OK, Code(nil), "code should be OK")

	err := fmt.Errorf("test error")
	assert.Equal(t, codes.Unknown, Code(err), "code should be unknown")

	err = WithCode(err, codes.InvalidArgument)
	assert.Equal(t, codes.InvalidArgument, Code(err), "code should be InvalidArgument")

	err = WithCode(err, codes.AlreadyExists)
	assert.Equal(t, codes.AlreadyExists, Code(err), "code should be AlreadyExists")

	err = WrapPrefix(err, "wrapped", 0)
	assert.Equal(t, codes.AlreadyExists, Code(err), "code should still be AlreadyExists")
}

func TestHttpStatusCode(t *testing.T) {
	assert.Equal(t, 200, HTTPStatusCode(nil), "non errors should 200")

	err := fmt.Errorf("test error")
	assert.Equal(t, 500, HTTPStatusCode(err), "should default to 500")

	err = WithCode(err, codes.FailedPrecondition)
	assert.Equal(t, 412, HTTPStatusCode(err), "GRPC error should map to 412 http error")

	err = WithCode(err, codes.PermissionDenied)
	assert.Equal(t, 403, HTTPStatusCode(err), "PermissionDenied should map to 403")
}

func TestPrefix(t *testing.T) {
	err := fmt.Errorf("test error")
	err = WrapPrefix(err, "wrapped", 0)
	assert.Equal(t, "wrapped: test error", err.Error(), "error should have prefix")
}

func TestPublicMessage(t *testing.T) {
	err := New("internal detail")
	assert.Equal(t, "internal detail", err.GRPCStatus().Message())

	err = err.WithPublicMessage("public message")
	assert.Equal(t, "public message", err.GRPCStatus().Message())
	assert.Equal(t, "internal detail", err.Error(), "internal message should be unchanged")
}

func TestWrappedError(t *testing.T) {
	err := NewC("test error", codes.InvalidArgument)
	wrappedErr := fmt.Errorf("%w: wrapped error", err)

	assert.Equal(t, codes.InvalidArgument, Code(wrappedErr))
}

func TestMark(t *testing.T) {
	err := NewC("test error", codes.InvalidArgument)
	markedErr := Mark(err, 0)

	assert.True(t, Is(markedErr, err), "marked error should still satisfy Is")
	assert.Equal(t, codes.InvalidArgument, Code(markedErr))
}

func TestAppend(t *testing.T) {
	base := NewC("denied", codes.PermissionDenied)
	appended := base.Append("missing role")

	assert.True(t, Is(appended, base), "appended error should still satisfy Is")
	assert.Equal(t, "denied: missing role", appended.Error())
	assert.Equal(t, codes.PermissionDenied, Code(appended))
}
