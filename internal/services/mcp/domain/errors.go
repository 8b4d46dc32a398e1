package domain

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/status"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors/i18n"
)

var (
	errNothingToUndo = apperrors.New(apperrors.CodeUndoUnderflow, "nothing to undo")
	errNothingToRedo = apperrors.New(apperrors.CodeRedoUnderflow, "nothing to redo")
)

// ToolError is a localized domain failure returned by a tool handler. It
// carries the gRPC status of the domain error, with ErrorInfo and
// LocalizedMessage details.
type ToolError struct {
	Code    apperrors.Code
	Message string
	status  *status.Status
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Code, e.status.Code(), e.Message)
}

// GRPCStatus lets status.FromError read the tool error.
func (e *ToolError) GRPCStatus() *status.Status {
	return e.status
}

// toolError renders domain errors as localized tool failures. Other errors
// pass through unchanged.
func toolError(err error, locale string) error {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code == apperrors.CodeUnknown {
		return err
	}
	message := i18n.GetCatalog(locale).Format(string(domainErr.Code), domainErr.Metadata)
	return &ToolError{
		Code:    domainErr.Code,
		Message: message,
		status:  status.Convert(domainErr.ToGRPCStatus(locale, message)),
	}
}
