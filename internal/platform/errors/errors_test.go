package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeInvalidPointInput, "winner must be 0 or 1")
	if !stderrors.Is(err, &Error{Code: CodeInvalidPointInput}) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, &Error{Code: CodeMatchCompleted}) {
		t.Fatal("expected errors.Is to reject a different code")
	}
}

func TestCodeOfWalksWrappedChain(t *testing.T) {
	err := fmt.Errorf("add point: %w", New(CodeMatchCompleted, "match completed"))
	if got := CodeOf(err); got != CodeMatchCompleted {
		t.Fatalf("code = %s, want %s", got, CodeMatchCompleted)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
	if !HasCode(err, CodeMatchCompleted) {
		t.Fatal("expected HasCode to find wrapped code")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("unexpected token")
	err := Wrap(CodeInvalidFormat, "parse format", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "parse format: unexpected token" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeInvalidFormat, codes.InvalidArgument},
		{CodeInvalidPointInput, codes.InvalidArgument},
		{CodeStateDeserialization, codes.InvalidArgument},
		{CodeMatchCompleted, codes.FailedPrecondition},
		{CodeSegmentTied, codes.FailedPrecondition},
		{CodeUndoUnderflow, codes.FailedPrecondition},
		{CodeNotFound, codes.NotFound},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.GRPCCode(); got != tt.want {
				t.Fatalf("GRPCCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeSegmentTied, "segment tied", map[string]string{"Side1": "3", "Side2": "3"})
	st, ok := status.FromError(err.ToGRPCStatus("en-US", "tied"))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("status code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	var foundInfo bool
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			foundInfo = true
			if info.Reason != string(CodeSegmentTied) {
				t.Fatalf("reason = %s, want %s", info.Reason, CodeSegmentTied)
			}
			if info.Metadata["Side1"] != "3" {
				t.Fatalf("metadata side1 = %q, want %q", info.Metadata["Side1"], "3")
			}
		}
	}
	if !foundInfo {
		t.Fatal("expected ErrorInfo detail")
	}
}
