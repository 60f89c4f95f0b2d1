package exr

import (
	"errors"
	"testing"

	"github.com/openexr-go/exrcore/internal/xdr"
)

func TestClassifyChunkErrorMapsShortBufferToBufferTooSmall(t *testing.T) {
	err := classifyChunkError(xdr.ErrShortBuffer, 7)

	var exrErr *Error
	if !errors.As(err, &exrErr) {
		t.Fatalf("classifyChunkError returned %v, want *Error", err)
	}
	if exrErr.Code != CodeBufferTooSmall {
		t.Errorf("Code = %q, want %q", exrErr.Code, CodeBufferTooSmall)
	}
	if exrErr.Details["chunk"] != 7 {
		t.Errorf("Details[chunk] = %v, want 7", exrErr.Details["chunk"])
	}
}

func TestClassifyChunkErrorPassesThroughOtherErrors(t *testing.T) {
	other := errors.New("some other failure")
	if got := classifyChunkError(other, 0); got != other {
		t.Errorf("classifyChunkError(other) = %v, want unchanged %v", got, other)
	}
}
