package services_test

import (
	"errors"
	"fmt"
	"testing"

	"gleaner/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrAcquisition, "process", "download corpus", "wikipedia dump", base)
	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected acquisition marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	want := "acquisition error: process: download corpus: wikipedia dump: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "process", "parse params", "", nil), "validation_error"},
		{services.Wrap(services.ErrAcquisition, "process", "stream", "", nil), "acquisition_error"},
		{services.Wrap(services.ErrUpload, "process", "upload", "", nil), "upload_error"},
		{fmt.Errorf("wrapped: %w", services.ErrConfiguration), "configuration_error"},
		{errors.New("unclassified"), "internal_error"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
