package validator

import (
	"context"
	"errors"
	"testing"
)

type moderation struct {
	ID       string `json:"id"`
	Author   string `json:"author" validate:"required_without=ID"`
	Approved string `json:"approved" validate:"tribute_status"`
}

func TestValidateTributeStatus(t *testing.T) {
	ctx := context.Background()
	for _, status := range []string{"Pending", "Approved", "Rejected"} {
		if err := Validate(ctx, moderation{Author: "Ada", Approved: status}); err != nil {
			t.Errorf("status %q: unexpected error %v", status, err)
		}
	}

	for _, status := range []string{"", "approved", "Deleted"} {
		err := Validate(ctx, moderation{Author: "Ada", Approved: status})
		var fe *FieldError
		if !errors.As(err, &fe) {
			t.Fatalf("status %q: expected *FieldError, got %v", status, err)
		}
		if fe.Tag != "tribute_status" {
			t.Errorf("status %q: tag = %q", status, fe.Tag)
		}
	}
}

func TestValidateSelectorRequired(t *testing.T) {
	ctx := context.Background()
	if err := Validate(ctx, moderation{ID: "TRB-00000001", Approved: "Approved"}); err != nil {
		t.Errorf("id alone should be enough: %v", err)
	}
	err := Validate(ctx, moderation{Approved: "Approved"})
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Tag != "required_without" {
		t.Errorf("expected required_without error, got %v", err)
	}
}

func TestFieldErrorUsesJSONName(t *testing.T) {
	err := Validate(context.Background(), moderation{Approved: "Approved"})
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %v", err)
	}
	if fe.Field != "author" || err.Error() != "Field is required: author" {
		t.Errorf("unexpected field error %q (field %q)", err, fe.Field)
	}
}
