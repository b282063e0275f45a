package utils

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "maria.lopez@example.com", "x+tag@sub.domain.org"}
	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Fatalf("%q should be valid", e)
		}
	}
	invalid := []string{"", "plain", "@nouser.com", "user@", "user@nodot"}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Fatalf("%q should be invalid", e)
		}
	}
}

func TestProcessValidationErrorsNonValidatorError(t *testing.T) {
	// json decode errors reach this helper through the binding path
	var body struct {
		Amount float64 `json:"amount"`
	}
	err := json.Unmarshal([]byte(`{"amount": "abc"}`), &body)
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if fields := ProcessValidationErrors(err); fields != nil {
		t.Fatalf("non-validator error should yield nil, got %v", fields)
	}
}

func TestDereferencePtr(t *testing.T) {
	v := 7
	if got := DereferencePtr(&v, 0); got != 7 {
		t.Fatalf("got %d", got)
	}
	if got := DereferencePtr[int](nil, 3); got != 3 {
		t.Fatalf("default not applied: %d", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{1, 2, 2, 3, 1})
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	conflict := NewConflictError("due %s is already paid", "REC-5")
	if !IsConflict(conflict) {
		t.Fatal("conflict not recognized")
	}
	if IsValidation(conflict) {
		t.Fatal("conflict misread as validation")
	}

	validation := NewValidationError("amount must be positive")
	if !IsValidation(validation) {
		t.Fatal("validation not recognized")
	}

	wrapped := errors.Join(errors.New("outer"), conflict)
	if !IsConflict(wrapped) {
		t.Fatal("wrapped conflict not recognized")
	}

	if IsConflict(ErrorRecordNotFound) || IsValidation(ErrorRecordNotFound) {
		t.Fatal("not-found misclassified")
	}
}

func TestParseDecimal(t *testing.T) {
	v, err := ParseDecimal("120.50")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.String() != "120.5" {
		t.Fatalf("got %s", v)
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatal("expected error")
	}
}
