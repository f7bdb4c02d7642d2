package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type validatedInput struct {
	Code   string `json:"code" validate:"required,alphanum_"`
	Reason string `json:"reason" validate:"notblank"`
}

func TestTranslateErrors(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	tests := []struct {
		name       string
		input      validatedInput
		wantFields map[string]string
	}{
		{
			name:  "valid",
			input: validatedInput{Code: "CS-101", Reason: "graduated"},
		},
		{
			name:  "missing code and blank reason",
			input: validatedInput{Reason: "   "},
			wantFields: map[string]string{
				"code":   requiredText,
				"reason": notBlankText,
			},
		},
		{
			name:       "code with spaces",
			input:      validatedInput{Code: "CS 101", Reason: "ok"},
			wantFields: map[string]string{"code": alphaNumDashText},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := TranslateErrors(validate.Struct(tc.input), translator)
			if len(tc.wantFields) == 0 {
				if err != nil {
					t.Fatalf("TranslateErrors() = %v; want nil", err)
				}
				return
			}
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("TranslateErrors() = %T; want *ValidationError", err)
			}
			if len(vErr.Fields) != len(tc.wantFields) {
				t.Fatalf("got %d field errors; want %d", len(vErr.Fields), len(tc.wantFields))
			}
			for _, fld := range vErr.Fields {
				if want := tc.wantFields[fld.Field]; fld.Error != want {
					t.Errorf("field %q: got %q; want %q", fld.Field, fld.Error, want)
				}
			}
		})
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		in    string
		lower bool
		want  string
	}{
		{in: "  Grp-1 ", want: "Grp-1"},
		{in: "  Grp-1 ", lower: true, want: "grp-1"},
		{in: "\t\n", want: ""},
	}
	for _, tc := range tests {
		if got := CleanString(tc.in, tc.lower); got != tc.want {
			t.Errorf("CleanString(%q, %v) = %q; want %q", tc.in, tc.lower, got, tc.want)
		}
	}
}
