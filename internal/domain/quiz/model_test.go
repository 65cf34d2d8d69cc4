package quiz_test

import (
	"testing"

	"masgolf/internal/domain/quiz"
)

func TestResult_ValidateAndNormalize(t *testing.T) {
	r := quiz.Result{Name: " 최스윙 ", Phone: "+82-10-4444-5555", Email: "hh@hh.hh", SwingStyle: " 파워 "}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	r.Normalize()
	if r.Phone != "01044445555" {
		t.Errorf("Phone = %q", r.Phone)
	}
	if r.Email != "" {
		t.Errorf("Email = %q, want test address dropped", r.Email)
	}
	if r.Name != "최스윙" || r.SwingStyle != "파워" {
		t.Errorf("trim failed: %+v", r)
	}

	empty := quiz.Result{Name: "최스윙"}
	if err := empty.Validate(); err != quiz.ErrEmptyPhone {
		t.Errorf("Validate() = %v, want ErrEmptyPhone", err)
	}
}
