package errors

import (
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	e := NewWithCode(ErrorTypeRateLimit, "too many requests", 429)
	want := "rate_limit error (code 429): too many requests"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	e2 := New(ErrorTypeNoWorkUnits, "no follower list found")
	want2 := "no_work_units error: no follower list found"
	if e2.Error() != want2 {
		t.Errorf("Error() = %q, want %q", e2.Error(), want2)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError}
	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("IsRetryable(%s) = false, want true", et)
		}
	}

	fatal := []ErrorType{
		ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing,
		ErrorTypeNoWorkUnits, ErrorTypeRunFailed, ErrorTypeUnknown,
	}
	for _, et := range fatal {
		if IsRetryable(et) {
			t.Errorf("IsRetryable(%s) = true, want false", et)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	cases := map[int]bool{
		0:   true,
		429: true,
		500: true,
		502: true,
		503: true,
		504: true,
		599: true,
		401: false,
		403: false,
		404: false,
		200: false,
	}
	for code, want := range cases {
		if got := IsRetryableStatusCode(code); got != want {
			t.Errorf("IsRetryableStatusCode(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestConstructorHints(t *testing.T) {
	if SessionExpired(401).Hint == "" {
		t.Error("SessionExpired should carry a remediation hint")
	}
	if RateLimitExhausted(8).Code != 429 {
		t.Error("RateLimitExhausted should carry the 429 code")
	}
	if RunFailed("run-1", "FAILED").Type != ErrorTypeRunFailed {
		t.Error("RunFailed should be typed run_failed")
	}
}

func TestTypeOf(t *testing.T) {
	if TypeOf(New(ErrorTypeAuth, "x")) != ErrorTypeAuth {
		t.Error("TypeOf should unwrap typed errors")
	}
	if TypeOf(errPlain{}) != ErrorTypeUnknown {
		t.Error("TypeOf on a plain error should be unknown")
	}
}

func TestTypeOfUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("failed to submit batch 3: %w", RunFailed("run-9", "FAILED"))
	if TypeOf(wrapped) != ErrorTypeRunFailed {
		t.Error("TypeOf should see through fmt.Errorf wrapping")
	}

	double := fmt.Errorf("pass aborted: %w", wrapped)
	if TypeOf(double) != ErrorTypeRunFailed {
		t.Error("TypeOf should unwrap through multiple layers")
	}
}

type errPlain struct{}

func (errPlain) Error() string { return "plain" }
