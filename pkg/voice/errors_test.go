package voice

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorCategoryTerminal(t *testing.T) {
	t.Parallel()

	transient := []ErrorCategory{CategoryNoSpeech, CategoryAborted}
	for _, c := range transient {
		if c.Terminal() {
			t.Errorf("%v.Terminal() = true, want false", c)
		}
	}
	terminal := []ErrorCategory{CategoryPermissionDenied, CategoryNoDevice, CategoryNetwork, CategoryUnsupported}
	for _, c := range terminal {
		if !c.Terminal() {
			t.Errorf("%v.Terminal() = false, want true", c)
		}
		if c.Message() == "" {
			t.Errorf("%v.Message() = empty, terminal categories need user-facing text", c)
		}
	}
}

func TestRecognitionErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("NotAllowedError")
	err := &RecognitionError{Category: CategoryPermissionDenied, Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() = false, want unwrap to cause")
	}
	if !strings.Contains(err.Error(), "permission-denied") {
		t.Errorf("Error() = %q, want category name", err.Error())
	}

	bare := &RecognitionError{Category: CategoryNoSpeech}
	if !strings.Contains(bare.Error(), "no-speech") {
		t.Errorf("Error() = %q, want category name", bare.Error())
	}
}

func TestOriginSecure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		origin Origin
		want   bool
	}{
		{Origin{Scheme: "https", Hostname: "cloud.example.com"}, true},
		{Origin{Scheme: "wss", Hostname: "cloud.example.com"}, true},
		{Origin{Scheme: "http", Hostname: "cloud.example.com"}, false},
		{Origin{Scheme: "http", Hostname: "localhost"}, true},
		{Origin{Scheme: "http", Hostname: "127.0.0.1"}, true},
		{Origin{Scheme: "ws", Hostname: "prod.example.com"}, false},
	}
	for _, tt := range tests {
		if got := tt.origin.Secure(); got != tt.want {
			t.Errorf("Origin{%s, %s}.Secure() = %v, want %v",
				tt.origin.Scheme, tt.origin.Hostname, got, tt.want)
		}
	}
}
