package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "S101",
			wantMsg: "Invalid configuration value",
			wantCat: CategoryConfig,
		},
		{
			name:    "cache error",
			code:    "S200",
			wantMsg: "Cache backend failed to open",
			wantCat: CategoryCache,
		},
		{
			name:    "auth error",
			code:    "S300",
			wantMsg: "Authentication failed",
			wantCat: CategoryAuth,
		},
		{
			name:    "unknown error code",
			code:    "S999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown theme %q", "sepia")
	if err.Message != `unknown theme "sepia"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestErrorString(t *testing.T) {
	if got, want := New("S100").Error(), "S100: Configuration file not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := stderrors.New("permission denied")
	if got, want := New("S200").Wrap(cause).Error(), "S200: Cache backend failed to open: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := New("S201").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "S201") != nil {
		t.Error("FromError(nil) should be nil")
	}

	original := New("S300")
	wrapped := fmtWrap(original)
	if got := FromError(wrapped, "S201"); got != original {
		t.Errorf("FromError should return the wrapped *Error, got %v", got)
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "S201")
	if got.Code != "S201" || !stderrors.Is(got, plain) {
		t.Errorf("FromError(plain) = %+v", got)
	}
}

func fmtWrap(err error) error {
	return stderrors.Join(stderrors.New("context"), err)
}

func TestFormat(t *testing.T) {
	err := New("S101").
		WithDetail("cache.backend must be one of memory, file, badger").
		WithSuggestion("Set cache.backend: file").
		Wrap(stderrors.New(`got "redis"`))

	out := err.Format()
	for _, want := range []string{"S101", "Invalid configuration value", "cache.backend must be", "Hint:", "Set cache.backend: file", `got "redis"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("S300").WithSuggestion("try admin").Wrap(stderrors.New("nope"))

	var got map[string]string
	if e := json.Unmarshal([]byte(err.FormatJSON()), &got); e != nil {
		t.Fatalf("FormatJSON() is not JSON: %v", e)
	}
	if got["code"] != "S300" || got["category"] != "auth" || got["cause"] != "nope" || got["suggestion"] != "try admin" {
		t.Errorf("FormatJSON() = %v", got)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, New("S400"))
	if !strings.Contains(buf.String(), "S400") {
		t.Errorf("Print() = %q", buf.String())
	}

	buf.Reset()
	Print(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("Print() = %q", buf.String())
	}
}

func TestCodesAreRegistered(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 {
		t.Fatal("no codes registered")
	}
	for _, code := range codes {
		tmpl, ok := Lookup(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has an incomplete template: %+v", code, tmpl)
		}
	}

	Register("S599", Template{Category: CategoryStore, Message: "custom"})
	if New("S599").Message != "custom" {
		t.Error("Register did not add the template")
	}
}
