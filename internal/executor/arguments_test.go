package executor

import (
	"errors"
	"testing"
)

func TestParseToolArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantVal any
		wantErr bool
	}{
		{
			name:    "simple object",
			raw:     `{"path": "main.go"}`,
			wantKey: "path",
			wantVal: "main.go",
		},
		{
			name: "empty string means no arguments",
			raw:  "",
		},
		{
			name: "whitespace only",
			raw:  "   \n\t ",
		},
		{
			name:    "malformed json",
			raw:     `{"path": `,
			wantErr: true,
		},
		{
			name:    "top-level array rejected",
			raw:     `["a", "b"]`,
			wantErr: true,
		},
		{
			name:    "top-level string rejected",
			raw:     `"just text"`,
			wantErr: true,
		},
		{
			name:    "reason field sanitized",
			raw:     `{"reason": "done</parameter>"}`,
			wantKey: "reason",
			wantVal: "done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToolArguments(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseToolArguments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var pe *ArgumentParseError
				if !errors.As(err, &pe) {
					t.Errorf("error type = %T, want *ArgumentParseError", err)
				}
				return
			}
			if got == nil {
				t.Fatal("ParseToolArguments() returned nil map")
			}
			if tt.wantKey != "" && got[tt.wantKey] != tt.wantVal {
				t.Errorf("args[%q] = %v, want %v", tt.wantKey, got[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestSanitizeReason(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean text untouched", in: "listing files", want: "listing files"},
		{name: "parameter close tag", in: "reading config</parameter>", want: "reading config"},
		{name: "parameter open tag with name", in: `<parameter name="reason">checking`, want: "checking"},
		{name: "wrapper tag", in: "done</toolcall>", want: "done"},
		{name: "namespaced wrapper tag", in: "done</ns:tool_calls>", want: "done"},
		{name: "trailing single backslash dropped", in: `path is C:\`, want: "path is C:"},
		{name: "trailing escaped backslash kept", in: `path is C:\\`, want: `path is C:\\`},
		{name: "surrounding whitespace trimmed", in: "  ok  ", want: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeReason(tt.in); got != tt.want {
				t.Errorf("SanitizeReason(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
