package middleware

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateServiceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"simple", "billing", nil},
		{"with separators", "billing-export.v2", nil},
		{"with spaces", "nightly report job", nil},
		{"too short", "x", ErrServiceNameTooShort},
		{"too long", strings.Repeat("a", MaxServiceNameLength+1), ErrServiceNameTooLong},
		{"invalid characters", "billing<script>", ErrServiceNameInvalid},
		{"unicode", "факту́ра", ErrServiceNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateServiceName(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateServiceName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	t.Parallel()

	if err := ValidateDescription("rotates weekly"); err != nil {
		t.Errorf("short description rejected: %v", err)
	}
	if err := ValidateDescription(""); err != nil {
		t.Errorf("empty description rejected: %v", err)
	}
	if err := ValidateDescription(strings.Repeat("d", MaxDescriptionLength+1)); !errors.Is(err, ErrDescriptionTooLong) {
		t.Errorf("oversized description: err = %v, want ErrDescriptionTooLong", err)
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	if err := ValidateEmail("user@example.com"); err != nil {
		t.Errorf("normal email rejected: %v", err)
	}
	long := strings.Repeat("a", MaxEmailLength) + "@example.com"
	if err := ValidateEmail(long); !errors.Is(err, ErrEmailTooLong) {
		t.Errorf("oversized email: err = %v, want ErrEmailTooLong", err)
	}
}

func TestValidatePermissions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		perms   []string
		wantErr error
	}{
		{"empty", nil, nil},
		{"known", []string{"read:data", "write:data"}, nil},
		{"case insensitive", []string{"READ:DATA"}, nil},
		{"admin", []string{"admin"}, nil},
		{"unknown", []string{"read:data", "launch:missiles"}, ErrPermissionInvalid},
		{"too many", make([]string, MaxPermissions+1), ErrTooManyPermissions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidatePermissions(tt.perms)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePermissions(%v) = %v, want %v", tt.perms, err, tt.wantErr)
			}
		})
	}
}
