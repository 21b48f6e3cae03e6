package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"lockout": map[string]any{
			"failureWindow": "1h",
		},
		"reset": map[string]any{
			"linkBaseURL": "",
		},
		"encryption": map[string]any{
			"addressKey": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "LOCKOUT_FAILUREWINDOW", want: "lockout.failureWindow"},
		{envKey: "RESET_LINKBASEURL", want: "reset.linkBaseURL"},
		{envKey: "ENCRYPTION_ADDRESSKEY", want: "encryption.addressKey"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}
