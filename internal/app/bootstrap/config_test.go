package bootstrap

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "maestros_test",
		BotToken:           "token",
		GuildID:            "123456789012345678",
		CEORoleID:          "111111111111111111",
		ManagerRoleID:      "222222222222222222",
		MemberRoleID:       "333333333333333333",
		AdminIDs:           []string{"444444444444444444"},
		JWTSecret:          "test-secret",
		JWTExpiry:          24 * time.Hour,
		RateLimitPerMinute: 60,
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	if err := ValidateConfig(nil, validAppConfig(), zap.NewNop()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateConfig_MissingRequired(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"jwt secret": func(c *AppConfig) { c.JWTSecret = "" },
		"bot token":  func(c *AppConfig) { c.BotToken = "" },
		"guild id":   func(c *AppConfig) { c.GuildID = "" },
	}
	for name, mutate := range cases {
		cfg := validAppConfig()
		mutate(&cfg)
		if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
			t.Errorf("%s: expected error for missing value", name)
		}
	}
}

func TestValidateConfig_NonNumericRoleID(t *testing.T) {
	cfg := validAppConfig()
	cfg.ManagerRoleID = "@Managers"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for non-numeric role ID")
	}
}

func TestValidateConfig_BlankRoleIDAllowed(t *testing.T) {
	cfg := validAppConfig()
	cfg.CEORoleID = ""
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err != nil {
		t.Fatalf("blank role ID should be accepted, got %v", err)
	}
}

func TestValidateConfig_BadAdminID(t *testing.T) {
	cfg := validAppConfig()
	cfg.AdminIDs = []string{"not-a-snowflake"}
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for non-numeric admin ID")
	}
}

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{" a , b ,", []string{"a", "b"}},
		{",,", nil},
	}
	for _, tc := range cases {
		got := splitCSV(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitCSV(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitCSV(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}
