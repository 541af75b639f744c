package config

import (
	"testing"

	"github.com/spf13/viper"
)

func withRequired(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("SLACK_BOT_TOKEN", "xoxb-test")
	viper.Set("SLACK_APP_TOKEN", "xapp-test")
	viper.Set("REPO_DIR", "/srv/site")
}

func TestLoadDefaults(t *testing.T) {
	withRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Model != "sonnet" {
		t.Errorf("model = %q, want sonnet", cfg.Model)
	}
	if cfg.SourceBranch != "staging" || cfg.TargetBranch != "main" {
		t.Errorf("branch pair = %s -> %s", cfg.SourceBranch, cfg.TargetBranch)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("upload dir = %q", cfg.UploadDir)
	}
	if cfg.IndexCapacity != 4096 {
		t.Errorf("index capacity = %d", cfg.IndexCapacity)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{name: "bot token", omit: "SLACK_BOT_TOKEN"},
		{name: "app token", omit: "SLACK_APP_TOKEN"},
		{name: "repo dir", omit: "REPO_DIR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRequired(t)
			viper.Set(tt.omit, "")

			if _, err := Load(); err == nil {
				t.Errorf("expected a fatal error when %s is missing", tt.omit)
			}
		})
	}
}

func TestApproverList(t *testing.T) {
	withRequired(t)
	viper.Set("APPROVED_USER_IDS", " U111, U222 ,,U333 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"U111", "U222", "U333"}
	if len(cfg.ApprovedUserIDs) != len(want) {
		t.Fatalf("approvers = %v", cfg.ApprovedUserIDs)
	}
	for i, id := range want {
		if cfg.ApprovedUserIDs[i] != id {
			t.Errorf("approvers[%d] = %q, want %q", i, cfg.ApprovedUserIDs[i], id)
		}
	}

	if !cfg.IsApprover("U222") {
		t.Error("listed user must be an approver")
	}
	if cfg.IsApprover("U999") {
		t.Error("unlisted user must not be an approver")
	}
}

func TestEmptyAllowListPermitsEveryone(t *testing.T) {
	withRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.IsApprover("U-anyone") {
		t.Error("empty allow-list should permit everyone")
	}
}
