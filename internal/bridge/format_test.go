package bridge

import (
	"strings"
	"testing"
)

func TestToMrkdwn(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold",
			in:   "this is **important** text",
			want: "this is *important* text",
		},
		{
			name: "headers become bold lines",
			in:   "## Changes\ndone",
			want: "*Changes*\ndone",
		},
		{
			name: "links",
			in:   "see [the site](https://staging.gszep.com)",
			want: "see <https://staging.gszep.com|the site>",
		},
		{
			name: "plain text untouched",
			in:   "nothing special here",
			want: "nothing special here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToMrkdwn(tt.in); got != tt.want {
				t.Errorf("ToMrkdwn(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	short := "fits fine"
	if got := Truncate(short); got != short {
		t.Errorf("short text must pass through, got %q", got)
	}

	long := strings.Repeat("x", messageLimit+500)
	got := Truncate(long)
	if !strings.HasSuffix(got, "_... (truncated)_") {
		t.Error("truncated text must be marked")
	}
	if len(got) > messageLimit+len("\n_... (truncated)_") {
		t.Errorf("truncated length = %d", len(got))
	}
}
