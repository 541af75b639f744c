package deploy

import "testing"

func TestClassifyValidation(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want validationKind
	}{
		{
			name: "existing pull request",
			msg:  "A pull request already exists for gszep:staging.",
			want: validationAlreadyExists,
		},
		{
			name: "existing pull request, different casing",
			msg:  "A pull request ALREADY EXISTS for gszep:staging.",
			want: validationAlreadyExists,
		},
		{
			name: "no commits between branches",
			msg:  "No commits between main and staging",
			want: validationNoDiff,
		},
		{
			name: "nothing to compare",
			msg:  "There's nothing to compare.",
			want: validationNoDiff,
		},
		{
			name: "unrelated validation failure",
			msg:  "head sha can't be blank",
			want: validationOther,
		},
		{
			name: "empty message",
			msg:  "",
			want: validationOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyValidation(tt.msg); got != tt.want {
				t.Errorf("classifyValidation(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}
