package workforce

import (
	"reflect"
	"testing"
)

func TestFirstTag(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		tag    string
		want   string
		wantOK bool
	}{
		{
			name:   "simple",
			input:  "<answer>42</answer>",
			tag:    "answer",
			want:   "42",
			wantOK: true,
		},
		{
			name:   "surrounding prose",
			input:  "Let me think.\n<answer>42</answer>\nDone.",
			tag:    "answer",
			want:   "42",
			wantOK: true,
		},
		{
			name:   "multiline content",
			input:  "<analysis>line one\nline two</analysis>",
			tag:    "analysis",
			want:   "line one\nline two",
			wantOK: true,
		},
		{
			name:   "whitespace trimmed",
			input:  "<mode>\n  DIRECT_ANSWER  \n</mode>",
			tag:    "mode",
			want:   "DIRECT_ANSWER",
			wantOK: true,
		},
		{
			name:   "first of several",
			input:  "<task>a</task><task>b</task>",
			tag:    "task",
			want:   "a",
			wantOK: true,
		},
		{
			name:   "unknown sibling tags ignored",
			input:  "<other>x</other><answer>42</answer>",
			tag:    "answer",
			want:   "42",
			wantOK: true,
		},
		{
			name:   "absent",
			input:  "no tags here",
			tag:    "answer",
			wantOK: false,
		},
		{
			name:   "unterminated",
			input:  "<answer>42",
			tag:    "answer",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstTag(tt.input, tt.tag)
			if ok != tt.wantOK {
				t.Fatalf("firstTag ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("firstTag = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "ordered",
			input: "<task>first</task>\n<task>second</task>\n<task>third</task>",
			want:  []string{"first", "second", "third"},
		},
		{
			name:  "empty regions skipped",
			input: "<task>a</task><task>  </task><task>b</task>",
			want:  []string{"a", "b"},
		},
		{
			name:  "none",
			input: "plain text",
			want:  nil,
		},
		{
			name:  "trailing unterminated dropped",
			input: "<task>a</task><task>b",
			want:  []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := allTags(tt.input, "task")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("allTags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plain form",
			input: "<task>search</task><task>summarize</task>",
			want:  []string{"search", "summarize"},
		},
		{
			name:  "id annotated form",
			input: "<task_id:2>verify</task_id:2>\n<task_id:3>report</task_id:3>",
			want:  []string{"verify", "report"},
		},
		{
			name:  "mixed forms",
			input: "<task>search</task><task_id:2>verify</task_id:2>",
			want:  []string{"search", "verify"},
		},
		{
			name:  "unrelated task-prefixed tags skipped",
			input: "<task_status>success</task_status><task>real</task>",
			want:  []string{"real"},
		},
		{
			name:  "empty names dropped",
			input: "<task></task><task>kept</task>",
			want:  []string{"kept"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := taskNames(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("taskNames = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGraded(t *testing.T) {
	tests := []struct {
		text  string
		grade string
		want  bool
	}{
		{"high", "high", true},
		{"high confidence", "high", true},
		{"confidence is high", "high", true},
		{"i would say high here", "high", true},
		{"highway", "high", false},
		{"highly confident", "high", false},
		{"high.", "high", true},
		{"medium", "high", false},
		{"non-unique", "non-unique", true},
		{"the answer is non-unique", "non-unique", true},
	}

	for _, tt := range tests {
		if got := graded(tt.text, tt.grade); got != tt.want {
			t.Errorf("graded(%q, %q) = %v, want %v", tt.text, tt.grade, got, tt.want)
		}
	}
}
