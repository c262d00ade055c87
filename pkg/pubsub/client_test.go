package pubsub

import (
	"context"
	"testing"

	"github.com/zycart/zycart-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project, name, want string
	}{
		{"proj", "orders", "projects/proj/topics/orders"},
		{"proj", " orders ", "projects/proj/topics/orders"},
		{"proj", "projects/other/topics/reviews", "projects/other/topics/reviews"},
		{"", "orders", ""},
		{"proj", "", ""},
	}
	for _, tc := range cases {
		if got := topicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("topicResourceName(%q,%q)=%q want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, []string{"orders"}, nil)
	if err != errProjectIDRequired {
		t.Fatalf("expected errProjectIDRequired, got %v", err)
	}
}

func TestTrimmedDropsBlankTopics(t *testing.T) {
	got := trimmed([]string{" a ", "", "  ", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected topics %v", got)
	}
}

func TestClientOptionsPrefersInlineCredentials(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected no options, got %d", len(opts))
	}
	if opts := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/x.json"}); len(opts) != 1 {
		t.Fatalf("expected one option, got %d", len(opts))
	}
}
