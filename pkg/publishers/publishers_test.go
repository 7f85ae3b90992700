package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: topic
    type: sns
    sns:
      topic_arn: " arn:aws:sns:ca-central-1:123:ads "
      region: ca-central-1
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "topic" {
		t.Fatalf("expected only topic enabled, got %#v", enabled)
	}
	if enabled[0].SNS.TopicARN != "arn:aws:sns:ca-central-1:123:ads" {
		t.Fatalf("expected trimmed topic arn, got %q", enabled[0].SNS.TopicARN)
	}
	if all := reg.All(); len(all) != 2 || all[0].ID != "http1" {
		t.Fatalf("expected disabled publisher to remain listed, got %#v", all)
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers":[{"id":"a","type":"http","http":{"url":"https://x"}},{"id":"a","type":"http","http":{"url":"https://y"}}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidatePublisherConfigRequiresTypeBlocks(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "h1", Type: TypeHTTP},
		{ID: "s1", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q"}},
		{ID: "n1", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "ca-central-1"}},
		{ID: "p1", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "proj"}},
		{ID: "k1", Type: "kafka"},
	}
	for _, cfg := range cases {
		if err := cfg.normalized().validate(); err == nil {
			t.Fatalf("expected validation error for %s", cfg.ID)
		}
	}
}

func TestLoadRegistryRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.toml")
	if err := os.WriteFile(path, []byte("publishers = []"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}
