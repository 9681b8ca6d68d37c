package store

import "testing"

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		id     int
		ext    string
		want   string
	}{
		{"", 1, "zst", "shards/00001.zst"},
		{"evals", 42, "zst", "evals/shards/00042.zst"},
		{"evals/v2/", 99999, "gz", "evals/v2/shards/99999.gz"},
		{"/evals/", 7, "", "evals/shards/00007"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.prefix, tt.id, tt.ext); got != tt.want {
			t.Errorf("ObjectKey(%q, %d, %q) = %q, want %q", tt.prefix, tt.id, tt.ext, got, tt.want)
		}
	}
}
