package lang

import "testing"

func TestT(t *testing.T) {
	tests := []struct {
		lang, key string
		args      []interface{}
		want      string
	}{
		{Ja, "status_preparing", nil, "調理中"},
		{En, "status_ready", nil, "Ready"},
		{"fr", "status_collected", nil, "受取済"},
		{En, "card_total", []interface{}{850}, "Total: ¥850"},
		{Ja, "no_such_key", nil, "no_such_key"},
	}
	for _, tt := range tests {
		got := T(tt.lang, tt.key, tt.args...)
		if got != tt.want {
			t.Errorf("T(%q, %q) = %q, want %q", tt.lang, tt.key, got, tt.want)
		}
	}
}

func TestEveryKeyTranslated(t *testing.T) {
	for key := range messages[Ja] {
		if _, ok := messages[En][key]; !ok {
			t.Errorf("key %q missing in %s", key, En)
		}
	}
	for key := range messages[En] {
		if _, ok := messages[Ja][key]; !ok {
			t.Errorf("key %q missing in %s", key, Ja)
		}
	}
}
