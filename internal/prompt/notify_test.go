package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriter_Notify(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Info, "connected\n"},
		{Success, "connected\n"},
		{Warning, "warning: connected\n"},
		{Error, "error: connected\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		Writer{W: &buf}.Notify(tt.kind, "connected")
		if got := buf.String(); !strings.HasSuffix(got, tt.want) || !strings.Contains(got, "connected") {
			t.Errorf("Notify(%s) = %q, want suffix %q", tt.kind, got, tt.want)
		}
	}
}

func TestDiscard(t *testing.T) {
	var n Notifier = Discard{}
	n.Notify(Error, "ignored")
}
