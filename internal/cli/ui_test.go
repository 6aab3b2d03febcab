package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/mangaforge/pkg/errors"
)

func TestStatsLine(t *testing.T) {
	tests := []struct {
		name   string
		stats  []stat
		cached int
		want   []string
		absent []string
	}{
		{"counts", []stat{{4, "pages"}, {9, "bubbles"}}, 0, []string{"4 pages", "9 bubbles"}, []string{"cached"}},
		{"zero counts dropped", []stat{{4, "pages"}, {0, "dropped"}}, 0, []string{"4 pages"}, []string{"dropped"}},
		{"cached pages", []stat{{2, "rendered"}}, 6, []string{"2 rendered", "6 cached"}, nil},
		{"everything cached", []stat{{0, "rendered"}}, 3, []string{"3 cached"}, []string{"rendered"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statsLine(tt.stats, tt.cached)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("statsLine() = %q, missing %q", got, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("statsLine() = %q, should not mention %q", got, a)
				}
			}
		})
	}
}

func TestMarkerLine(t *testing.T) {
	if got := markDone.line("Rendered %d pages", 3); !strings.HasSuffix(got, "Rendered 3 pages") || !strings.Contains(got, "✓") {
		t.Errorf("done line = %q", got)
	}
	if got := markWarn.line("%d pages failed", 2); !strings.Contains(got, "2 pages failed") || !strings.Contains(got, "!") {
		t.Errorf("warn line = %q", got)
	}
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
		not  string
	}{
		{
			name: "coded",
			err:  errors.New(errors.ErrCodeInvalidConfig, "page width must be positive"),
			want: []string{"✗", "page width must be positive", string(errors.ErrCodeInvalidConfig)},
			not:  string(errors.ErrCodeInvalidConfig) + ": ",
		},
		{
			name: "plain",
			err:  fmt.Errorf("open metadata dir: missing"),
			want: []string{"✗", "open metadata dir: missing"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ReportError(&buf, tt.err)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q lacks %q", out, w)
				}
			}
			if tt.not != "" && strings.Contains(out, tt.not) {
				t.Errorf("output %q repeats the code prefix", out)
			}
		})
	}
}
