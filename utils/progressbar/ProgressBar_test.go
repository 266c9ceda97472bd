package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, 10, 4)

	p.Increment(1)
	if s := p.String(); strings.Count(s, "█") != 2 ||
		!strings.Contains(s, "25.00%") {
		t.Errorf("invalid progress bar %q", s)
	}

	p.Increment(10)
	if p.Fraction() != 1 {
		t.Errorf("progress should saturate \n\twant(1) \n\thave(%v)",
			p.Fraction())
	}

	p.SetStatus("return %.1f", 2.5)
	p.Display()
	if !strings.HasSuffix(out.String(), "return 2.5") {
		t.Errorf("status not displayed: %q", out.String())
	}
}
