package protocol

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func readAll(t *testing.T, f *Framer) ([]RawLine, []error) {
	t.Helper()
	var lines []RawLine
	var errs []error
	for i := 0; i < 100; i++ {
		line, err := f.NextLine()
		if err == io.EOF {
			return lines, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lines = append(lines, line)
	}
	t.Fatalf("framer did not reach EOF")
	return nil, nil
}

func TestFramerSplitsLines(t *testing.T) {
	f := NewFramer(strings.NewReader("#d,-,18,1,2,3;\r\nstatus\n#d,partial"))

	got, errs := readAll(t, f)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(got), got)
	}
	if got[0] != "#d,-,18,1,2,3;\r\n" {
		t.Errorf("line 0 = %q", got[0])
	}
	if got[1].Text() != "status" {
		t.Errorf("line 1 text = %q", got[1].Text())
	}
	if got[2] != "#d,partial" {
		t.Errorf("trailing fragment = %q", got[2])
	}
}

func TestFramerEmptyStream(t *testing.T) {
	f := NewFramer(strings.NewReader(""))
	if _, err := f.NextLine(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestFramerSkipsOverlongLine(t *testing.T) {
	noise := strings.Repeat("x", 3*MaxLineLength)
	f := NewFramer(strings.NewReader(noise + "\n#d,-,18,1000,1200,833;\n"))

	_, err := f.NextLine()
	if !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got %v", err)
	}
	if !errors.Is(err, ErrRecordRejected) {
		t.Errorf("overlong line should count as a rejected record")
	}

	line, err := f.NextLine()
	if err != nil {
		t.Fatalf("framer unusable after overlong line: %v", err)
	}
	if line != "#d,-,18,1000,1200,833;\n" {
		t.Errorf("next line = %q", line)
	}
}

func TestFramerOverlongLineAtEOF(t *testing.T) {
	f := NewFramer(strings.NewReader(strings.Repeat("y", MaxLineLength+10)))
	lines, errs := readAll(t, f)
	if len(lines) != 0 || len(errs) != 1 || !errors.Is(errs[0], ErrLineTooLong) {
		t.Errorf("got lines %q errors %v", lines, errs)
	}
}

func TestFramerLineAtLimit(t *testing.T) {
	line := strings.Repeat("z", MaxLineLength-1) + "\n"
	f := NewFramer(strings.NewReader(line))
	got, err := f.NextLine()
	if err != nil {
		t.Fatalf("line of exactly MaxLineLength bytes rejected: %v", err)
	}
	if string(got) != line {
		t.Errorf("line mangled")
	}
}

func TestIsDataRecord(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"#d,-,18,1234,1205,0500;", true},
		{"#d", true},
		{"#h,-,3,1,2,3;", false},
		{" #d,-,18", false},
		{"", false},
		{"d#,1", false},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			if got := RawLine(tc.line).IsDataRecord(); got != tc.want {
				t.Errorf("IsDataRecord(%q) = %v, want %v", tc.line, got, tc.want)
			}
		})
	}
}
