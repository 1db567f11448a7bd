package cms

import "testing"

func TestValidateStructureID(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3", want: "a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3"},
		{in: "  A3A4CBB9-2EF2-4DF2-95C1-F1A58FCAA8E3  ", want: "a3a4cbb9-2ef2-4df2-95c1-f1a58fcaa8e3"},
		{in: "", wantErr: true},
		{in: "not-a-uuid", wantErr: true},
		{in: "a3a4cbb9-2ef2-4df2-95c1", wantErr: true},
	}
	for _, c := range cases {
		got, err := ValidateStructureID(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ValidateStructureID(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateStructureID(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ValidateStructureID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeSitePath(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "/sites/default/index.html", want: "/sites/default/index.html"},
		{in: "sites/default/index.html", want: "/sites/default/index.html"},
		{in: "/sites//default/./index.html", want: "/sites/default/index.html"},
		{in: "  /sites/default/  ", want: "/sites/default"},
		{in: "/sites/../../etc/passwd", wantErr: true},
		{in: "", wantErr: true},
		{in: "/a b.html", wantErr: true},
	}
	for _, c := range cases {
		got, err := NormalizeSitePath(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizeSitePath(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeSitePath(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeSitePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
