package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		replacement string
		want        string
	}{
		{"clean name", "Deftones - Change (2000)", "_", "Deftones - Change (2000)"},
		{"slashes", "AC/DC - Back In Black", "_", "AC_DC - Back In Black"},
		{"all unsafe chars", `a<b>c:d"e/f\g|h?i*j`, "_", "a_b_c_d_e_f_g_h_i_j"},
		{"custom replacement", "what? when?", "-", "what- when-"},
		{"trailing dots", "Title...", "_", "Title"},
		{"leading whitespace", "  Title  ", "_", "Title"},
		{"only unsafe with empty replacement", `???`, "", ""},
		{"control characters dropped", "Ti\x00tle\x1f", "_", "Title"},
		{"empty", "", "_", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFileName(tt.input, tt.replacement)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q, %q) = %q, want %q", tt.input, tt.replacement, got, tt.want)
			}
		})
	}
}
