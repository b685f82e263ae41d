package xl

import "testing"

func TestStandardizeNumberFormat(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"string", "@"},
		{"integer", "0"},
		{"number", "0"},
		{"date", `YYYY\-MM\-DD`},
		{"datetime", `YYYY\-MM\-DD\ HH:MM:SS`},
		{"time", "HH:MM:SS"},
		{"price", "#,##0.00"},
		{"money", `[$$-1009]#,##0.00;[RED]\-[$$-1009]#,##0.00`},
		{"GENERAL", "GENERAL"},
		{`#,##0.00 "USD"`, `#,##0.00\ "USD"`},
		{`"a-b" 0`, `"a-b"\ 0`},
		{"_(#,##0_)", "_(#,##0_)"},
		{"(0)", `\(0\)`},
	}
	for _, tt := range tests {
		if got := StandardizeNumberFormat(tt.in); got != tt.want {
			t.Errorf("StandardizeNumberFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetermineFormatType(t *testing.T) {
	tests := []struct {
		format string
		want   FormatType
	}{
		{"GENERAL", FormatAuto},
		{"General", FormatAuto},
		{"string", FormatString},
		{"integer", FormatNumeric},
		{"price", FormatNumeric},
		{"0.00%", FormatNumeric},
		{"date", FormatDate},
		{"datetime", FormatDateTime},
		{"time", FormatDateTime},
		{"[Red]0.00", FormatNumeric},
	}
	for _, tt := range tests {
		code := StandardizeNumberFormat(tt.format)
		if got := DetermineFormatType(code); got != tt.want {
			t.Errorf("DetermineFormatType(%q) = %v, want %v", code, got, tt.want)
		}
	}
}
