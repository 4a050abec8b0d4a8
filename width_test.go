package headlessvt

import "testing"

func TestRuneWidthClasses(t *testing.T) {
	for _, tt := range []struct {
		name string
		r    rune
		want int
	}{
		{"ascii letter", 'x', 1},
		{"digit", '7', 1},
		{"space", ' ', 1},
		{"cjk ideograph", '語', 2},
		{"hangul", '한', 2},
		{"fullwidth latin", 'Ｗ', 2},
		{"combining acute", '\u0301', 0},
		{"zero-width joiner", '\u200d', 0},
		{"nul", 0, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := runeWidth(tt.r); got != tt.want {
				t.Errorf("runeWidth(%U) = %d, want %d", tt.r, got, tt.want)
			}
			if tt.want == 2 != isWideRune(tt.r) {
				t.Errorf("isWideRune(%U) inconsistent with width %d", tt.r, tt.want)
			}
		})
	}
}

func TestStringWidthMixed(t *testing.T) {
	for _, tt := range []struct {
		s    string
		want int
	}{
		{"", 0},
		{"plain", 5},
		{"中文", 4},
		{"a中b", 4},
		{"e\u0301", 1}, // combining mark adds no columns
	} {
		if got := StringWidth(tt.s); got != tt.want {
			t.Errorf("StringWidth(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestNextGraphemeCluster(t *testing.T) {
	// e+combining acute, then a wide char, then plain ASCII.
	s := "e\u0301中x"

	cluster, width, rest := nextGraphemeCluster(s)
	if string(cluster) != "e\u0301" || width != 1 {
		t.Fatalf("first cluster = %q width %d", string(cluster), width)
	}
	cluster, width, rest = nextGraphemeCluster(rest)
	if string(cluster) != "中" || width != 2 {
		t.Fatalf("second cluster = %q width %d", string(cluster), width)
	}
	cluster, width, rest = nextGraphemeCluster(rest)
	if string(cluster) != "x" || width != 1 || rest != "" {
		t.Fatalf("third cluster = %q width %d rest %q", string(cluster), width, rest)
	}
}
