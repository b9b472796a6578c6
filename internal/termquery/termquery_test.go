package termquery

import "testing"

func TestHex16PadsShortValues(t *testing.T) {
	v, err := hex16("ff")
	if err != nil {
		t.Fatalf("hex16: %v", err)
	}
	if v != 0x00ff {
		t.Fatalf("hex16(\"ff\") = %#x, want 0x00ff", v)
	}
}

func TestHex16FullWidth(t *testing.T) {
	v, err := hex16("ffff")
	if err != nil {
		t.Fatalf("hex16: %v", err)
	}
	if v != 0xffff {
		t.Fatalf("hex16(\"ffff\") = %#x, want 0xffff", v)
	}
}

func TestBgPatternMatchesOSC11Response(t *testing.T) {
	resp := "\x1b]11;rgb:1111/2222/3333\a"
	m := bgPattern.FindStringSubmatch(resp)
	if len(m) != 4 {
		t.Fatalf("bgPattern match = %v, want 4 groups", m)
	}
	if m[1] != "1111" || m[2] != "2222" || m[3] != "3333" {
		t.Fatalf("bgPattern groups = %v, want [1111 2222 3333]", m[1:])
	}
}
