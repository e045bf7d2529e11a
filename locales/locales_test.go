package locales

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "zh_CN", want: "zh-cn"},
		{in: " ZH-tw ", want: "zh-tw"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := Normalize(tc.in)
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, code := range []string{"en", "pt", "zh_CN", "UK"} {
		if !IsSupported(code) {
			t.Fatalf("IsSupported(%q) = false, want true", code)
		}
	}
	for _, code := range []string{"nl", "pt-BR", "xx"} {
		if IsSupported(code) {
			t.Fatalf("IsSupported(%q) = true, want false", code)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got := Resolve("zh-TW")
		if got.English != "Chinese (Traditional)" || got.Flag == "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("base fallback", func(t *testing.T) {
		got := Resolve("pt_BR")
		if got.Name != "Português" {
			t.Fatalf("unexpected fallback result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("zz-ZZ")
		if got.Name != "zz-ZZ" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestCodes(t *testing.T) {
	codes := Codes()
	if len(codes) != 17 {
		t.Fatalf("len(Codes()) = %d, want 17", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("Codes() not sorted at %d: %q >= %q", i, codes[i-1], codes[i])
		}
	}
}
