package util

import (
	"math"
	"net/url"
	"testing"

	"github.com/vrsandeep/nowplaying-go/internal/dom"
)

func TestTimeInSecondsToString(t *testing.T) {
	testCases := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"Zero", 0, "0:00"},
		{"NaN", math.NaN(), "0:00"},
		{"Negative", -12, "0:00"},
		{"Infinity", math.Inf(1), "0:00"},
		{"Fraction floors", 59.99, "0:59"},
		{"Minutes", 125, "2:05"},
		{"Just under an hour", 3599, "59:59"},
		{"One hour", 3600, "1:00:00"},
		{"Hours", 3661, "1:01:01"},
		{"Long", 36000 + 59*60 + 9, "10:59:09"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TimeInSecondsToString(tc.seconds)
			if got != tc.want {
				t.Errorf("TimeInSecondsToString(%v) = %q, want %q", tc.seconds, got, tc.want)
			}
			if again := TimeInSecondsToString(tc.seconds); again != got {
				t.Errorf("formatting is not stable: %q then %q", got, again)
			}
		})
	}
}

func TestVolumeCurves(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		for _, curve := range []VolumeCurve{LinearCurve, CubicCurve} {
			for ui := 0; ui <= 100; ui++ {
				if got := curve.FromMedia(curve.ToMedia(ui), false); got != ui {
					t.Fatalf("curve %d: round trip of %d gave %d", curve, ui, got)
				}
			}
		}
	})

	t.Run("Cubic values", func(t *testing.T) {
		if got := CubicCurve.ToMedia(50); math.Abs(got-0.125) > 1e-9 {
			t.Errorf("CubicCurve.ToMedia(50) = %v, want 0.125", got)
		}
		if got := CubicCurve.FromMedia(0.5, false); got != 79 {
			t.Errorf("CubicCurve.FromMedia(0.5) = %d, want 79", got)
		}
	})

	t.Run("Muted and out of range", func(t *testing.T) {
		if got := LinearCurve.FromMedia(0.5, true); got != 0 {
			t.Errorf("muted volume = %d, want 0", got)
		}
		if got := CubicCurve.FromMedia(math.NaN(), false); got != 0 {
			t.Errorf("NaN volume = %d, want 0", got)
		}
		if got := LinearCurve.FromMedia(3, false); got != 100 {
			t.Errorf("volume above 1 = %d, want 100", got)
		}
		if got := LinearCurve.ToMedia(150); got != 1 {
			t.Errorf("ToMedia(150) = %v, want 1", got)
		}
		if got := CubicCurve.ToMedia(-5); got != 0 {
			t.Errorf("ToMedia(-5) = %v, want 0", got)
		}
	})
}

func TestMediaSessionCover(t *testing.T) {
	if got := MediaSessionCover(nil); got != "" {
		t.Errorf("nil metadata gave %q", got)
	}
	if got := MediaSessionCover(&dom.MediaMetadata{Title: "x"}); got != "" {
		t.Errorf("no artwork gave %q", got)
	}

	meta := &dom.MediaMetadata{Artwork: []dom.Artwork{
		{Src: "small.jpg", Sizes: "96x96"},
		{Src: "big.jpg", Sizes: "128x128 512x512"},
		{Src: "mid.jpg", Sizes: "256x256"},
	}}
	if got := MediaSessionCover(meta); got != "big.jpg" {
		t.Errorf("expected largest artwork, got %q", got)
	}

	meta = &dom.MediaMetadata{Artwork: []dom.Artwork{{Src: "a.jpg"}, {Src: "b.jpg"}}}
	if got := MediaSessionCover(meta); got != "b.jpg" {
		t.Errorf("expected last artwork without sizes, got %q", got)
	}
}

func TestResolveURL(t *testing.T) {
	loc, _ := url.Parse("https://media.example.com/web/index.html#!/details")
	testCases := []struct {
		ref, want string
	}{
		{"", ""},
		{"https://cdn.example.com/p.jpg", "https://cdn.example.com/p.jpg"},
		{"/Items/1/Images/Primary", "https://media.example.com/Items/1/Images/Primary"},
	}
	for _, tc := range testCases {
		if got := ResolveURL(loc, tc.ref); got != tc.want {
			t.Errorf("ResolveURL(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-1, 0, 5) != 0 || Clamp(9, 0, 5) != 5 || Clamp(3, 0, 5) != 3 {
		t.Error("Clamp did not limit values")
	}
}
