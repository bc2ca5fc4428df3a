package helpers

import (
	"fmt"
	"image/color"
	"math/rand/v2"
	"strings"
	"time"

	"ec-console/ledger"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdp/qrterminal/v3"
	"github.com/muesli/gamut"
)

// ShortLength is how many symbols of an identifier are shown in tables.
const ShortLength = 30

// ShortenID truncates an identifier for display.
func ShortenID(id string) string {
	if len(id) <= ShortLength {
		return id
	}
	return id[:ShortLength] + "…"
}

// Percent formats a [0,1] fraction.
func Percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Trust formats an absolute trust value without trailing zeros.
func Trust(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}

// LoadedAt formats the time a view was last refreshed
func LoadedAt(t time.Time, loading bool) string {
	if loading {
		return "loading…"
	}
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

// RandomSeed returns a fresh seed. It is for test networks only; the
// generator is not cryptographically secure.
func RandomSeed() ledger.ID {
	b := make([]byte, ledger.IDLength)
	for i := range b {
		b[i] = ledger.Alphabet[rand.IntN(len(ledger.Alphabet))]
	}
	return ledger.ID(b)
}

// QRCode renders s as a half-block terminal QR code.
func QRCode(s string) string {
	var b strings.Builder
	qrterminal.GenerateHalfBlock(s, qrterminal.L, &b)
	return b.String()
}

// FadeString creates a gradient colored string
func FadeString(s string, firstColor string, lastColor string) string {
	if s == "" {
		return s
	}
	blends := gamut.Blends(lipgloss.Color(firstColor), lipgloss.Color(lastColor), len(s))
	return rainbow(lipgloss.NewStyle(), s, blends)
}

func rainbow(baseStyle lipgloss.Style, str string, colors []color.Color) string {
	var result strings.Builder
	for i, c := range str {
		col, _ := colorful.MakeColor(colors[i%len(colors)])
		result.WriteString(baseStyle.Foreground(lipgloss.Color(col.Hex())).Render(string(c)))
	}
	return result.String()
}

// Max returns the maximum of two integers
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Min returns the minimum of two integers
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Clamp bounds i to [0, n-1]; it returns 0 when n is 0.
func Clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
