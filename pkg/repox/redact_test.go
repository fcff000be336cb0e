package repox_test

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/coderecall/pkg/repox"
)

func TestShannonEntropy(t *testing.T) {
	if e := repox.ShannonEntropy(""); e != 0 {
		t.Fatalf("empty string entropy = %f, want 0", e)
	}
	if e := repox.ShannonEntropy("aaaaaaaa"); e != 0 {
		t.Fatalf("uniform string entropy = %f, want 0", e)
	}
	low := repox.ShannonEntropy("the quick brown fox")
	high := repox.ShannonEntropy("x9K2mQ8vR4tZ7wY3nB6j")
	if high <= low {
		t.Fatalf("random token entropy %f should exceed prose %f", high, low)
	}
}

func TestRedactHighEntropy_LeavesProseAlone(t *testing.T) {
	text := "func main() {\n\tfmt.Println(\"hello world\")\n}\n"
	out, count := repox.RedactHighEntropy(text)
	if count != 0 {
		t.Fatalf("prose should not be redacted, got %d matches", count)
	}
	if out != text {
		t.Fatal("unredacted text must pass through unchanged")
	}
}

func TestRedactHighEntropy_RedactsCredentialLikeTokens(t *testing.T) {
	text := "api_key = \"sk9Xq2Lm8Rz4Tv7Wn3Bc6Jf1Hd5Gp0Ky\"\nname = \"demo\"\n"
	out, count := repox.RedactHighEntropy(text)
	if count != 1 {
		t.Fatalf("expected 1 redaction, got %d", count)
	}
	if strings.Contains(out, "sk9Xq2Lm8Rz4Tv7Wn3Bc6Jf1Hd5Gp0Ky") {
		t.Fatal("credential survived redaction")
	}
	if !strings.Contains(out, "‹REDACTED›") {
		t.Fatalf("placeholder missing:\n%s", out)
	}
	if !strings.Contains(out, "name = \"demo\"") {
		t.Fatal("surrounding content must be preserved")
	}
	if strings.Count(out, "\n") != strings.Count(text, "\n") {
		t.Fatal("redaction must preserve line numbers")
	}
}

func TestRedactHighEntropy_IgnoresShortTokens(t *testing.T) {
	// High entropy but under the length floor.
	_, count := repox.RedactHighEntropy("key = x9K2mQ8v\n")
	if count != 0 {
		t.Fatalf("short tokens must not be redacted, got %d", count)
	}
}

func TestIsSecretPath(t *testing.T) {
	secret := []string{
		".env",
		".env.production",
		"config/.env",
		"certs/server.pem",
		"id_rsa",
		".ssh/id_rsa.pub",
		"secrets.yaml",
		"signing.key",
		"app.p12",
		"release.keystore",
		"home/.aws/credentials",
		"gcloud/config.json",
	}
	for _, p := range secret {
		if !repox.IsSecretPath(p) {
			t.Fatalf("%s should be blocklisted", p)
		}
	}

	clean := []string{
		"main.go",
		"environment.md",
		"keyboard.go",
		"docs/pemdas.md",
	}
	for _, p := range clean {
		if repox.IsSecretPath(p) {
			t.Fatalf("%s should not be blocklisted", p)
		}
	}
}

func TestHumanSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1.0KB"},
		{1536, "1.5KB"},
		{5 * 1024 * 1024, "5.0MB"},
	}
	for _, tc := range cases {
		if got := repox.HumanSize(tc.n); got != tc.want {
			t.Fatalf("HumanSize(%d) = %s, want %s", tc.n, got, tc.want)
		}
	}
}
