package orders

import (
	"regexp"
	"testing"
	"time"
)

func TestNumberGeneratorFormat(t *testing.T) {
	fixed := time.UnixMilli(1767268800123)
	gen := NewNumberGenerator(" zc ", func() time.Time { return fixed })

	number, err := gen()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !regexp.MustCompile(`^ZC-1767268800123-[0-9A-F]{6}$`).MatchString(number) {
		t.Fatalf("unexpected order number %q", number)
	}

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n, err := gen()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		seen[n] = true
	}
	if len(seen) < 45 {
		t.Fatalf("expected random suffixes, got %d distinct numbers", len(seen))
	}
}

func TestNumberGeneratorDefaultsPrefix(t *testing.T) {
	number, err := NewNumberGenerator("", nil)()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !regexp.MustCompile(`^ZYC-\d+-[0-9A-F]{6}$`).MatchString(number) {
		t.Fatalf("unexpected order number %q", number)
	}
}

func TestSplitProfit(t *testing.T) {
	cases := []struct {
		amount, fee, seller, platform int
	}{
		{amount: 200, fee: 20, seller: 160, platform: 40},
		{amount: 250, fee: 20, seller: 200, platform: 50},
		{amount: 999, fee: 20, seller: 799, platform: 200},
		{amount: 1, fee: 20, seller: 1, platform: 0},
		{amount: 450, fee: 0, seller: 450, platform: 0},
		{amount: 450, fee: 100, seller: 0, platform: 450},
	}
	for _, tc := range cases {
		seller, platform := splitProfit(tc.amount, tc.fee)
		if seller != tc.seller || platform != tc.platform {
			t.Fatalf("split(%d, %d) = %d/%d, want %d/%d", tc.amount, tc.fee, seller, platform, tc.seller, tc.platform)
		}
		if seller+platform != tc.amount {
			t.Fatalf("split(%d, %d) does not sum to amount", tc.amount, tc.fee)
		}
	}
}
