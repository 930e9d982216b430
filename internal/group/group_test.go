package group

import (
	"math/big"
	"testing"

	"github.com/go-test/deep"
)

// testPrime is a small safe prime (11 = 2*5+1, both prime) used to keep
// arithmetic unit tests fast. Production callers are expected to supply a
// standard MODP group prime of at least 2048 bits.
var testPrime *SafePrime

func init() {
	p, _ := NewSafePrime(big.NewInt(11))
	testPrime = p
}

func TestNewSafePrimeRejectsNonPrime(t *testing.T) {
	if _, err := NewSafePrime(big.NewInt(15)); err == nil {
		t.Fatal("expected error for non-prime p")
	}
}

func TestNewSafePrimeRejectsNonSafePrime(t *testing.T) {
	// 13 is prime but (13-1)/2 = 6 is not.
	if _, err := NewSafePrime(big.NewInt(13)); err == nil {
		t.Fatal("expected error for p whose (p-1)/2 is not prime")
	}
}

func TestNewSafePrimeRejectsSmallOrEven(t *testing.T) {
	cases := []int64{-1, 0, 2, 3, 4}
	for _, c := range cases {
		if _, err := NewSafePrime(big.NewInt(c)); err == nil {
			t.Fatalf("expected error for p=%d", c)
		}
	}
}

func TestNewSafePrimeAccepts11(t *testing.T) {
	p, err := NewSafePrime(big.NewInt(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Q.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected q=5, got %v", p.Q)
	}
}

func TestExpAndMul(t *testing.T) {
	// In Z*_11, 2^4 mod 11 = 5.
	got := testPrime.Exp(big.NewInt(2), big.NewInt(4))
	if got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("2^4 mod 11 = %v, want 5", got)
	}

	got = testPrime.Mul(big.NewInt(6), big.NewInt(7))
	if got.Cmp(big.NewInt(9)) != 0 { // 42 mod 11 = 9
		t.Fatalf("6*7 mod 11 = %v, want 9", got)
	}
}

func TestInSubgroup(t *testing.T) {
	// The order-5 subgroup of Z*_11 is generated by 3: {1,3,9,5,4}.
	subgroup := []int64{1, 3, 9, 5, 4}
	for _, s := range subgroup {
		if !testPrime.InSubgroup(big.NewInt(s)) {
			t.Errorf("%d expected to be in the order-q subgroup", s)
		}
	}
	// 2 is a primitive root of Z*_11, not in the order-5 subgroup.
	if testPrime.InSubgroup(big.NewInt(2)) {
		t.Error("2 should not be in the order-q subgroup")
	}
}

func TestRandomExponentRange(t *testing.T) {
	n := big.NewInt(1000)
	for i := 0; i < 200; i++ {
		v, err := RandomExponent(n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Sign() <= 0 || v.Cmp(n) >= 0 {
			t.Fatalf("value %v out of range [1, %v)", v, n)
		}
	}
}

func TestRandomExponentRejectsDegenerateModulus(t *testing.T) {
	if _, err := RandomExponent(big.NewInt(1)); err == nil {
		t.Fatal("expected error for modulus < 2")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	want := big.NewInt(123456789)
	b := Bytes(want)
	got, err := FromBytes(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := deep.Equal(want, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestFromBytesRejectsMalformed(t *testing.T) {
	if _, err := FromBytes(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := FromBytes([]byte{0x00, 0x01}); err == nil {
		t.Fatal("expected error for leading zero byte")
	}
}

func TestMinMaxBytes(t *testing.T) {
	a := []byte{0x00, 0x01}
	b := []byte{0x02}
	min, max := MinMaxBytes(a, b)
	if diff := deep.Equal(min, a); diff != nil {
		t.Errorf("min mismatch: %v", diff)
	}
	if diff := deep.Equal(max, b); diff != nil {
		t.Errorf("max mismatch: %v", diff)
	}
}

func TestMinMaxStrings(t *testing.T) {
	min, max := MinMaxStrings("bob:1", "alice:0")
	if min != "alice:0" || max != "bob:1" {
		t.Fatalf("got min=%q max=%q", min, max)
	}
}
