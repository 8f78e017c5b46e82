//go:build go1.18

package domain

import "testing"

// FuzzParseAddress checks that parsing never panics and that accepted input
// always round-trips through String.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("11111111111111111111111111111111")
	f.Add("BYJtTQxe8F1Zi41bzWRStVPf57knpst3JqvZ7P5EMjex")
	f.Add("0OIl")
	f.Add("'; DROP TABLE faucet_users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}
		again, err := ParseAddress(addr.String())
		if err != nil {
			t.Fatalf("accepted address failed round-trip: %v", err)
		}
		if again != addr {
			t.Fatal("round-trip changed the address")
		}
	})
}
