package domain

import (
	"testing"
)

// FuzzParseUserID checks that parsing never panics on arbitrary input and
// that every accepted value survives a String round trip unchanged.
func FuzzParseUserID(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("not-a-uuid")
	f.Add("550e8400-e29b-41d4-a716-44665544000")   // one short
	f.Add("550e8400-e29b-41d4-a716-4466554400000") // one long
	f.Add("ZZZZZZZZ-e29b-41d4-a716-446655440000")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseUserID(id.String())
		if err != nil {
			t.Fatalf("accepted value failed round trip: %v", err)
		}
		if roundTrip != id {
			t.Fatal("round trip changed the value")
		}
	})
}

// FuzzParseProjectID mirrors the UserID fuzz so both ID types stay
// consistent in what they accept.
func FuzzParseProjectID(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("garbage")

	f.Fuzz(func(t *testing.T, input string) {
		pid, errProject := ParseProjectID(input)
		_, errUser := ParseUserID(input)

		if (errProject == nil) != (errUser == nil) {
			t.Fatal("ID types disagree on what is a valid UUID")
		}
		if errProject == nil && pid.String() == "" {
			t.Fatal("valid ID produced empty string form")
		}
	})
}
