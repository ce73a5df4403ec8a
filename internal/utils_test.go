package internal

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestValidEmail(t *testing.T) {
	c := qt.New(t)
	for _, email := range []string{
		"member@example.com",
		"kari.nordmann+club@example.co.uk",
		"officer-1@klubb.no",
	} {
		c.Assert(ValidEmail(email), qt.IsTrue, qt.Commentf("email %q", email))
	}
	for _, email := range []string{
		"",
		"member",
		"member@",
		"@example.com",
		"member@example",
		"member @example.com",
	} {
		c.Assert(ValidEmail(email), qt.IsFalse, qt.Commentf("email %q", email))
	}
}

func TestSanitizeAndVerifyPhoneNumber(t *testing.T) {
	c := qt.New(t)
	// international numbers pass through normalized
	phone, err := SanitizeAndVerifyPhoneNumber("+47 98 76 54 32")
	c.Assert(err, qt.IsNil)
	c.Assert(phone, qt.Equals, "+4798765432")
	// national numbers default to the Norwegian prefix
	phone, err = SanitizeAndVerifyPhoneNumber("98765432")
	c.Assert(err, qt.IsNil)
	c.Assert(phone, qt.Equals, "+4798765432")
	// garbage is rejected
	_, err = SanitizeAndVerifyPhoneNumber("not-a-number")
	c.Assert(err, qt.IsNotNil)
	_, err = SanitizeAndVerifyPhoneNumber("12")
	c.Assert(err, qt.IsNotNil)
}

func TestFormatDate(t *testing.T) {
	c := qt.New(t)
	date := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	c.Assert(FormatDate(date), qt.Equals, "14.03.2026")
}
