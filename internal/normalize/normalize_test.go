package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpokenEmail(t *testing.T) {
	cases := []struct {
		name   string
		spoken string
		want   string
	}{
		{"spelled letters", "B R I A N at Y A H O O dot C O M", "brian@yahoo.com"},
		{"at sign", "jane at sign example dot org", "jane@example.org"},
		{"period", "bob at mail period net", "bob@mail.net"},
		{"dash and hyphen", "mary dash ann at foo hyphen bar dot com", "mary-ann@foo-bar.com"},
		{"underscore", "j underscore doe at x dot io", "j_doe@x.io"},
		{"fillers dropped", "um jane uh at like x dot com", "jane@x.com"},
		{"already typed", "  Jane@X.com ", "jane@x.com"},
		{"no at", "jane dot doe", "jane.doe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SpokenEmail(tc.spoken))
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"brian@yahoo.com", "a.b-c_d@sub.domain.co", "x@y.z"}
	invalid := []string{"", "brian", "brian@yahoo", "a@b@c.com", "@yahoo.com", "brian@.", "bri an@yahoo.com"}

	for _, s := range valid {
		assert.True(t, ValidEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidEmail(s), s)
	}
}

func TestPhonetic(t *testing.T) {
	assert.Equal(t,
		"Bravo Romeo India Alpha November at Yankee Alpha Hotel Oscar Oscar dot Charlie Oscar Mike",
		Phonetic("brian@yahoo.com"))
	assert.Equal(t, "Juliet underscore Delta Oscar Echo Seven dash Four", Phonetic("J_Doe7-4"))
	assert.Equal(t, "+", Phonetic("+"))
}

func TestPhoneticNeverFeedsParsing(t *testing.T) {
	// The read-back of a valid address must not itself parse back to that address.
	email := "brian@yahoo.com"
	assert.NotEqual(t, email, SpokenEmail(Phonetic(email)))
}
