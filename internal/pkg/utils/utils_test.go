package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	a := GenerateOrderNumber()
	b := GenerateOrderNumber()

	assert.True(t, strings.HasPrefix(a, "ORD-"))
	assert.Len(t, a, len("ORD-")+26)
	assert.NotEqual(t, a, b)
}

func TestGenerateTransactionID(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	assert.Equal(t, "TRANS_ORD-1_1700000000", GenerateTransactionID("ORD-1", ts))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Living Room":        "living-room",
		"  Office & Study  ": "office-study",
		"Bedroom--Sets":      "bedroom-sets",
		"Café Chairs":        "caf-chairs",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "leave at door", SanitizeText(`<script>alert(1)</script>leave at <b>door</b>`))
	assert.Equal(t, "plain", SanitizeText("  plain "))
}

func TestFileExt(t *testing.T) {
	assert.Equal(t, ".jpg", FileExt("Sofa.JPG"))
	assert.Equal(t, "", FileExt("noext"))
	assert.Equal(t, "", FileExt("trailing."))
}
