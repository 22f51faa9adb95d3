package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "Offer", TypeOffer.String())
	assert.True(t, TypeRippleState.Known())
	assert.False(t, Type(0x0099).Known())
	assert.Equal(t, "Unknown(0x99)", Type(0x0099).String())
}
