package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOfNormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	in := time.Date(2026, 10, 14, 22, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), DateOf(in))
}

func TestFakeClockAdvance(t *testing.T) {
	c := NewFakeClock(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	c.Advance(20 * time.Hour)

	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), Today(c))
}
