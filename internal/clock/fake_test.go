package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeAdvanceFiresInOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() {
		fired = append(fired, "a")
		c.AfterFunc(500*time.Millisecond, func() { fired = append(fired, "a2") })
	})
	late := c.AfterFunc(10*time.Second, func() { fired = append(fired, "late") })

	c.Advance(3 * time.Second)

	assert.Equal(t, []string{"a", "a2", "b"}, fired)
	assert.Equal(t, time.Unix(3, 0).UTC(), c.Now())
	assert.Equal(t, 1, c.Pending())
	assert.True(t, late.Stop())
	assert.False(t, late.Stop())
	assert.Equal(t, 0, c.Pending())
}

func TestFakeNowInsideCallback(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var at time.Time
	c.AfterFunc(time.Second, func() { at = c.Now() })
	c.Advance(5 * time.Second)
	assert.Equal(t, time.Unix(1, 0).UTC(), at)
}
