package gowled

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_config_bus_Basics(t *testing.T) {
	var bus = new_config_bus()
	var sub = bus.subscribe()
	defer sub.unsubscribe()

	assert.False(t, sub.changed(), "fresh subscriber has nothing pending")

	bus.publish()
	assert.True(t, sub.changed())
	assert.False(t, sub.changed(), "events are consumed")
}

func Test_config_bus_CoalescesEvents(t *testing.T) {
	var bus = new_config_bus()
	var sub = bus.subscribe()
	defer sub.unsubscribe()

	for i := 0; i < 5; i++ {
		bus.publish()
	}

	// Back-to-back publishes collapse into one reconcile; the
	// subscriber re-reads the file anyway.
	assert.True(t, sub.changed())
	assert.False(t, sub.changed())
}

func Test_config_bus_LagIsAChange(t *testing.T) {
	var bus = new_config_bus()
	var sub = bus.subscribe()
	defer sub.unsubscribe()

	// Blow past the buffer: the overflow becomes a lag mark, which
	// reads back as exactly one change.
	for i := 0; i < config_bus_capacity*3; i++ {
		bus.publish()
	}

	assert.True(t, sub.changed())
	assert.False(t, sub.changed(), "lag reads as one event, not a stuck flag")
}

func Test_config_bus_MultipleSubscribers(t *testing.T) {
	var bus = new_config_bus()
	var a = bus.subscribe()
	var b = bus.subscribe()
	defer a.unsubscribe()
	defer b.unsubscribe()

	bus.publish()
	assert.True(t, a.changed())
	assert.True(t, b.changed())

	// Unsubscribed receivers no longer see events.
	a.unsubscribe()
	bus.publish()
	assert.True(t, b.changed())
	assert.False(t, a.changed())
}
