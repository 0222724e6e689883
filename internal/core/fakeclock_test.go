package core

// FakeClock is a deterministic test double for Clock. It never sleeps:
// time only moves when Advance is called, and Pump must be invoked by the
// test after each Advance to deliver whatever became due. Grounded on the
// teacher's fakeClock/fakeTimer pair (engine_test.go) and on
// other_examples' juju testing.Clock alarm-queue/Advance pattern.
type FakeClock struct {
	*scheduler
	now  int64
	wall int64
}

func NewFakeClock(startWallMs int64) *FakeClock {
	c := &FakeClock{wall: startWallMs}
	c.scheduler = newScheduler(
		func() int64 { return c.now },
		func() int64 { return c.wall + c.now },
	)
	return c
}

func (c *FakeClock) TickAt(listener TickListener, id TickID, futureTimeMs int64) {
	c.schedule(entryKey{listener, id}, futureTimeMs, 0, 0)
}

func (c *FakeClock) TickIn(listener TickListener, id TickID, delayMs int64) {
	if delayMs < 0 {
		delayMs = 0
	}
	c.TickAt(listener, id, c.Now()+delayMs)
}

func (c *FakeClock) TickEvery(listener TickListener, id TickID, periodMs, originMs int64) {
	c.schedule(entryKey{listener, id}, c.Now(), periodMs, originMs)
}

func (c *FakeClock) CancelTick(listener TickListener, id TickID) { c.cancel(listener, id) }
func (c *FakeClock) CancelAllTicks(listener TickListener)        { c.cancelAll(listener) }
func (c *FakeClock) NextDeadline() (int64, bool)                 { return c.nextDeadline() }
func (c *FakeClock) Pump(deliver func(TickListener, TickID))     { c.pump(deliver) }

// Advance moves the fake clock forward by deltaMs. It does not itself
// delivery anything; callers call Pump afterward (mirroring how a real
// select loop would wake and pump after its timer fires).
func (c *FakeClock) Advance(deltaMs int64) {
	c.now += deltaMs
}
