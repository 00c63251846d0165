package metronome

import (
	"testing"
	"time"
)

func TestFakeClock_FiresInOrder(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	var got []int
	c.AfterFunc(30*time.Millisecond, func() { got = append(got, 3) })
	c.AfterFunc(10*time.Millisecond, func() { got = append(got, 1) })
	c.AfterFunc(20*time.Millisecond, func() { got = append(got, 2) })

	c.Advance(25 * time.Millisecond)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("fired = %v, want [1 2]", got)
	}
	if c.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", c.Pending())
	}
	if want := time.Unix(0, 0).Add(25 * time.Millisecond); !c.Now().Equal(want) {
		t.Errorf("Now = %v, want %v", c.Now(), want)
	}
}

func TestFakeClock_Stop(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	if !tm.Stop() {
		t.Error("Stop on pending timer should return true")
	}
	if tm.Stop() {
		t.Error("second Stop should return false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeClock_RearmDuringAdvance(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	count := 0
	var arm func()
	arm = func() {
		c.AfterFunc(100*time.Millisecond, func() {
			count++
			arm()
		})
	}
	arm()

	c.Advance(time.Second)
	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
}
