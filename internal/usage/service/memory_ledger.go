package service

import (
	"sync"

	"github.com/ahlabot/ahlabot/internal/usage/domain"
)

// memoryLedger is the documented degradation path for store outages:
// usage is metered per process, so quotas reset on restart. Entries for
// past days are dropped as new days roll in.
type memoryLedger struct {
	mu     sync.Mutex
	day    string
	byUser map[int64]*memoryCounts
}

type memoryCounts struct {
	textMessages  int
	audioMessages int
	textChars     int
	audioSeconds  int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{byUser: make(map[int64]*memoryCounts)}
}

func (m *memoryLedger) counts(userID int64, day string) *memoryCounts {
	if m.day != day {
		m.day = day
		m.byUser = make(map[int64]*memoryCounts)
	}
	c, ok := m.byUser[userID]
	if !ok {
		c = &memoryCounts{}
		m.byUser[userID] = c
	}
	return c
}

func (m *memoryLedger) consumeCount(userID int64, day string, kind domain.Kind, limit int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counts(userID, day)
	if kind == domain.KindAudio {
		if c.audioMessages >= limit {
			return false
		}
		c.audioMessages++
		return true
	}
	if c.textMessages >= limit {
		return false
	}
	c.textMessages++
	return true
}

// consumeMessage charges one message and its volume together; nothing is
// charged when either quota would be exceeded. countHit tells the caller
// which quota denied, remaining is the volume still available.
func (m *memoryLedger) consumeMessage(userID int64, day string, kind domain.Kind, amount, countLimit, dailyVolume int) (ok, countHit bool, remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counts(userID, day)
	usedCount, usedVol := c.textMessages, c.textChars
	if kind == domain.KindAudio {
		usedCount, usedVol = c.audioMessages, c.audioSeconds
	}
	if usedCount >= countLimit {
		return false, true, dailyVolume - usedVol
	}
	if usedVol+amount > dailyVolume {
		return false, false, dailyVolume - usedVol
	}

	if kind == domain.KindAudio {
		c.audioMessages++
		c.audioSeconds += amount
	} else {
		c.textMessages++
		c.textChars += amount
	}
	return true, false, dailyVolume - usedVol - amount
}

func (m *memoryLedger) consumeVolume(userID int64, day string, kind domain.Kind, amount, daily int) (bool, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counts(userID, day)
	if kind == domain.KindAudio {
		if c.audioSeconds+amount > daily {
			return false, daily - c.audioSeconds
		}
		c.audioSeconds += amount
		return true, daily - c.audioSeconds
	}
	if c.textChars+amount > daily {
		return false, daily - c.textChars
	}
	c.textChars += amount
	return true, daily - c.textChars
}
