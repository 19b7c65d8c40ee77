package cache

import (
	"sync"

	"queueboard/models"
)

// OfficerSessionCache keeps validated officer sessions in memory so the
// officer middleware does not hit sqlite on every request.
type OfficerSessionCache struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewOfficerSessionCache() *OfficerSessionCache {
	return &OfficerSessionCache{sessions: make(map[string]models.Session)}
}

func (c *OfficerSessionCache) AddSession(s models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = s
}

// FindSessionBySessionToken returns only sessions that have not expired;
// expired entries are evicted on lookup.
func (c *OfficerSessionCache) FindSessionBySessionToken(token string) (models.Session, bool) {
	c.mu.RLock()
	s, ok := c.sessions[token]
	c.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}
	if s.Expired() {
		c.DeleteSessionBySessionToken(token)
		return models.Session{}, false
	}
	return s, true
}

func (c *OfficerSessionCache) DeleteSessionBySessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, token)
}

// DeleteSessionsForOfficer drops every cached session of an officer, used
// when credentials change.
func (c *OfficerSessionCache) DeleteSessionsForOfficer(officerID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for token, s := range c.sessions {
		if s.OfficerID == officerID {
			delete(c.sessions, token)
		}
	}
}

func (c *OfficerSessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
