package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client talks to the SwiftQuantum backend on behalf of one account. Reads
// fall back to the local cache when the network is down: the caller always
// gets last-known values, never a blocking error. All collaborators are
// injected at construction.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	store   *Store
	log     *zap.Logger
}

// New builds a client. store may not be nil; a nil logger is replaced with a
// no-op one.
func New(baseURL, apiKey string, store *Store, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   store,
		log:     log,
	}
}

// Stats is the compact stats payload.
type Stats struct {
	LessonsCompleted int `json:"lessonsCompleted"`
	XPPoints         int `json:"xpPoints"`
	Level            int `json:"level"`
	Streak           int `json:"streak"`
}

// Profile is the full user profile.
type Profile struct {
	Username         string   `json:"username"`
	Level            int      `json:"level"`
	XPPoints         int      `json:"xpPoints"`
	LessonsCompleted int      `json:"lessonsCompleted"`
	Streak           int      `json:"streak"`
	ExperimentsRun   int      `json:"experimentsRun"`
	QPUMinutes       float64  `json:"qpuMinutes"`
	TotalStudyTime   float64  `json:"totalStudyTime"`
	WorldRank        *int     `json:"worldRank,omitempty"`
	TopPercentile    *float64 `json:"topPercentile,omitempty"`
	WeeklyActivity   []int64  `json:"weeklyActivity,omitempty"`
	Achievements     []string `json:"achievements,omitempty"`
	APIKeyConfigured bool     `json:"apiKeyConfigured"`
}

// FetchStats returns current stats, from the backend when reachable and from
// the local cache otherwise. fromCache tells the caller which one it got.
func (c *Client) FetchStats(ctx context.Context) (Stats, bool, error) {
	var stats Stats
	if err := c.get(ctx, "/api/v1/users/stats", &stats); err != nil {
		c.log.Warn("Stats fetch failed, serving cached values", zap.Error(err))
		cached, cacheErr := c.cachedStats()
		return cached, true, cacheErr
	}
	if err := c.cacheStats(stats); err != nil {
		c.log.Warn("Failed to cache stats", zap.Error(err))
	}
	return stats, false, nil
}

// FetchProfile returns the profile, falling back to cached scalars on
// network failure.
func (c *Client) FetchProfile(ctx context.Context) (Profile, bool, error) {
	var profile Profile
	if err := c.get(ctx, "/api/v1/users/profile", &profile); err != nil {
		c.log.Warn("Profile fetch failed, serving cached values", zap.Error(err))
		cached, cacheErr := c.cachedProfile()
		return cached, true, cacheErr
	}
	if err := c.cacheProfile(profile); err != nil {
		c.log.Warn("Failed to cache profile", zap.Error(err))
	}
	return profile, false, nil
}

// AddXP awards points. Mutations have no cache fallback; the backend's
// response refreshes the cached stats.
func (c *Client) AddXP(ctx context.Context, points int) (Stats, error) {
	var stats Stats
	err := c.post(ctx, "/api/v1/users/xp", map[string]int{"points": points}, &stats)
	if err != nil {
		return Stats{}, err
	}
	if err := c.cacheStats(stats); err != nil {
		c.log.Warn("Failed to cache stats", zap.Error(err))
	}
	return stats, nil
}

// CompleteLesson reports a finished lesson.
func (c *Client) CompleteLesson(ctx context.Context, lessonID string) error {
	return c.post(ctx, "/api/v1/users/lessons/complete",
		map[string]string{"lessonId": lessonID}, nil)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) cacheStats(stats Stats) error {
	for key, value := range map[string]int{
		KeyLessonsCompleted: stats.LessonsCompleted,
		KeyXPPoints:         stats.XPPoints,
		KeyLevel:            stats.Level,
		KeyStreak:           stats.Streak,
	} {
		if err := c.store.SetInt(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) cachedStats() (Stats, error) {
	var stats Stats
	var err error
	if stats.LessonsCompleted, err = c.store.GetInt(KeyLessonsCompleted); err != nil {
		return stats, err
	}
	if stats.XPPoints, err = c.store.GetInt(KeyXPPoints); err != nil {
		return stats, err
	}
	if stats.Level, err = c.store.GetInt(KeyLevel); err != nil {
		return stats, err
	}
	stats.Streak, err = c.store.GetInt(KeyStreak)
	return stats, err
}

func (c *Client) cacheProfile(profile Profile) error {
	if err := c.store.SetString(KeyUsername, profile.Username); err != nil {
		return err
	}
	if err := c.cacheStats(Stats{
		LessonsCompleted: profile.LessonsCompleted,
		XPPoints:         profile.XPPoints,
		Level:            profile.Level,
		Streak:           profile.Streak,
	}); err != nil {
		return err
	}
	if err := c.store.SetInt(KeyExperimentsRun, profile.ExperimentsRun); err != nil {
		return err
	}
	if err := c.store.SetFloat(KeyQPUMinutes, profile.QPUMinutes); err != nil {
		return err
	}
	return c.store.SetFloat(KeyTotalStudyTime, profile.TotalStudyTime)
}

func (c *Client) cachedProfile() (Profile, error) {
	var profile Profile
	var err error
	if profile.Username, err = c.store.GetString(KeyUsername); err != nil {
		return profile, err
	}
	stats, err := c.cachedStats()
	if err != nil {
		return profile, err
	}
	profile.LessonsCompleted = stats.LessonsCompleted
	profile.XPPoints = stats.XPPoints
	profile.Level = stats.Level
	profile.Streak = stats.Streak

	if profile.ExperimentsRun, err = c.store.GetInt(KeyExperimentsRun); err != nil {
		return profile, err
	}
	if profile.QPUMinutes, err = c.store.GetFloat(KeyQPUMinutes); err != nil {
		return profile, err
	}
	profile.TotalStudyTime, err = c.store.GetFloat(KeyTotalStudyTime)
	return profile, err
}
