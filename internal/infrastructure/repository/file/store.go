// Package file persists match contexts as one pretty-printed JSON document
// per fixture, suitable for local runs and manual inspection.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	"github.com/pitchsider/match-context/internal/platform/logging"
)

const (
	filePrefix = "match_"
	fileSuffix = ".json"
)

// Store keeps one document per fixture under a single directory. A store
// mutex serializes writers; each write goes through a temp file and rename
// so readers never observe a partial document.
type Store struct {
	dir    string
	logger *logging.Logger
	mu     sync.Mutex
	now    func() time.Time
}

func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("context store directory is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create context store directory: %w", err)
	}
	return &Store{dir: dir, logger: logger, now: time.Now}, nil
}

func (s *Store) path(fixtureID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d%s", filePrefix, fixtureID, fileSuffix))
}

func (s *Store) Has(_ context.Context, fixtureID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path(fixtureID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat context file: %w", err)
}

func (s *Store) Get(_ context.Context, fixtureID int64) (*matchcontext.MatchContext, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mc, ok, err := s.load(fixtureID)
	if err != nil || !ok {
		return nil, ok, err
	}

	mc.Metadata.AccessCount++
	mc.Metadata.LastAccessed = s.now().UTC()
	if err := s.write(mc); err != nil {
		return nil, false, err
	}
	return mc, true, nil
}

func (s *Store) Save(_ context.Context, mc *matchcontext.MatchContext) error {
	if mc == nil || mc.FixtureID <= 0 {
		return fmt.Errorf("context must carry a fixture id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(mc)
}

func (s *Store) Delete(_ context.Context, fixtureID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(fixtureID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("delete context file: %w", err)
}

func (s *Store) ListAll(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listIDs()
}

func (s *Store) ListByStatus(ctx context.Context, status string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.listIDs()
	if err != nil {
		return nil, err
	}

	normalized := matchcontext.NormalizeStatus(status)
	matched := make([]int64, 0, len(ids))
	for _, id := range ids {
		mc, ok, err := s.load(id)
		if err != nil || !ok {
			continue
		}
		if matchcontext.NormalizeStatus(mc.Status) == normalized {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

func (s *Store) Summarize(_ context.Context) ([]matchcontext.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.listIDs()
	if err != nil {
		return nil, err
	}

	summaries := make([]matchcontext.Summary, 0, len(ids))
	for _, id := range ids {
		mc, ok, err := s.load(id)
		if err != nil {
			s.logger.Warn("skipping unreadable context file", "fixture_id", id, "error", err)
			continue
		}
		if !ok {
			continue
		}
		summaries = append(summaries, matchcontext.Summary{
			FixtureID:   mc.FixtureID,
			HomeTeam:    mc.HomeTeam,
			AwayTeam:    mc.AwayTeam,
			League:      mc.League,
			Date:        mc.Date,
			Status:      mc.Status,
			AccessCount: mc.Metadata.AccessCount,
			CreatedAt:   mc.Metadata.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *Store) CleanupOlderThan(_ context.Context, days int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.listIDs()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days)
	deleted := 0
	for _, id := range ids {
		mc, ok, err := s.load(id)
		if err != nil || !ok {
			continue
		}
		if mc.Metadata.CreatedAt.Before(cutoff) {
			if err := os.Remove(s.path(id)); err != nil {
				s.logger.Warn("cleanup remove failed", "fixture_id", id, "error", err)
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) UpdateCausalCache(_ context.Context, fixtureID int64, payload matchcontext.CausalPayload) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mc, ok, err := s.load(fixtureID)
	if err != nil || !ok {
		return false, err
	}

	mc.CausalMetrics = payload.Metrics
	mc.CausalFindings = payload.Findings
	mc.CausalConfidence = payload.Confidence
	mc.CausalVersion = payload.Version
	if err := s.write(mc); err != nil {
		return false, err
	}
	return true, nil
}

// load reads and decodes one document. Callers hold the store mutex.
func (s *Store) load(fixtureID int64) (*matchcontext.MatchContext, bool, error) {
	data, err := os.ReadFile(s.path(fixtureID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read context file: %w", err)
	}

	var mc matchcontext.MatchContext
	if err := sonic.Unmarshal(data, &mc); err != nil {
		return nil, false, fmt.Errorf("decode context %d: %w", fixtureID, err)
	}
	return &mc, true, nil
}

// write encodes and atomically replaces one document. Callers hold the
// store mutex.
func (s *Store) write(mc *matchcontext.MatchContext) error {
	data, err := sonic.ConfigDefault.MarshalIndent(mc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode context %d: %w", mc.FixtureID, err)
	}

	target := s.path(mc.FixtureID)
	tmp, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("create temp context file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write context file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close context file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace context file: %w", err)
	}
	return nil
}

func (s *Store) listIDs() ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list context directory: %w", err)
	}

	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
