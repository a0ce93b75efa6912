package state

import (
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/shottrack/internal/export"
)

// Export snapshots both collections into a backup.
func (s *State) Export(now time.Time) export.Backup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.NewBackup(cloneShots(s.shots), cloneParams(s.params), now)
}

// Import restores a backup payload. Either both collections are replaced or,
// when the payload is rejected, nothing changes and false is returned.
func (s *State) Import(data []byte) bool {
	backup, err := export.DecodeBackup(data)
	if err != nil {
		s.log.Warn("rejected backup", zap.Error(err))
		s.metrics.ObserveImport(false)
		return false
	}
	for i := range backup.Shots {
		if backup.Shots[i].ID == "" {
			backup.Shots[i].ID = s.newID()
		}
	}
	for i := range backup.CustomParameters {
		if backup.CustomParameters[i].ID == "" {
			backup.CustomParameters[i].ID = s.newID()
		}
	}

	s.mu.Lock()
	s.shots = backup.Shots
	s.params = backup.CustomParameters
	s.markDirty(CollectionShots)
	s.markDirty(CollectionParameters)
	s.publishSizes()
	s.mu.Unlock()

	s.metrics.ObserveImport(true)
	s.log.Info("imported backup", zap.Int("shots", len(backup.Shots)), zap.Int("parameters", len(backup.CustomParameters)), zap.String("version", backup.Version))
	return true
}
