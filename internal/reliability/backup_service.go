// Package reliability keeps off-site copies of the procurement database.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/rfqdesk/internal/database"
	"github.com/rs/zerolog"
)

const (
	archiveTimeLayout = "2006-01-02-150405"
	archiveSuffix     = ".tar.gz"
	metadataFilename  = "backup-metadata.json"
)

// BackupMetadata is written next to the snapshot inside every archive
type BackupMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
}

// BackupInfo describes one archive in the object store
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots the database, archives it and ships it off-site
type BackupService struct {
	db         *database.DB
	store      ObjectStore
	stagingDir string
	keyPrefix  string
	retention  int
	log        zerolog.Logger
	now        func() time.Time
}

// NewBackupService creates a backup service. prefix namespaces the archives in the
// bucket; retention is the number of archives kept after each run.
func NewBackupService(
	db *database.DB,
	store ObjectStore,
	dataDir string,
	prefix string,
	retention int,
	log zerolog.Logger,
) *BackupService {
	keyPrefix := "rfqdesk-backup-"
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		keyPrefix = prefix + "/" + keyPrefix
	}
	return &BackupService{
		db:         db,
		store:      store,
		stagingDir: filepath.Join(dataDir, "backup-staging"),
		keyPrefix:  keyPrefix,
		retention:  retention,
		log:        log.With().Str("service", "backup").Logger(),
		now:        time.Now,
	}
}

// Backup uploads a fresh archive and prunes old ones. It returns the uploaded key.
func (s *BackupService) Backup(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	if err := os.MkdirAll(s.stagingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	stage, err := os.MkdirTemp(s.stagingDir, "run-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stage)

	snapshotName := s.db.Name() + ".db"
	snapshotPath := filepath.Join(stage, snapshotName)
	if err := s.db.BackupTo(ctx, snapshotPath); err != nil {
		return "", err
	}
	if err := verifySnapshot(ctx, snapshotPath); err != nil {
		return "", err
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat snapshot: %w", err)
	}
	checksum, err := calculateChecksum(snapshotPath)
	if err != nil {
		return "", fmt.Errorf("failed to checksum snapshot: %w", err)
	}

	timestamp := s.now().UTC()
	metadata := BackupMetadata{
		Timestamp: timestamp,
		Database:  s.db.Name(),
		Filename:  snapshotName,
		SizeBytes: info.Size(),
		Checksum:  checksum,
	}
	if err := writeMetadata(filepath.Join(stage, metadataFilename), metadata); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	key := s.keyPrefix + timestamp.Format(archiveTimeLayout) + archiveSuffix
	archivePath := filepath.Join(stage, filepath.Base(key))
	if err := createArchive(archivePath, stage, []string{snapshotName, metadataFilename}); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	archiveInfo, err := archive.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat archive: %w", err)
	}

	if err := s.store.Upload(ctx, key, archive, archiveInfo.Size()); err != nil {
		return "", err
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("Backup uploaded")

	if err := s.Rotate(ctx); err != nil {
		// The new archive is safe; a failed prune is retried on the next run
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	return key, nil
}

// ListBackups returns the archives in the store, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, s.keyPrefix)
	if err != nil {
		return nil, err
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, s.keyPrefix) || !strings.HasSuffix(obj.Key, archiveSuffix) {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(obj.Key, s.keyPrefix), archiveSuffix)
		timestamp, err := time.Parse(archiveTimeLayout, raw)
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from key")
			continue
		}
		backups = append(backups, BackupInfo{
			Key:       obj.Key,
			Timestamp: timestamp,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Rotate deletes every archive beyond the newest retention ones
func (s *BackupService) Rotate(ctx context.Context) error {
	if s.retention < 1 {
		return nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= s.retention {
		return nil
	}

	deleted := 0
	var firstErr error
	for _, b := range backups[s.retention:] {
		if err := s.store.Delete(ctx, b.Key); err != nil {
			s.log.Error().Err(err).Str("key", b.Key).Msg("Failed to delete old backup")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")

	return firstErr
}

// verifySnapshot runs an integrity check on the copy before it leaves the host
func verifySnapshot(ctx context.Context, path string) error {
	snapshot, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer snapshot.Close()

	var result string
	if err := snapshot.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("snapshot integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("snapshot integrity check failed: %s", result)
	}
	return nil
}

func calculateChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func createArchive(archivePath, sourceDir string, names []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, name := range names {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
