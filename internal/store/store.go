// Package store reads and writes JSON Lines record files: the existing
// dataset, and the per-run partitions appended next to it.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"xkcdharvest/internal/config"
	"xkcdharvest/internal/logger"
	"xkcdharvest/internal/models"
)

const partitionExt = ".jsonl"

// Store errors.
var (
	ErrEmptyPartition = errors.New("refusing to write an empty partition")
	ErrInvalidRange   = errors.New("partition range is inverted")
	ErrCorruptFile    = errors.New("corrupt record file")
)

// Options configures a Store.
type Options struct {
	// Existing is the base dataset. It may not exist yet.
	Existing string
	// Dir receives new partitions.
	Dir    string
	Prefix string
	// CreateBackup renames a partition that would be overwritten to *.bak.
	CreateBackup bool
}

// Store locates the resume point and persists harvested batches.
type Store struct {
	opts   Options
	logger *logger.Logger
}

// ResumePoint is the highest identifier already stored.
type ResumePoint struct {
	ID int
	// Source is the file that held ID, empty when the floor was used.
	Source string
	// Files is the number of record files scanned.
	Files int
	// Records is the number of records read while scanning.
	Records int
}

// New creates a store.
func New(opts Options, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}

	return &Store{opts: opts, logger: log.With("component", "store")}
}

// NewWithConfig creates a store from the harvester configuration.
func NewWithConfig(cfg *config.Config, log *logger.Logger) *Store {
	return New(Options{
		Existing:     cfg.Harvester.Store.Existing,
		Dir:          cfg.Harvester.Output.Dir,
		Prefix:       cfg.Harvester.Output.Prefix,
		CreateBackup: cfg.Harvester.Output.CreateBackup,
	}, log)
}

// PartitionName returns the file name of the partition covering [minID, maxID].
func PartitionName(prefix string, minID, maxID int) string {
	return fmt.Sprintf("%s-%d-%d%s", prefix, minID, maxID, partitionExt)
}

// PartitionPath returns where the partition covering [minID, maxID] lives.
func (s *Store) PartitionPath(minID, maxID int) string {
	return filepath.Join(s.opts.Dir, PartitionName(s.opts.Prefix, minID, maxID))
}

// Partitions lists existing partition files in ascending range order.
func (s *Store) Partitions() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.opts.Dir, s.opts.Prefix+"-*"+partitionExt))
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	var partitions []string

	for _, m := range matches {
		if _, _, ok := s.parseRange(filepath.Base(m)); ok {
			partitions = append(partitions, m)
		}
	}

	sort.Slice(partitions, func(i, j int) bool {
		mi, _, _ := s.parseRange(filepath.Base(partitions[i]))
		mj, _, _ := s.parseRange(filepath.Base(partitions[j]))

		return mi < mj
	})

	return partitions, nil
}

func (s *Store) parseRange(name string) (int, int, bool) {
	rest, ok := strings.CutPrefix(name, s.opts.Prefix+"-")
	if !ok {
		return 0, 0, false
	}

	rest, ok = strings.CutSuffix(rest, partitionExt)
	if !ok {
		return 0, 0, false
	}

	minText, maxText, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, 0, false
	}

	minID, err := strconv.Atoi(minText)
	if err != nil {
		return 0, 0, false
	}

	maxID, err := strconv.Atoi(maxText)
	if err != nil {
		return 0, 0, false
	}

	return minID, maxID, true
}

// ResumePoint returns the highest identifier found in the base dataset and
// every partition, or floor when nothing larger is stored. Missing files
// contribute nothing.
func (s *Store) ResumePoint(floor int) (ResumePoint, error) {
	point := ResumePoint{ID: floor}

	files := make([]string, 0, 8)
	if s.opts.Existing != "" {
		files = append(files, s.opts.Existing)
	}

	partitions, err := s.Partitions()
	if err != nil {
		return point, err
	}

	files = append(files, partitions...)

	for _, path := range files {
		records, loadErr := LoadRecords(path)
		if errors.Is(loadErr, os.ErrNotExist) {
			s.logger.Debug("Record file not found, skipping", "path", path)

			continue
		}

		if loadErr != nil {
			return point, loadErr
		}

		point.Files++
		point.Records += len(records)

		for i := range records {
			if records[i].ID != nil && *records[i].ID > point.ID {
				point.ID = *records[i].ID
				point.Source = path
			}
		}
	}

	s.logger.Debug("Resume point computed", "id", point.ID, "source", point.Source, "files", point.Files)

	return point, nil
}

// LoadRecords reads every record of a JSON Lines file. Blank lines are skipped.
func LoadRecords(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return DecodeRecords(f, path)
}

// DecodeRecords reads JSON Lines records from r. name is used in errors.
func DecodeRecords(r io.Reader, name string) ([]models.Record, error) {
	var records []models.Record

	dec := json.NewDecoder(bufio.NewReader(r))

	for {
		var rec models.Record

		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return records, fmt.Errorf("%w: %s: record %d: %w", ErrCorruptFile, name, len(records)+1, err)
		}

		records = append(records, rec)
	}
}

// WritePartition writes records to the partition file for [minID, maxID] and
// returns its path. The file appears atomically; an existing one is kept as a
// backup when configured.
func (s *Store) WritePartition(records []models.Record, minID, maxID int) (string, error) {
	if len(records) == 0 {
		return "", ErrEmptyPartition
	}

	if minID > maxID {
		return "", fmt.Errorf("%w: %d-%d", ErrInvalidRange, minID, maxID)
	}

	if err := os.MkdirAll(s.opts.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	target := s.PartitionPath(minID, maxID)

	tmp, err := os.CreateTemp(s.opts.Dir, "."+s.opts.Prefix+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := EncodeRecords(tmp, records); err != nil {
		_ = tmp.Close()

		return "", err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return "", fmt.Errorf("sync %s: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmpName, err)
	}

	if s.opts.CreateBackup {
		if _, statErr := os.Stat(target); statErr == nil {
			backupPath := target + ".bak"
			if renameErr := os.Rename(target, backupPath); renameErr != nil {
				s.logger.Warn("Could not create backup", "path", target, "error", renameErr)
			} else {
				s.logger.Info("Backed up existing partition", "backup", backupPath)
			}
		}
	}

	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("rename %s: %w", target, err)
	}

	committed = true

	s.logger.Info("Partition written", "path", target, "records", len(records))

	return target, nil
}

// EncodeRecords writes one JSON object per line.
func EncodeRecords(w io.Writer, records []models.Record) error {
	bw := bufio.NewWriter(w)

	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}

	return nil
}
