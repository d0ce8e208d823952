// Package archive compresses event logs past the retention window. An
// archived day stays readable: the store decompresses it transparently on
// load, so archiving only trades disk space for a slower read.
package archive

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/0xbeekeeper/claw-diary/internal/store"
)

// Result reports what one archive run did.
type Result struct {
	Archived []string
	Skipped  int
}

// Run compresses every day older than retentionDays, measured back from
// today. Already-archived days are skipped. The plain log is removed only
// after its archive has been fully written and closed.
func Run(s *store.Store, today time.Time, retentionDays int) (Result, error) {
	var res Result

	dates, err := s.Dates()
	if err != nil {
		return res, err
	}

	cutoff := today.AddDate(0, 0, -retentionDays)
	for _, date := range dates {
		if !date.Before(cutoff) {
			continue
		}
		src := s.LogPath(date)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			res.Skipped++
			continue
		}

		dest := s.ArchivePath(date)
		if err := compressFile(src, dest); err != nil {
			return res, fmt.Errorf("archive %s: %w", date.Format(store.DateFormat), err)
		}
		if err := os.Remove(src); err != nil {
			return res, fmt.Errorf("remove archived log: %w", err)
		}
		res.Archived = append(res.Archived, dest)
	}

	return res, nil
}

func compressFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	encoder, err := zstd.NewWriter(dest)
	if err != nil {
		dest.Close()
		return fmt.Errorf("create zstd encoder: %w", err)
	}

	if _, err := io.Copy(encoder, src); err != nil {
		encoder.Close()
		dest.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		dest.Close()
		return fmt.Errorf("finalize compression: %w", err)
	}
	return dest.Close()
}
