package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/klauspost/compress/zstd"
)

// ErrNoSnapshot is returned by LoadLatest when the directory contains no
// snapshot file.
var ErrNoSnapshot = errors.New("snapshot: no snapshot found")

var filenamePattern = regexp.MustCompile(`^snapshot_(\d+)\.bin$`)

// Store reads and writes snapshot_<seq_id>.bin files in a directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(seqId uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("snapshot_%d.bin", seqId))
}

// Save compresses and writes state to snapshot_<seqId>.bin.
func (s *Store) Save(state *State, seqId uint64) error {
	state.SeqId = seqId
	raw := encodeState(state)

	f, err := os.Create(s.path(seqId))
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", s.path(seqId), err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("snapshot: new zstd writer: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: write payload: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("snapshot: close zstd writer: %w", err)
	}
	return nil
}

// latestSeqId scans the directory and returns the greatest numeric suffix
// among well-formed snapshot_<seq_id>.bin filenames.
func (s *Store) latestSeqId() (uint64, bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, false, fmt.Errorf("snapshot: read dir %s: %w", s.dir, err)
	}

	var maxSeq uint64
	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := filenamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		seq, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		if !found || seq > maxSeq {
			maxSeq = seq
			found = true
		}
	}
	return maxSeq, found, nil
}

// LoadLatest loads the snapshot with the greatest seq_id in the directory.
func (s *Store) LoadLatest() (*State, error) {
	seq, found, err := s.latestSeqId()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoSnapshot
	}
	return s.Load(seq)
}

// Load reads and decodes the snapshot with the given seq_id.
func (s *Store) Load(seqId uint64) (*State, error) {
	f, err := os.Open(s.path(seqId))
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", s.path(seqId), err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot: new zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompress: %w", err)
	}

	state, err := decodeState(raw)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return state, nil
}
