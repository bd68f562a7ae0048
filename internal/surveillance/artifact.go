package surveillance

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz/lzma"
)

var (
	ErrArtifactMissing = errors.New("replay artifact missing")
	ErrArtifactCorrupt = errors.New("replay artifact corrupt")
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ArtifactPath is where the replay of scoreID is stored under dir.
func ArtifactPath(dir string, scoreID int64) string {
	return filepath.Join(dir, strconv.FormatInt(scoreID, 10)+".osr")
}

// LoadArtifact reads and decompresses a stored replay stream. Replays are
// LZMA-alone compressed as uploaded by the client; zstd frames written by
// archival tooling are recognised by their magic number.
func LoadArtifact(dir string, scoreID int64) ([]byte, error) {
	raw, err := os.ReadFile(ArtifactPath(dir, scoreID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("score %d: %w", scoreID, ErrArtifactMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("read score %d replay: %w", scoreID, err)
	}
	data, err := decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("score %d: %w: %v", scoreID, ErrArtifactCorrupt, err)
	}
	return data, nil
}

func decompress(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(raw, nil)
	}
	r, err := lzma.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
