package resultstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/g1o/QuasiRecomb/hmmlib"
)

const gobSuffix = ".gob.gz"

// GobDirStore writes each result to <dir>/<run id>.gob.gz.
type GobDirStore struct {
	dir string
}

func NewGobDirStore(dir string) *GobDirStore {
	return &GobDirStore{dir: dir}
}

func (s *GobDirStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("store directory is required")
	}
	return errors.Wrap(os.MkdirAll(s.dir, 0755), "create store directory")
}

func (s *GobDirStore) path(runID string) string {
	return filepath.Join(s.dir, runID+gobSuffix)
}

func (s *GobDirStore) Save(_ context.Context, or *hmmlib.OptimalResult) error {

	if or.RunID == "" {
		return errors.New("result has no run id")
	}

	fid, err := os.Create(s.path(or.RunID))
	if err != nil {
		return errors.Wrap(err, "create result file")
	}
	defer fid.Close()

	if err := hmmlib.WriteResult(fid, or); err != nil {
		return errors.Wrapf(err, "write result %s", or.RunID)
	}

	return fid.Close()
}

func (s *GobDirStore) Get(_ context.Context, runID string) (*hmmlib.OptimalResult, bool, error) {

	fid, err := os.Open(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "open result file")
	}
	defer fid.Close()

	or, err := hmmlib.ReadResult(fid)
	if err != nil {
		return nil, false, errors.Wrapf(err, "read result %s", runID)
	}
	return or, true, nil
}

func (s *GobDirStore) List(ctx context.Context) ([]Summary, error) {

	names, err := filepath.Glob(filepath.Join(s.dir, "*"+gobSuffix))
	if err != nil {
		return nil, errors.Wrap(err, "list store directory")
	}

	var out []Summary
	for _, name := range names {
		runID := strings.TrimSuffix(filepath.Base(name), gobSuffix)
		or, ok, err := s.Get(ctx, runID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, summarize(or))
		}
	}
	sortSummaries(out)
	return out, nil
}

func (s *GobDirStore) Close() error {
	return nil
}
