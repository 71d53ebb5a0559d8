package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// FileName is the per-month ledger file.
const FileName = "ledger.csv"

// Store keeps one ledger file per month under root/YYYY/MM.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// WriteMonths replaces the ledger of every month present in txns and
// returns the files written, in month order.
func (s *Store) WriteMonths(txns []model.ClassifiedTransaction) ([]string, error) {
	byMonth := make(map[string][]model.ClassifiedTransaction)
	for _, t := range txns {
		byMonth[t.MonthKey()] = append(byMonth[t.MonthKey()], t)
	}
	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var paths []string
	for _, k := range keys {
		first := byMonth[k][0].Date
		path := s.monthPath(first.Year(), int(first.Month()))
		if err := writeFile(path, byMonth[k]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadMonth reads the ledger for a year/month. A missing file yields nil.
func (s *Store) ReadMonth(year, month int) ([]model.ClassifiedTransaction, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	txns, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return txns, nil
}

func (s *Store) monthPath(year, month int) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), FileName)
}

func writeFile(path string, txns []model.ClassifiedTransaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ledger: %w", err)
	}
	defer f.Close()

	if err := WriteTransactions(f, txns); err != nil {
		return fmt.Errorf("writing ledger %s: %w", path, err)
	}
	return nil
}
