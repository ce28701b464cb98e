package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mikekulinski/coordination/pkg/zxid"
)

const (
	LogFilePrefix = "log"
)

// LogManager is an append-only journal of the mutations committed to an in memory tree.
// Each transaction is written to its own file in the directory provided, following the
// naming convention "{log_directory}/log_{zxid}".
type LogManager struct {
	// mu protects all the fields in the LogManager.
	mu       *sync.Mutex
	logPath  string
	LastZxid zxid.ZXID
}

func NewLogManager(logPath string) (*LogManager, error) {
	// Make sure to trim any trailing slashes if the provided path contains one.
	logPath = strings.TrimSuffix(logPath, "/")

	fileInfo, err := os.Stat(logPath)
	if err != nil {
		return nil, err
	}
	if !fileInfo.IsDir() {
		return nil, fmt.Errorf("file path does not point to a directory")
	}

	// Pick up where a previous run left off so we never reuse a zxid.
	txns, err := ReadLog(logPath)
	if err != nil {
		return nil, err
	}
	var last zxid.ZXID
	if len(txns) > 0 {
		last = txns[len(txns)-1].Zxid
	}
	return &LogManager{
		mu:       &sync.Mutex{},
		logPath:  logPath,
		LastZxid: last,
	}, nil
}

// Append writes the given transaction to a new file in the log directory.
func (l *LogManager) Append(txn *Txn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if txn.Zxid <= l.LastZxid {
		return fmt.Errorf("transaction %s has already been added to the log", txn.Zxid)
	}

	fileName := logFileName(l.logPath, txn.Zxid)
	err := os.WriteFile(fileName, txn.Marshal(), 0o644)
	if err != nil {
		return fmt.Errorf("error writing transaction to file: %w", err)
	}

	// Only advance once the transaction is safely on disk.
	l.LastZxid = txn.Zxid
	return nil
}

// Path returns the directory the journal is written to.
func (l *LogManager) Path() string {
	return l.logPath
}

// ReadLog reads every transaction in the log directory, ordered by zxid.
func ReadLog(logPath string) ([]*Txn, error) {
	entries, err := os.ReadDir(logPath)
	if err != nil {
		return nil, fmt.Errorf("error listing log directory: %w", err)
	}

	var txns []*Txn
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), LogFilePrefix+"_") {
			continue
		}
		raw := strings.TrimPrefix(entry.Name(), LogFilePrefix+"_")
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			continue
		}

		bytes, err := os.ReadFile(filepath.Join(logPath, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("error reading log file [%s]: %w", entry.Name(), err)
		}
		txn := &Txn{}
		if err := txn.Unmarshal(bytes); err != nil {
			return nil, fmt.Errorf("error decoding log file [%s]: %w", entry.Name(), err)
		}
		txns = append(txns, txn)
	}
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].Zxid < txns[j].Zxid
	})
	return txns, nil
}

func logFileName(logPath string, z zxid.ZXID) string {
	return fmt.Sprintf("%s/%s_%d", logPath, LogFilePrefix, int64(z))
}
