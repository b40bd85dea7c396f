package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "balag/internal/errors"
)

// analysisDirLayout is the timestamp suffix of an analysis run directory
const analysisDirLayout = "02-01-06_15-04"

// Paths contains all the pipeline paths
// This is the single source of truth for ALL file paths in the pipeline
type Paths struct {
	ExecutableDir string
	DataDir       string
	RawDir        string
	ProcessedDir  string
	ReportsDir    string
	AnalysisDir   string
	LogsDir       string

	// AccountFile holds the FTP credentials (login_ftp.txt)
	AccountFile string
}

// GetPaths returns the pipeline paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	exeDir := filepath.Dir(exe)

	slog.Default().Debug("Resolved executable directory",
		slog.String("exe_path", exe),
		slog.String("exe_dir", exeDir))

	return NewPaths(exeDir), nil
}

// ResolvePaths returns the paths rooted at cfg.RootDir when it is set,
// and relative to the executable otherwise
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	if cfg.RootDir != "" {
		root, err := filepath.Abs(cfg.RootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root dir %s: %w", cfg.RootDir, err)
		}
		return NewPaths(root), nil
	}
	return GetPaths()
}

// NewPaths lays out the directory tree under root:
//
//	root/
//	  ├── login_ftp.txt
//	  ├── data/
//	  │   ├── raw/        (BalAG, Etab and Score extracts)
//	  │   ├── processed/  (cleaned invoices, feature files)
//	  │   └── reports/    (cleaning reports, metrics, workbooks)
//	  ├── analysis/       (one directory per analysis run)
//	  └── logs/
func NewPaths(root string) *Paths {
	dataDir := filepath.Join(root, "data")
	return &Paths{
		ExecutableDir: root,
		DataDir:       dataDir,
		RawDir:        filepath.Join(dataDir, "raw"),
		ProcessedDir:  filepath.Join(dataDir, "processed"),
		ReportsDir:    filepath.Join(dataDir, "reports"),
		AnalysisDir:   filepath.Join(root, "analysis"),
		LogsDir:       filepath.Join(root, "logs"),
		AccountFile:   filepath.Join(root, "login_ftp.txt"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.RawDir,
		p.ProcessedDir,
		p.ReportsDir,
		p.AnalysisDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetProcessedPath returns the path of a processed file
func (p *Paths) GetProcessedPath(filename string) string {
	return filepath.Join(p.ProcessedDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetAccountPath returns the FTP account file, honoring an explicit name
// relative to the root directory
func (p *Paths) GetAccountPath(name string) string {
	if name == "" {
		return p.AccountFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.ExecutableDir, name)
}

// NextAnalysisDir creates a fresh run directory named <n>_<dd-mm-yy_HH-MM>,
// n being the number of entries already present in the analysis directory.
func (p *Paths) NextAnalysisDir(now time.Time) (string, error) {
	if err := os.MkdirAll(p.AnalysisDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create analysis directory: %w", err)
	}

	entries, err := os.ReadDir(p.AnalysisDir)
	if err != nil {
		return "", fmt.Errorf("failed to list analysis directory: %w", err)
	}

	name := fmt.Sprintf("%d_%s", len(entries), now.Format(analysisDirLayout))
	dir := filepath.Join(p.AnalysisDir, name)
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory %s: %w", name, err)
	}

	return dir, nil
}

// LastAnalysisDir returns the run directory with the highest sequence number
func (p *Paths) LastAnalysisDir() (string, error) {
	entries, err := os.ReadDir(p.AnalysisDir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperrors.NewNotFoundError("analysis run").WithContext("dir", p.AnalysisDir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to list analysis directory: %w", err)
	}

	type run struct {
		seq  int
		name string
	}
	var runs []run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		seq, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		runs = append(runs, run{seq: seq, name: e.Name()})
	}

	if len(runs) == 0 {
		return "", apperrors.NewNotFoundError("analysis run").WithContext("dir", p.AnalysisDir)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].seq < runs[j].seq })
	return filepath.Join(p.AnalysisDir, runs[len(runs)-1].name), nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("root", p.ExecutableDir),
			slog.String("raw", p.RawDir),
			slog.String("processed", p.ProcessedDir),
			slog.String("reports", p.ReportsDir),
			slog.String("analysis", p.AnalysisDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Bool("account_file_exists", FileExists(p.AccountFile)))
}
