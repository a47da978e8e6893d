package runs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/MandiZhao/lowvr/internal/compare"
	lverrors "github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/logger"
)

var (
	runDirPattern = regexp.MustCompile(`^(offline-)?run-(\d{8}_\d{6})-([a-z0-9]+)$`)
	epochPattern  = regexp.MustCompile(`epoch(\d+)`)
)

const (
	runTimeLayout   = "20060102_150405"
	filesDir        = "files"
	mediaDir        = "media"
	historyJSONL    = "wandb-history.jsonl"
	metadataFile    = "wandb-metadata.json"
	configFile      = "config.yaml"
	summaryFile     = "wandb-summary.json"
	binaryLogSuffix = ".wandb"
)

// Run describes one run directory.
type Run struct {
	ID          string                 `json:"id"`
	Dir         string                 `json:"dir"`
	WandbFile   string                 `json:"wandb_file,omitempty"`
	HistoryFile string                 `json:"history_file,omitempty"`
	IsOffline   bool                   `json:"is_offline"`
	CreatedAt   *time.Time             `json:"created_at"`
	Name        string                 `json:"name"`
	DisplayName string                 `json:"display_name"`
	Project     string                 `json:"project,omitempty"`
	Entity      string                 `json:"entity,omitempty"`
	State       string                 `json:"state,omitempty"`
	Metadata    map[string]interface{} `json:"metadata"`
	Config      map[string]interface{} `json:"config"`
	Summary     map[string]interface{} `json:"summary"`
	MediaDir    string                 `json:"media_dir"`
	HasVideos   bool                   `json:"has_videos"`
}

// Video is a media file logged by a run.
type Video struct {
	Path         string `json:"path"`
	Filename     string `json:"filename"`
	Name         string `json:"name"`
	Epoch        *int   `json:"epoch"`
	RelativePath string `json:"relative_path"`
}

type cachedHistory struct {
	modTime time.Time
	size    int64
	log     *Log
}

// Loader discovers runs under a wandb directory and reads their history.
// Histories are cached per source file and reloaded when the file changes.
// Safe for concurrent use.
type Loader struct {
	fs  afero.Fs
	dir string
	log logger.Logger

	mu      sync.RWMutex
	runs    map[string]Run
	history map[string]cachedHistory
}

// NewLoader creates a loader for the wandb directory dir on fs.
func NewLoader(fs afero.Fs, dir string, log logger.Logger) *Loader {
	if log == nil {
		log = logger.Noop()
	}
	return &Loader{
		fs:      fs,
		dir:     dir,
		log:     log,
		runs:    make(map[string]Run),
		history: make(map[string]cachedHistory),
	}
}

// Dir returns the wandb directory being scanned.
func (l *Loader) Dir() string {
	return l.dir
}

// Fs returns the filesystem the loader reads from.
func (l *Loader) Fs() afero.Fs {
	return l.fs
}

// Discover scans the wandb directory and returns every run, newest first.
func (l *Loader) Discover() ([]Run, error) {
	entries, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		return nil, lverrors.WrapWithCode(err, lverrors.ErrRun,
			fmt.Sprintf("Can't read wandb directory %s", l.dir),
			"Check wandb_dir in your config or pass the directory as an argument")
	}

	var found []Run
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := runDirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		run, ok := l.loadRun(filepath.Join(l.dir, entry.Name()), m)
		if ok {
			found = append(found, run)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i].CreatedAt, found[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	runs := make(map[string]Run, len(found))
	for _, r := range found {
		runs[r.ID] = r
	}
	l.mu.Lock()
	l.runs = runs
	l.mu.Unlock()

	l.log.Debug("discovered %d runs in %s", len(found), l.dir)
	return found, nil
}

func (l *Loader) loadRun(dir string, m []string) (Run, bool) {
	id := m[3]
	run := Run{
		ID:        id,
		Dir:       dir,
		IsOffline: m[1] != "",
		MediaDir:  filepath.Join(dir, filesDir, mediaDir),
	}
	if t, err := time.Parse(runTimeLayout, m[2]); err == nil {
		run.CreatedAt = &t
	}

	if matches, _ := afero.Glob(l.fs, filepath.Join(dir, "run-*"+binaryLogSuffix)); len(matches) > 0 {
		sort.Strings(matches)
		run.WandbFile = matches[0]
	}
	if p := filepath.Join(dir, filesDir, historyJSONL); fileExists(l.fs, p) {
		run.HistoryFile = p
	}
	if run.WandbFile == "" && run.HistoryFile == "" {
		return Run{}, false
	}

	run.Metadata = l.readJSON(filepath.Join(dir, filesDir, metadataFile))
	run.Summary = l.readJSON(filepath.Join(dir, filesDir, summaryFile))
	run.Config = l.readConfig(filepath.Join(dir, filesDir, configFile))

	var info RunInfo
	if run.WandbFile != "" {
		if log, err := l.readLog(run.WandbFile); err == nil {
			info = log.Run
			if len(log.Config) > 0 {
				if run.Config == nil {
					run.Config = map[string]interface{}{}
				}
				for k, v := range log.Config {
					if _, ok := run.Config[k]; !ok {
						run.Config[k] = v
					}
				}
			}
			if run.Summary == nil && len(log.Summary) > 0 {
				run.Summary = log.Summary
			}
		} else {
			l.log.Warn("reading binary log for %s: %v", id, err)
		}
	}

	if len(run.Config) == 0 {
		run.Config = configFromArgs(stringList(run.Metadata["args"]))
	}

	run.Name = id
	if program, ok := run.Metadata["program"].(string); ok && program != "" {
		run.Name = path.Base(filepath.ToSlash(program))
	}
	if state, ok := run.Metadata["state"].(string); ok {
		run.State = state
	}
	run.Project, run.Entity = info.Project, info.Entity
	run.DisplayName = displayName(id, run.Config, info)
	run.HasVideos = l.hasVideos(run.MediaDir)
	return run, true
}

// Get returns one run, rescanning the directory when it is not known yet.
func (l *Loader) Get(id string) (Run, error) {
	l.mu.RLock()
	run, ok := l.runs[id]
	l.mu.RUnlock()
	if ok {
		return run, nil
	}

	if _, err := l.Discover(); err != nil {
		return Run{}, err
	}
	l.mu.RLock()
	run, ok = l.runs[id]
	l.mu.RUnlock()
	if !ok {
		return Run{}, lverrors.New(lverrors.ErrRun,
			fmt.Sprintf("Run %s not found", id),
			"Run 'lowvr runs' to list the runs in the wandb directory")
	}
	return run, nil
}

// History returns the history rows of a run. The binary log is preferred;
// the JSONL history is used when there is none.
func (l *Loader) History(id string) ([]Row, error) {
	run, err := l.Get(id)
	if err != nil {
		return nil, err
	}

	source := run.WandbFile
	if source == "" || !fileExists(l.fs, source) {
		source = run.HistoryFile
	}
	if source == "" {
		return nil, nil
	}

	log, err := l.readLog(source)
	if err != nil {
		return nil, lverrors.WrapWithCode(err, lverrors.ErrRun,
			fmt.Sprintf("Can't read history of run %s", id), "")
	}
	if len(log.History) == 0 {
		l.log.Warn("no history found for %s in %s", id, source)
	}
	return log.History, nil
}

// readLog returns the decoded source file, from cache when the file is unchanged.
func (l *Loader) readLog(p string) (*Log, error) {
	info, err := l.fs.Stat(p)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	cached, ok := l.history[p]
	l.mu.RUnlock()
	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.log, nil
	}

	f, err := l.fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var log *Log
	if strings.HasSuffix(p, binaryLogSuffix) {
		log, err = ReadLog(f)
		if err != nil {
			return nil, err
		}
	} else {
		rows, skipped, err := ReadJSONL(f)
		if err != nil {
			return nil, err
		}
		log = &Log{History: rows, Skipped: skipped}
	}
	if log.Skipped > 0 {
		l.log.Debug("skipped %d corrupt entries in %s", log.Skipped, p)
	}
	l.log.Debug("loaded %d history rows from %s", len(log.History), p)

	l.mu.Lock()
	l.history[p] = cachedHistory{modTime: info.ModTime(), size: info.Size(), log: log}
	l.mu.Unlock()
	return log, nil
}

// Metrics returns the requested metric columns of a run. An empty key list
// selects every numeric metric.
func (l *Loader) Metrics(id string, keys []string) (compare.RawSeries, error) {
	history, err := l.History(id)
	if err != nil {
		return nil, err
	}
	return ExtractMetrics(history, keys), nil
}

// AvailableMetrics lists the numeric metrics recorded by a run.
func (l *Loader) AvailableMetrics(id string) ([]string, error) {
	history, err := l.History(id)
	if err != nil {
		return nil, err
	}
	return AvailableMetrics(history), nil
}

// Videos lists the GIFs logged by a run, ordered by epoch. Files without an
// epoch in their name come last.
func (l *Loader) Videos(id string) ([]Video, error) {
	run, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if ok, _ := afero.DirExists(l.fs, run.MediaDir); !ok {
		return []Video{}, nil
	}

	base := filepath.Join(run.Dir, filesDir)
	videos := []Video{}
	err = afero.Walk(l.fs, run.MediaDir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.EqualFold(filepath.Ext(p), ".gif") {
			return nil
		}
		name := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		rel, relErr := filepath.Rel(base, p)
		if relErr != nil {
			return nil
		}
		v := Video{
			Path:         p,
			Filename:     info.Name(),
			Name:         name,
			RelativePath: filepath.ToSlash(rel),
		}
		if m := epochPattern.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				v.Epoch = &n
			}
		}
		videos = append(videos, v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i].Epoch, videos[j].Epoch
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return videos, nil
}

// MediaPath resolves a path relative to a run's files directory. Paths that
// would leave that directory are rejected.
func (l *Loader) MediaPath(id, rel string) (string, error) {
	run, err := l.Get(id)
	if err != nil {
		return "", err
	}
	base := filepath.Clean(filepath.Join(run.Dir, filesDir))
	p := filepath.Clean(filepath.Join(base, filepath.FromSlash(rel)))
	if p == base || !strings.HasPrefix(p, base+string(filepath.Separator)) {
		return "", lverrors.New(lverrors.ErrInput,
			fmt.Sprintf("Media path %q is outside the run directory", rel), "")
	}
	return p, nil
}

// ConfigKeys returns the flattened config keys of every discovered run.
func (l *Loader) ConfigKeys() []string {
	l.mu.RLock()
	configs := make([]map[string]interface{}, 0, len(l.runs))
	for _, r := range l.runs {
		configs = append(configs, r.Config)
	}
	l.mu.RUnlock()
	return ConfigKeys(configs...)
}

// Delete removes a run directory from disk and forgets everything cached about it.
func (l *Loader) Delete(id string) error {
	run, err := l.Get(id)
	if err != nil {
		return err
	}
	if err := l.fs.RemoveAll(run.Dir); err != nil {
		return lverrors.WrapWithCode(err, lverrors.ErrRun,
			fmt.Sprintf("Can't delete run %s", id), "Check permissions on "+run.Dir)
	}
	l.log.Info("deleted run %s (%s)", id, run.Dir)
	l.ClearCache()
	return nil
}

// ClearCache drops all cached runs and histories.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = make(map[string]Run)
	l.history = make(map[string]cachedHistory)
}

func (l *Loader) readJSON(p string) map[string]interface{} {
	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		return nil
	}
	m, err := parseJSONObject(data)
	if err != nil {
		l.log.Debug("ignoring unreadable %s: %v", p, err)
		return nil
	}
	return m
}

func (l *Loader) readConfig(p string) map[string]interface{} {
	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		return nil
	}
	m, err := parseConfigYAML(data)
	if err != nil {
		l.log.Debug("ignoring unreadable %s: %v", p, err)
		return nil
	}
	return m
}

func (l *Loader) hasVideos(dir string) bool {
	found := false
	_ = afero.Walk(l.fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || found {
			return filepath.SkipDir
		}
		ext := strings.ToLower(filepath.Ext(p))
		if !info.IsDir() && (ext == ".gif" || ext == ".mp4") {
			found = true
		}
		return nil
	})
	return found
}

func fileExists(fs afero.Fs, p string) bool {
	info, err := fs.Stat(p)
	return err == nil && !info.IsDir()
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
