package out

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"tabfocus/internal/modules/focus/domain"
)

const settingsDebounce = 200 * time.Millisecond

// settingsFile is the on-disk shape. A missing alert_time means the default.
type settingsFile struct {
	FocusList        domain.FocusSet `yaml:"focus_list"`
	FocusModeEnabled bool            `yaml:"focus_mode_enabled"`
	AlertTime        *int            `yaml:"alert_time,omitempty"`
}

// FileSettingsStore keeps settings in a YAML file and watches it for edits
// made outside the daemon.
type FileSettingsStore struct {
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	last []byte
}

func NewFileSettingsStore(path string, logger *zap.Logger) *FileSettingsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSettingsStore{path: path, logger: logger}
}

func (s *FileSettingsStore) Path() string {
	return s.path
}

func (s *FileSettingsStore) Load(_ context.Context) (domain.Settings, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	settings, err := decodeSettings(raw)
	if err != nil {
		return domain.Settings{}, err
	}
	s.remember(raw)
	return settings, nil
}

// Save writes settings through a temp file and rename so watchers never see a partial file.
func (s *FileSettingsStore) Save(_ context.Context, settings domain.Settings) error {
	alert := settings.AlertTime
	file := settingsFile{FocusList: settings.FocusList, FocusModeEnabled: settings.FocusModeEnabled, AlertTime: &alert}
	if file.FocusList == nil {
		file.FocusList = domain.FocusSet{}
	}
	raw, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	s.remember(raw)
	return nil
}

// Watch reports external edits of the settings file until ctx is done. Writes
// made by Save itself are not reported.
func (s *FileSettingsStore) Watch(ctx context.Context, onChange func(domain.Settings)) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	go s.watchLoop(ctx, watcher, onChange)
	return nil
}

func (s *FileSettingsStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func(domain.Settings)) {
	defer watcher.Close()
	var reload *time.Timer
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			if reload != nil {
				reload.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if reload != nil {
				reload.Stop()
			}
			reload = time.AfterFunc(settingsDebounce, func() { s.reload(ctx, onChange) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("settings watcher error", zap.Error(err))
		}
	}
}

func (s *FileSettingsStore) reload(ctx context.Context, onChange func(domain.Settings)) {
	if ctx.Err() != nil {
		return
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read settings failed", zap.Error(err))
		}
		return
	}
	if !s.changed(raw) {
		return
	}
	settings, err := decodeSettings(raw)
	if err != nil {
		s.logger.Warn("ignoring invalid settings file", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.remember(raw)
	s.logger.Info("settings file changed", zap.String("path", s.path))
	onChange(settings)
}

func (s *FileSettingsStore) remember(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append(s.last[:0], raw...)
}

func (s *FileSettingsStore) changed(raw []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !bytes.Equal(s.last, raw)
}

func decodeSettings(raw []byte) (domain.Settings, error) {
	file := settingsFile{}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	settings := domain.Settings{
		FocusList:        file.FocusList,
		FocusModeEnabled: file.FocusModeEnabled,
		AlertTime:        domain.DefaultAlertTime,
	}
	if settings.FocusList == nil {
		settings.FocusList = domain.FocusSet{}
	}
	if file.AlertTime != nil {
		settings.AlertTime = *file.AlertTime
	}
	return settings, nil
}
