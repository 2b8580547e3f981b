// Package dashboard keeps the working set of classified items behind the
// terminal dashboard.
package dashboard

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mcao2/careops-triage/internal/config"
	"github.com/mcao2/careops-triage/internal/source"
	"github.com/mcao2/careops-triage/internal/triage"
)

const (
	settingsKey  = "settings"
	presetPrefix = "preset/"

	memoTTL = 10 * time.Minute
)

// ErrNoStore is returned by preset operations when no blob store is configured
var ErrNoStore = errors.New("no settings store configured")

// Engine owns the last good item set and derives dashboard views from it
type Engine struct {
	source   source.Source
	settings *triage.Store
	blobs    config.BlobStore
	log      logrus.FieldLogger
	metrics  *Metrics
	now      func() time.Time
	classify triage.Classifier
	memo     *cache.Cache

	mu          sync.Mutex
	items       []triage.Item
	read        map[string]bool
	classified  []triage.ClassifiedItem
	version     uint64 // settings version classified was built with
	lastErr     error
	lastRefresh time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithBlobStore persists settings and presets in s
func WithBlobStore(s config.BlobStore) Option {
	return func(e *Engine) { e.blobs = s }
}

// WithLogger sets the engine logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics records engine activity in m
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine around src. Settings previously persisted in the blob
// store are restored; a stored snapshot that no longer validates is logged and
// the defaults are kept.
func New(src source.Source, settings *triage.Store, opts ...Option) *Engine {
	e := &Engine{
		source:   src,
		settings: settings,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		memo:     cache.New(memoTTL, 2*memoTTL),
		read:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(prometheus.NewRegistry())
	}
	e.classify = triage.Classifier{Now: e.now}
	e.restoreSettings()
	e.metrics.SettingsVersion.Set(float64(e.settings.Version()))
	return e
}

func (e *Engine) restoreSettings() {
	if e.blobs == nil {
		return
	}
	data, err := e.blobs.Get(settingsKey)
	if errors.Is(err, config.ErrNotFound) {
		return
	}
	if err != nil {
		e.log.WithError(err).Warn("failed to read persisted settings")
		return
	}

	var s triage.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		e.log.WithError(err).Warn("ignoring unreadable persisted settings")
		return
	}
	if _, err := e.settings.Update(s); err != nil {
		e.log.WithError(err).Warn("ignoring invalid persisted settings")
		return
	}
	e.log.WithField("algorithm", s.Algorithm).Info("restored settings")
}

// SourceName names the configured data source
func (e *Engine) SourceName() string {
	return e.source.Name()
}

// Refresh fetches the current items and classifies them. When the fetch
// fails the previous item set is kept and a DataSourceError is returned.
// Malformed items are skipped and reported as a joined input error.
func (e *Engine) Refresh(ctx context.Context) error {
	batch := uuid.NewString()
	log := e.log.WithField("batch", batch).WithField("source", e.source.Name())
	start := time.Now()

	items, err := e.source.Fetch(ctx)
	if err != nil {
		werr := triage.DataSourceError(e.source.Name(), err).WithDetail("batch", batch)
		e.metrics.Refreshes.WithLabelValues("error").Inc()
		log.WithError(err).Error("refresh failed, keeping last good items")

		e.mu.Lock()
		e.lastErr = werr
		e.mu.Unlock()
		return werr
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = e.applyRead(items)
	cerr := e.reclassifyLocked()
	e.lastRefresh = e.now()
	e.lastErr = cerr

	e.metrics.Refreshes.WithLabelValues("ok").Inc()
	e.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	log.WithField("items", len(items)).
		WithField("classified", len(e.classified)).
		WithField("duration", time.Since(start).Round(time.Millisecond)).
		Info("refresh complete")
	if cerr != nil {
		log.WithError(cerr).Warn("some items could not be classified")
	}
	return cerr
}

// Import merges items into the working set, replacing items with the same ID.
// It returns the number of imported items that were classified; malformed
// ones are skipped and reported in the joined input error.
func (e *Engine) Import(items []triage.Item) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	merged := slices.Clone(e.items)
	index := make(map[string]int, len(merged))
	for i, item := range merged {
		index[item.ID] = i
	}
	for _, item := range items {
		if i, ok := index[item.ID]; ok {
			merged[i] = item
			continue
		}
		index[item.ID] = len(merged)
		merged = append(merged, item)
	}

	e.items = e.applyRead(merged)
	err := e.reclassifyLocked()

	classified := make(map[string]bool, len(e.classified))
	for _, ci := range e.classified {
		classified[ci.Item.ID] = true
	}
	accepted := 0
	for _, item := range items {
		if classified[item.ID] {
			accepted++
		}
	}
	e.log.WithField("items", len(items)).WithField("accepted", accepted).Info("imported items")
	return accepted, err
}

// View filters, ranks and summarises the working set. Items are reclassified
// first if the settings changed since the last classification.
func (e *Engine) View(spec triage.FilterSpec) triage.Result {
	e.mu.Lock()
	if e.version != e.settings.Version() {
		if err := e.reclassifyLocked(); err != nil {
			e.lastErr = err
		}
	}
	classified := e.classified
	e.mu.Unlock()

	return triage.Derive(classified, spec, e.now())
}

// MarkRead flags an item as read and acknowledges it upstream when the source
// supports it. The local flag stays set even if the acknowledgement fails.
func (e *Engine) MarkRead(ctx context.Context, id string) error {
	e.mu.Lock()
	idx := slices.IndexFunc(e.items, func(it triage.Item) bool { return it.ID == id })
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("unknown item %q", id)
	}
	e.read[id] = true
	e.items = e.applyRead(e.items)
	e.classified = slices.Clone(e.classified)
	for i := range e.classified {
		if e.classified[i].Item.ID == id {
			e.classified[i].Item.Read = true
		}
	}
	e.mu.Unlock()

	ack, ok := e.source.(source.Acknowledger)
	if !ok {
		return nil
	}
	if err := ack.MarkRead(ctx, id); err != nil {
		e.log.WithError(err).WithField("item", id).Warn("failed to acknowledge item upstream")
		return triage.DataSourceError(e.source.Name(), err).WithDetail("item_id", id)
	}
	return nil
}

// Settings returns the active settings snapshot
func (e *Engine) Settings() triage.Settings {
	return e.settings.Get()
}

// UpdateSettings validates and applies s, then persists it. A rejected update
// leaves the previous snapshot active.
func (e *Engine) UpdateSettings(s triage.Settings) (triage.Settings, error) {
	updated, err := e.settings.Update(s)
	if err != nil {
		e.log.WithError(err).Warn("settings update rejected")
		return updated, err
	}
	e.log.WithField("version", updated.Version).WithField("algorithm", updated.Algorithm).Info("settings updated")
	e.metrics.SettingsVersion.Set(float64(updated.Version))
	return updated, e.persistSettings(updated)
}

// ResetSettings restores the defaults and persists them
func (e *Engine) ResetSettings() (triage.Settings, error) {
	s := e.settings.Reset()
	e.log.WithField("version", s.Version).Info("settings reset")
	e.metrics.SettingsVersion.Set(float64(s.Version))
	return s, e.persistSettings(s)
}

func (e *Engine) persistSettings(s triage.Settings) error {
	if e.blobs == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := e.blobs.Put(settingsKey, data); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// SavePreset stores spec under name
func (e *Engine) SavePreset(name string, spec triage.FilterSpec) error {
	if e.blobs == nil {
		return ErrNoStore
	}
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	return e.blobs.Put(presetPrefix+name, data)
}

// LoadPreset returns the filter saved under name
func (e *Engine) LoadPreset(name string) (triage.FilterSpec, error) {
	if e.blobs == nil {
		return triage.FilterSpec{}, ErrNoStore
	}
	data, err := e.blobs.Get(presetPrefix + name)
	if err != nil {
		return triage.FilterSpec{}, fmt.Errorf("preset %q: %w", name, err)
	}
	var spec triage.FilterSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return triage.FilterSpec{}, fmt.Errorf("failed to decode preset %q: %w", name, err)
	}
	return spec, nil
}

// Presets lists saved preset names in order
func (e *Engine) Presets() ([]string, error) {
	if e.blobs == nil {
		return nil, ErrNoStore
	}
	keys, err := e.blobs.Keys(presetPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k[len(presetPrefix):]
	}
	return names, nil
}

// DeletePreset removes a saved preset
func (e *Engine) DeletePreset(name string) error {
	if e.blobs == nil {
		return ErrNoStore
	}
	return e.blobs.Delete(presetPrefix + name)
}

// LastError returns the error from the most recent refresh or reclassification
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LastRefresh returns when items were last fetched successfully
func (e *Engine) LastRefresh() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRefresh
}

// applyRead copies items and carries over locally set read flags
func (e *Engine) applyRead(items []triage.Item) []triage.Item {
	out := slices.Clone(items)
	for i := range out {
		if e.read[out[i].ID] {
			out[i].Read = true
		}
	}
	return out
}

// reclassifyLocked rebuilds the classified set from e.items against the
// current settings. The caller must hold e.mu.
func (e *Engine) reclassifyLocked() error {
	s := e.settings.Get()

	// Custom scores depend on the clock through the recency factor, so only
	// the threshold algorithms are memoised.
	useMemo := s.Algorithm != triage.AlgorithmCustom

	out := make([]triage.ClassifiedItem, 0, len(e.items))
	var errs []error
	for _, item := range e.items {
		key := memoKey(s.Version, item)
		if useMemo {
			if v, ok := e.memo.Get(key); ok {
				e.metrics.MemoHits.Inc()
				out = append(out, triage.ClassifiedItem{Item: item, Classification: v.(triage.Classification)})
				continue
			}
		}

		cls, err := e.classify.Classify(item, s)
		if err != nil {
			if triage.IsConfigurationError(err) {
				return err
			}
			e.metrics.InputErrors.Inc()
			errs = append(errs, err)
			continue
		}
		if useMemo {
			e.memo.Set(key, cls, cache.DefaultExpiration)
		}
		e.metrics.Classified.WithLabelValues(string(cls.Tier)).Inc()
		out = append(out, triage.ClassifiedItem{Item: item, Classification: cls})
	}

	e.classified = out
	e.version = s.Version

	totals := triage.Aggregate(out)
	e.metrics.Items.Set(float64(totals.Total))
	e.metrics.ActionRequired.Set(float64(totals.ActionRequired))
	if totals.ActiveEmergency {
		e.metrics.ActiveEmergency.Set(1)
	} else {
		e.metrics.ActiveEmergency.Set(0)
	}
	return errors.Join(errs...)
}

// memoKey identifies a classification by settings version and the item
// fields the classifier reads
func memoKey(version uint64, item triage.Item) string {
	h := xxhash.New()
	for _, s := range []string{item.ID, item.Sender, item.Subject, item.Content, item.Department} {
		h.WriteString(s)
		h.Write([]byte{0})
	}
	for _, tag := range item.Tags {
		h.WriteString(tag)
		h.Write([]byte{0})
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(item.Timestamp.UnixNano()))
	binary.LittleEndian.PutUint64(buf[8:], uint64(item.Interactions))
	h.Write(buf[:])
	return strconv.FormatUint(version, 10) + ":" + strconv.FormatUint(h.Sum64(), 16)
}
