package canvas

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/kenaz-canvas/internal/checksum"
	"github.com/starford/kenaz-canvas/internal/metrics"
)

// saveTimeout bounds a single store write started by the debounce timer.
const saveTimeout = 10 * time.Second

// scheduleSave (re)starts the debounce window. Callers hold mu.
func (i *Instance) scheduleSave() {
	i.dirty = true
	if i.saveTimer != nil {
		i.saveTimer.Stop()
	}
	i.saveGen++
	gen := i.saveGen
	i.saveTimer = time.AfterFunc(i.debounce, func() { i.fire(gen) })
}

// fire runs when a debounce window elapses. Superseded or post-close
// generations are ignored.
func (i *Instance) fire(gen uint64) {
	i.mu.Lock()
	live := !i.closed && gen == i.saveGen
	if live {
		i.saveTimer = nil
	}
	i.mu.Unlock()
	if !live {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = i.save(ctx)
}

// Flush writes the scene now if it has unsaved changes.
func (i *Instance) Flush(ctx context.Context) error {
	i.mu.Lock()
	pending := i.dirty
	i.mu.Unlock()
	if !pending {
		return nil
	}
	return i.save(ctx)
}

// save snapshots the scene and writes it unless the payload is unchanged
// since the last successful write. Failures are logged and leave the scene
// dirty so the next mutation retries.
func (i *Instance) save(ctx context.Context) error {
	i.saveMu.Lock()
	defer i.saveMu.Unlock()

	i.mu.Lock()
	data := i.scene.Data()
	rev := i.scene.Revision()
	i.dirty = false
	i.mu.Unlock()

	_, sum, err := checksum.JSON(data)
	if err != nil {
		i.markDirty()
		metrics.Saves.WithLabelValues(metrics.ResultError).Inc()
		i.logger.Warn("canvas: encode scene failed", slog.String("error", err.Error()))
		return err
	}
	if sum == i.savedSum {
		metrics.Saves.WithLabelValues(metrics.ResultSkipped).Inc()
		return nil
	}

	start := time.Now()
	err = i.store.Save(ctx, i.key.Vault, i.key.Page, data)
	metrics.SaveSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		i.markDirty()
		metrics.Saves.WithLabelValues(metrics.ResultError).Inc()
		i.logger.Warn("canvas: save failed", slog.String("error", err.Error()))
		return err
	}
	i.savedSum = sum
	metrics.Saves.WithLabelValues(metrics.ResultOK).Inc()
	i.logger.Debug("canvas: saved", slog.Uint64("revision", rev), slog.Int("cards", len(data.Cards)))
	if i.onSaved != nil {
		i.onSaved(i.key, rev)
	}
	return nil
}

func (i *Instance) markDirty() {
	i.mu.Lock()
	i.dirty = true
	i.mu.Unlock()
}
