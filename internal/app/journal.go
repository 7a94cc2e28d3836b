package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/store"
)

// StyleSource reports the active style and its parameters.
type StyleSource interface {
	ActiveStyle() (guidance.Style, guidance.Params)
}

// Journal records one session per style activation and the phase and
// alignment transitions within it.
type Journal struct {
	store  *store.Store
	styles StyleSource

	mu         sync.Mutex
	session    *store.Session
	activation uint64
	last       guidance.Output
}

// NewJournal creates a Journal writing to s.
func NewJournal(s *store.Store, styles StyleSource) *Journal {
	return &Journal{store: s, styles: styles}
}

// Run records every update until ctx is done or updates is closed.
func (j *Journal) Run(ctx context.Context, updates <-chan guidance.Output) {
	for {
		select {
		case <-ctx.Done():
			return
		case out, ok := <-updates:
			if !ok {
				return
			}
			if err := j.Record(out); err != nil {
				log.Warn("journal guidance output", "err", err)
			}
		}
	}
}

// Record journals out.
func (j *Journal) Record(out guidance.Output) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.session == nil || out.Activation != j.activation {
		if err := j.startSession(out); err != nil {
			return err
		}
	}

	for _, e := range transitions(j.last, out) {
		e.SessionID = j.session.ID
		if err := j.store.Events().Create(e); err != nil {
			return fmt.Errorf("record %s: %w", e.Kind, err)
		}
		log.Debug("guidance event", "session", j.session.ID, "kind", e.Kind, "reason", e.Reason)
	}

	j.last = out
	return nil
}

// Session returns the current session, or nil before the first output.
func (j *Journal) Session() *store.Session {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.session
}

// Close ends the current session.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.endSession()
}

func (j *Journal) startSession(out guidance.Output) error {
	if err := j.endSession(); err != nil {
		log.Warn("end guidance session", "err", err)
	}

	style, params := j.styles.ActiveStyle()
	if style != out.Style {
		// The selector moved on; record what the output reports.
		style, params = out.Style, guidance.Params{}
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	sess := &store.Session{Style: style.String(), Params: raw}
	if err := j.store.Sessions().Create(sess); err != nil {
		return err
	}

	settings := j.store.Settings()
	for k, v := range map[string]string{
		store.SettingStyle:       style.String(),
		store.SettingOrientation: params.Orientation.String(),
		store.SettingAspect:      strconv.FormatFloat(params.Aspect, 'f', -1, 64),
	} {
		if err := settings.Set(k, v); err != nil {
			log.Warn("persist style setting", "key", k, "err", err)
		}
	}

	j.session = sess
	j.activation = out.Activation
	j.last = guidance.Output{}
	log.Info("guidance session started", "session", sess.ID, "style", sess.Style)
	return nil
}

func (j *Journal) endSession() error {
	if j.session == nil {
		return nil
	}
	err := j.store.Sessions().End(j.session.ID, time.Now().UTC())
	j.session = nil
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// transitions derives the journal events between two consecutive outputs.
func transitions(prev, out guidance.Output) []*store.Event {
	event := func(kind store.EventKind) *store.Event {
		return &store.Event{Kind: kind, Shot: out.ShotPoint, Region: out.TrackedRegion, Reason: out.Reason}
	}

	if errors.Is(out.Err, guidance.ErrReset) {
		return []*store.Event{event(store.EventReset)}
	}

	var events []*store.Event
	switch {
	case prev.Phase == guidance.Acquiring && out.Phase == guidance.Tracking:
		events = append(events, event(store.EventAcquired))
	case prev.Phase == guidance.Tracking && out.Phase == guidance.Acquiring:
		events = append(events, event(store.EventLost))
	}

	switch {
	case out.Aligned && !prev.Aligned:
		events = append(events, event(store.EventAligned))
	case !out.Aligned && prev.Aligned && out.Phase == guidance.Tracking:
		events = append(events, event(store.EventUnaligned))
	}
	return events
}
