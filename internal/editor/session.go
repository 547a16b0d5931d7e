package editor

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/streed/notevault/internal/constants"
	"github.com/streed/notevault/internal/logger"
	"github.com/streed/notevault/internal/services"
)

// Labels attached to snapshots created by the session. The retention
// logic is identical for all of them; only the description differs.
const (
	LabelAutosave   = "autosave"
	LabelPeriodic   = "periodic snapshot"
	LabelSessionEnd = "session end"
)

// Session owns the editing of one note. Content changes stream in through
// SetContent and are coalesced by a debounce delay before being persisted,
// so a burst of keystrokes collapses into one storage write. Each new edit
// replaces the pending save closure wholesale, with the fresh content
// captured by value, so a superseded save can never land stale content.
//
// Independently of the save path, a periodic check and a final on-close
// check ask the version engine whether a snapshot is warranted.
//
// One session per note; concurrent editors of the same note are not
// supported.
type Session struct {
	coord  *services.Coordinator
	noteID int

	debounced func(func())
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	current string
	dirty   bool
}

// NewSession opens an editing session for a note, seeding it with the
// note's stored content, and starts the periodic version check.
func NewSession(coord *services.Coordinator, noteID int, debounceDelay, checkInterval time.Duration) (*Session, error) {
	note, err := coord.GetNote(noteID)
	if err != nil {
		return nil, err
	}

	if debounceDelay <= 0 {
		debounceDelay = constants.DefaultDebounceDelay
	}
	if checkInterval <= 0 {
		checkInterval = constants.DefaultVersionCheckInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		coord:     coord,
		noteID:    noteID,
		debounced: debounce.New(debounceDelay),
		cancel:    cancel,
		done:      make(chan struct{}),
		current:   note.Content,
	}

	go s.checkLoop(ctx, checkInterval)

	return s, nil
}

// Note returns the edited note's id.
func (s *Session) NoteID() int {
	return s.noteID
}

// Content returns the session's current (possibly unpersisted) content.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetContent records an edit and schedules a debounced save. The previous
// pending save, if any, is cancelled outright.
func (s *Session) SetContent(content string) {
	s.mu.Lock()
	s.current = content
	s.dirty = true
	s.mu.Unlock()

	s.debounced(func() {
		if err := s.persist(content); err != nil {
			logger.Error("Autosave for note %d failed: %v", s.noteID, err)
		}
	})
}

// Flush persists the current content immediately if there are unsaved
// edits.
func (s *Session) Flush() error {
	s.mu.Lock()
	content := s.current
	dirty := s.dirty
	s.mu.Unlock()

	if !dirty {
		return nil
	}
	return s.persist(content)
}

// Close stops the periodic check, flushes unsaved edits and runs a final
// version check labelled as the session end.
func (s *Session) Close() error {
	s.cancel()
	<-s.done

	if err := s.Flush(); err != nil {
		return err
	}
	s.checkVersion(LabelSessionEnd)
	return nil
}

// persist writes content through the coordinator and creates an autosave
// snapshot when the version engine asks for one.
func (s *Session) persist(content string) error {
	_, shouldVersion, err := s.coord.UpdateNoteWithVersionCheck(s.noteID, content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.current == content {
		s.dirty = false
	}
	s.mu.Unlock()

	if shouldVersion {
		if _, err := s.coord.Versions().CreateVersion(s.noteID, content, LabelAutosave); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) checkLoop(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkVersion(LabelPeriodic)
		}
	}
}

// checkVersion snapshots the current candidate content when the version
// engine judges the drift large enough. The check runs purely on the
// candidate string, so racing an in-flight debounced save is harmless.
func (s *Session) checkVersion(label string) {
	s.mu.Lock()
	content := s.current
	s.mu.Unlock()

	shouldVersion, err := s.coord.Versions().ShouldCreateVersion(s.noteID, content)
	if err != nil {
		logger.Warn("Version check for note %d failed: %v", s.noteID, err)
		return
	}
	if !shouldVersion {
		return
	}

	if _, err := s.coord.Versions().CreateVersion(s.noteID, content, label); err != nil {
		logger.Warn("Snapshot for note %d failed: %v", s.noteID, err)
	}
}
