package importer

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/google/uuid"
)

// Session is one operator-driven import walking the fixed step sequence
// upload -> mapping -> preview -> importing -> done. Transitions outside
// that sequence are state conflicts visible to the caller. The store hands
// the same pointer to concurrent requests, so every transition holds mu to
// keep the step check and the step change atomic.
type Session struct {
	mu        sync.Mutex
	ID        uuid.UUID
	Step      enums.ImportStep
	Doc       *Document
	Mapping   []ColumnMapping
	Result    *Result
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession opens a session waiting for a file.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		Step:      enums.ImportStepUpload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) stateConflict(action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot %s while import session is in step %q", action, s.Step))
}

// AttachFile parses the raw file content, suggests a mapping and moves the
// session to the mapping step.
func (s *Session) AttachFile(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Step != enums.ImportStepUpload {
		return s.stateConflict("attach a file")
	}
	if strings.TrimSpace(raw) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "file content is empty")
	}

	doc := Parse(raw)
	if len(doc.Headers) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "file has no header row")
	}

	s.Doc = doc
	s.Mapping = SuggestMapping(doc.Headers)
	s.Step = enums.ImportStepMapping
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetMapping stores the operator-confirmed mapping and moves the session to
// preview. Re-submitting from preview overwrites the previous choice.
func (s *Session) SetMapping(mappings []ColumnMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Step != enums.ImportStepMapping && s.Step != enums.ImportStepPreview {
		return s.stateConflict("set the mapping")
	}
	if err := ValidateMapping(mappings); err != nil {
		return err
	}
	s.Mapping = mappings
	s.Step = enums.ImportStepPreview
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Confirm locks the session for the actual import run. Only one caller can
// win the preview -> importing transition; everyone else gets a state
// conflict, which is what stops a double-submitted commit from importing
// the file twice.
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Step != enums.ImportStepPreview {
		return s.stateConflict("confirm the import")
	}
	s.Step = enums.ImportStepImporting
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete records the run result and closes the session.
func (s *Session) Complete(result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Step != enums.ImportStepImporting {
		return s.stateConflict("complete the import")
	}
	s.Result = result
	s.Step = enums.ImportStepDone
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Session) touchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// Sessions idle past this are evicted on the next store access; a completed
// import keeps its result readable until then.
const sessionTTL = time.Hour

// sessionStore keeps open sessions in memory. Sessions are short-lived
// operator flows; they do not survive a restart.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[uuid.UUID]*Session), ttl: sessionTTL}
}

func (st *sessionStore) put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictExpiredLocked(time.Now().UTC())
	st.sessions[s.ID] = s
}

func (st *sessionStore) get(id uuid.UUID) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictExpiredLocked(time.Now().UTC())
	s, ok := st.sessions[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "import session not found")
	}
	return s, nil
}

func (st *sessionStore) evictExpiredLocked(now time.Time) {
	for id, s := range st.sessions {
		if now.Sub(s.touchedAt()) > st.ttl {
			delete(st.sessions, id)
		}
	}
}
