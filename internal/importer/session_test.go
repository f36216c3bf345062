package importer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
)

const sessionCSV = "Nom,Prix\nSavon,1500\n"

func validSessionMapping() []ColumnMapping {
	return []ColumnMapping{
		{Header: "Nom", Field: enums.ImportFieldTitle},
		{Header: "Prix", Field: enums.ImportFieldPrice},
	}
}

func assertStateConflict(t *testing.T, err error) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSessionHappyPath(t *testing.T) {
	session := NewSession()
	if session.Step != enums.ImportStepUpload {
		t.Fatalf("new session should start at upload, got %s", session.Step)
	}

	if err := session.AttachFile(sessionCSV); err != nil {
		t.Fatalf("attach file: %v", err)
	}
	if session.Step != enums.ImportStepMapping {
		t.Fatalf("expected mapping step, got %s", session.Step)
	}
	if len(session.Mapping) != 2 {
		t.Fatalf("expected suggested mapping for 2 headers, got %d", len(session.Mapping))
	}

	if err := session.SetMapping(validSessionMapping()); err != nil {
		t.Fatalf("set mapping: %v", err)
	}
	if session.Step != enums.ImportStepPreview {
		t.Fatalf("expected preview step, got %s", session.Step)
	}

	if err := session.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if session.Step != enums.ImportStepImporting {
		t.Fatalf("expected importing step, got %s", session.Step)
	}

	if err := session.Complete(&Result{SuccessCount: 1}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if session.Step != enums.ImportStepDone {
		t.Fatalf("expected done step, got %s", session.Step)
	}
	if session.Result == nil || session.Result.SuccessCount != 1 {
		t.Fatalf("result not recorded: %+v", session.Result)
	}
}

func TestSessionRejectsOutOfOrderTransitions(t *testing.T) {
	t.Run("set mapping before file", func(t *testing.T) {
		session := NewSession()
		assertStateConflict(t, session.SetMapping(validSessionMapping()))
	})
	t.Run("confirm before mapping", func(t *testing.T) {
		session := NewSession()
		if err := session.AttachFile(sessionCSV); err != nil {
			t.Fatalf("attach file: %v", err)
		}
		assertStateConflict(t, session.Confirm())
	})
	t.Run("attach twice", func(t *testing.T) {
		session := NewSession()
		if err := session.AttachFile(sessionCSV); err != nil {
			t.Fatalf("attach file: %v", err)
		}
		assertStateConflict(t, session.AttachFile(sessionCSV))
	})
	t.Run("complete without confirm", func(t *testing.T) {
		session := NewSession()
		assertStateConflict(t, session.Complete(&Result{}))
	})
	t.Run("confirm twice", func(t *testing.T) {
		session := NewSession()
		if err := session.AttachFile(sessionCSV); err != nil {
			t.Fatalf("attach file: %v", err)
		}
		if err := session.SetMapping(validSessionMapping()); err != nil {
			t.Fatalf("set mapping: %v", err)
		}
		if err := session.Confirm(); err != nil {
			t.Fatalf("confirm: %v", err)
		}
		assertStateConflict(t, session.Confirm())
	})
}

func TestSessionAllowsMappingRevisionFromPreview(t *testing.T) {
	session := NewSession()
	if err := session.AttachFile(sessionCSV); err != nil {
		t.Fatalf("attach file: %v", err)
	}
	if err := session.SetMapping(validSessionMapping()); err != nil {
		t.Fatalf("set mapping: %v", err)
	}

	revised := []ColumnMapping{
		{Header: "Nom", Field: enums.ImportFieldTitle},
		{Header: "Prix", Field: enums.ImportFieldPrice},
	}
	if err := session.SetMapping(revised); err != nil {
		t.Fatalf("revise mapping from preview: %v", err)
	}
	if session.Step != enums.ImportStepPreview {
		t.Fatalf("expected preview step after revision, got %s", session.Step)
	}
}

func TestSessionAttachValidation(t *testing.T) {
	t.Run("empty content", func(t *testing.T) {
		session := NewSession()
		err := session.AttachFile("   \n")
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
	t.Run("invalid mapping rejected in preview", func(t *testing.T) {
		session := NewSession()
		if err := session.AttachFile(sessionCSV); err != nil {
			t.Fatalf("attach file: %v", err)
		}
		err := session.SetMapping([]ColumnMapping{{Header: "Nom", Field: enums.ImportFieldTitle}})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
		if session.Step != enums.ImportStepMapping {
			t.Fatalf("step should not advance on invalid mapping, got %s", session.Step)
		}
	})
}

func TestConfirmAllowsSingleWinnerUnderConcurrency(t *testing.T) {
	session := NewSession()
	if err := session.AttachFile(sessionCSV); err != nil {
		t.Fatalf("attach file: %v", err)
	}
	if err := session.SetMapping(validSessionMapping()); err != nil {
		t.Fatalf("set mapping: %v", err)
	}

	var wg sync.WaitGroup
	var wins int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if session.Confirm() == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one confirm to win, got %d", wins)
	}
	if session.Step != enums.ImportStepImporting {
		t.Fatalf("expected importing step, got %s", session.Step)
	}
}

func TestSessionStoreEvictsIdleSessions(t *testing.T) {
	store := newSessionStore()

	stale := NewSession()
	stale.UpdatedAt = time.Now().UTC().Add(-2 * sessionTTL)
	store.put(stale)

	fresh := NewSession()
	store.put(fresh)

	if _, err := store.get(stale.ID); err == nil {
		t.Fatal("expected the idle session to be gone")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := store.get(fresh.ID); err != nil {
		t.Fatalf("fresh session should survive eviction: %v", err)
	}
}
