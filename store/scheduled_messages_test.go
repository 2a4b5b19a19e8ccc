package store

import (
	"path/filepath"
	"testing"
	"time"

	"maritaca/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

func testStore(t *testing.T) *ScheduledMessages {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.AutoMigrate(&models.ScheduledMessage{}).Error; err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return NewScheduledMessages(db)
}

func mustEnqueue(t *testing.T, s *ScheduledMessages, instance, conversation, body string, at time.Time, tag, tipo string) *models.ScheduledMessage {
	t.Helper()
	msg, err := s.Enqueue(instance, conversation, body, at.Format(time.RFC3339), tag, tipo)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return msg
}

func TestEnqueueValidation(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		name         string
		instance     string
		conversation string
		body         string
		scheduledAt  string
	}{
		{"missing instance", "", "5511999990000", "oi", "2030-01-01T10:00:00Z"},
		{"missing conversation", "inst1", "", "oi", "2030-01-01T10:00:00Z"},
		{"missing body", "inst1", "5511999990000", "  ", "2030-01-01T10:00:00Z"},
		{"missing scheduled_at", "inst1", "5511999990000", "oi", ""},
		{"garbage scheduled_at", "inst1", "5511999990000", "oi", "amanhã de manhã"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Enqueue(tt.instance, tt.conversation, tt.body, tt.scheduledAt, "", "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsValidation(err) {
				t.Errorf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestEnqueueDefaultsAndAcceptedFormats(t *testing.T) {
	s := testStore(t)

	msg := mustEnqueue(t, s, "inst1", "5511999990000", "oi", time.Now().Add(time.Hour), "", "")
	if msg.ID == 0 {
		t.Error("expected assigned id")
	}
	if msg.Status != models.SCHEDULED_STATUS_PENDING {
		t.Errorf("status = %q, want pending", msg.Status)
	}
	if msg.Tag != models.SCHEDULED_DEFAULT_TAG {
		t.Errorf("tag = %q, want %q", msg.Tag, models.SCHEDULED_DEFAULT_TAG)
	}
	if msg.Tipo != models.SCHEDULED_DEFAULT_TIPO {
		t.Errorf("tipo = %q, want %q", msg.Tipo, models.SCHEDULED_DEFAULT_TIPO)
	}
	if msg.Error != nil {
		t.Errorf("error = %v, want nil on pending", *msg.Error)
	}

	// formato alternativo "2006-01-02 15:04:05"
	msg2, err := s.Enqueue("inst1", "5511999990000", "oi", "2030-06-01 09:30:00", "promo", "lembrete")
	if err != nil {
		t.Fatalf("enqueue with local format: %v", err)
	}
	if msg2.Tag != "promo" || msg2.Tipo != "lembrete" {
		t.Errorf("labels = (%q, %q), want (promo, lembrete)", msg2.Tag, msg2.Tipo)
	}
}

func TestFetchDueSelection(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	due1 := mustEnqueue(t, s, "inst1", "c1", "m1", now.Add(-2*time.Minute), "", "")
	due2 := mustEnqueue(t, s, "inst1", "c1", "m2", now.Add(-1*time.Minute), "", "")
	mustEnqueue(t, s, "inst1", "c1", "futuro", now.Add(time.Hour), "", "")
	mustEnqueue(t, s, "inst2", "c9", "outra instancia", now.Add(-time.Minute), "", "")

	paused := mustEnqueue(t, s, "inst1", "c1", "pausada", now.Add(-time.Minute), "", "")
	if err := s.SetPaused(paused.ID, true); err != nil {
		t.Fatalf("set paused: %v", err)
	}

	failed := mustEnqueue(t, s, "inst1", "c1", "ja falhou", now.Add(-time.Minute), "", "")
	if err := s.UpdateStatus(failed.ID, models.SCHEDULED_STATUS_FAILED, "boom"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := s.FetchDue("inst1", 50)
	if err != nil {
		t.Fatalf("fetch due: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("due = %d rows, want 2", len(got))
	}
	if got[0].ID != due1.ID || got[1].ID != due2.ID {
		t.Errorf("due order = [%d %d], want [%d %d]", got[0].ID, got[1].ID, due1.ID, due2.ID)
	}
	for _, m := range got {
		if m.IsPaused || m.Status != models.SCHEDULED_STATUS_PENDING || m.ScheduledAt.After(time.Now()) {
			t.Errorf("row %d violates due-selection: %+v", m.ID, m)
		}
	}

	// limit respeitado
	capped, err := s.FetchDue("inst1", 1)
	if err != nil {
		t.Fatalf("fetch due capped: %v", err)
	}
	if len(capped) != 1 || capped[0].ID != due1.ID {
		t.Errorf("capped due = %v, want only oldest %d", capped, due1.ID)
	}
}

func TestUpdateStatusTerminalAndMonotonic(t *testing.T) {
	s := testStore(t)
	msg := mustEnqueue(t, s, "inst1", "c1", "oi", time.Now().Add(-time.Minute), "", "")

	if err := s.UpdateStatus(msg.ID, "processing", ""); !IsValidation(err) {
		t.Errorf("invalid status: expected ValidationError, got %v", err)
	}
	if err := s.UpdateStatus(msg.ID, models.SCHEDULED_STATUS_PENDING, ""); !IsValidation(err) {
		t.Errorf("pending is not terminal: expected ValidationError, got %v", err)
	}

	if err := s.UpdateStatus(msg.ID, models.SCHEDULED_STATUS_SENT, ""); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	sent, err := s.Get(msg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sent.Status != models.SCHEDULED_STATUS_SENT {
		t.Errorf("status = %q, want sent", sent.Status)
	}
	if sent.LastAttemptAt == nil {
		t.Error("last_attempt_at not set")
	}
	if sent.Error != nil {
		t.Errorf("error = %v, want nil on sent", *sent.Error)
	}

	// terminal fica terminal
	if err := s.UpdateStatus(msg.ID, models.SCHEDULED_STATUS_FAILED, "tarde demais"); err != nil {
		t.Fatalf("update on terminal: %v", err)
	}
	again, _ := s.Get(msg.ID)
	if again.Status != models.SCHEDULED_STATUS_SENT || again.Error != nil {
		t.Errorf("terminal row changed: %+v", again)
	}
}

func TestUpdateStatusFailedSetsError(t *testing.T) {
	s := testStore(t)
	msg := mustEnqueue(t, s, "inst1", "c1", "oi", time.Now().Add(-time.Minute), "", "")

	if err := s.UpdateStatus(msg.ID, models.SCHEDULED_STATUS_FAILED, "whatsapp api error: status=500"); err != nil {
		t.Fatal(err)
	}
	failed, _ := s.Get(msg.ID)
	if failed.Status != models.SCHEDULED_STATUS_FAILED {
		t.Errorf("status = %q, want failed", failed.Status)
	}
	if failed.Error == nil || *failed.Error != "whatsapp api error: status=500" {
		t.Errorf("error = %v, want the transport message", failed.Error)
	}
}

func TestMarkPendingFailedSweepsOnlyPending(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	p1 := mustEnqueue(t, s, "inst1", "c1", "p1", now.Add(time.Hour), "", "")
	p2 := mustEnqueue(t, s, "inst1", "c1", "p2", now.Add(2*time.Hour), "", "")
	sent := mustEnqueue(t, s, "inst1", "c1", "ja enviada", now.Add(-time.Minute), "", "")
	other := mustEnqueue(t, s, "inst1", "c2", "outra conversa", now.Add(time.Hour), "", "")

	if err := s.UpdateStatus(sent.ID, models.SCHEDULED_STATUS_SENT, ""); err != nil {
		t.Fatal(err)
	}

	n, err := s.MarkPendingFailed("inst1", "c1", "contato respondeu")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("swept = %d, want 2", n)
	}

	for _, id := range []int64{p1.ID, p2.ID} {
		m, _ := s.Get(id)
		if m.Status != models.SCHEDULED_STATUS_FAILED {
			t.Errorf("row %d status = %q, want failed", id, m.Status)
		}
		if m.Error == nil || *m.Error != "contato respondeu" {
			t.Errorf("row %d error = %v, want reason", id, m.Error)
		}
	}

	untouchedSent, _ := s.Get(sent.ID)
	if untouchedSent.Status != models.SCHEDULED_STATUS_SENT || untouchedSent.Error != nil {
		t.Errorf("sent row touched by sweep: %+v", untouchedSent)
	}
	untouchedOther, _ := s.Get(other.ID)
	if untouchedOther.Status != models.SCHEDULED_STATUS_PENDING {
		t.Errorf("other conversation touched by sweep: %+v", untouchedOther)
	}
}

func TestDeleteByTagAndTipoAreUnconditional(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	tagged := mustEnqueue(t, s, "inst1", "c1", "promo 1", now.Add(-time.Minute), "promo", "")
	taggedSent := mustEnqueue(t, s, "inst1", "c1", "promo 2", now.Add(-time.Minute), "promo", "")
	keep := mustEnqueue(t, s, "inst1", "c1", "followup", now.Add(time.Hour), "", "")

	if err := s.UpdateStatus(taggedSent.ID, models.SCHEDULED_STATUS_SENT, ""); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeleteByTag("inst1", "c1", "promo")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2 (sent row included)", n)
	}
	if _, err := s.Get(tagged.ID); err == nil {
		t.Error("tagged pending row still exists")
	}
	if _, err := s.Get(taggedSent.ID); err == nil {
		t.Error("tagged sent row still exists")
	}
	if _, err := s.Get(keep.ID); err != nil {
		t.Error("untagged row was deleted")
	}

	byTipo := mustEnqueue(t, s, "inst1", "c1", "lembrete", now.Add(time.Hour), "", "lembrete")
	n, err = s.DeleteByTipo("inst1", "c1", "lembrete")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted by tipo = %d, want 1", n)
	}
	if _, err := s.Get(byTipo.ID); err == nil {
		t.Error("tipo row still exists")
	}

	if _, err := s.DeleteByTag("inst1", "c1", ""); !IsValidation(err) {
		t.Errorf("empty tag: expected ValidationError, got %v", err)
	}
}

func TestSetPausedOnlyPending(t *testing.T) {
	s := testStore(t)
	msg := mustEnqueue(t, s, "inst1", "c1", "oi", time.Now().Add(-time.Minute), "", "")

	if err := s.SetPaused(msg.ID, true); err != nil {
		t.Fatal(err)
	}
	paused, _ := s.Get(msg.ID)
	if !paused.IsPaused || paused.Status != models.SCHEDULED_STATUS_PENDING {
		t.Errorf("pause changed more than the flag: %+v", paused)
	}

	if err := s.SetPaused(msg.ID, false); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStatus(msg.ID, models.SCHEDULED_STATUS_SENT, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPaused(msg.ID, true); !IsValidation(err) {
		t.Errorf("pause on terminal row: expected ValidationError, got %v", err)
	}
	if err := s.SetPaused(99999, true); !IsValidation(err) {
		t.Errorf("pause on missing row: expected ValidationError, got %v", err)
	}
}

func TestRoundTripEnqueueFetch(t *testing.T) {
	s := testStore(t)

	past := mustEnqueue(t, s, "inst1", "c1", "Hi", time.Now().Add(-time.Second), "promo", "")
	mustEnqueue(t, s, "inst1", "c1", "depois", time.Now().Add(time.Hour), "", "")

	due, err := s.FetchDue("inst1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != past.ID {
		t.Fatalf("due = %v, want only id %d", due, past.ID)
	}

	if err := s.UpdateStatus(past.ID, models.SCHEDULED_STATUS_SENT, ""); err != nil {
		t.Fatal(err)
	}

	list, err := s.List("inst1", "c1", "promo", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list filtered by tag = %d rows, want 1", len(list))
	}
	if list[0].Status != models.SCHEDULED_STATUS_SENT || list[0].Error != nil {
		t.Errorf("listed row = %+v, want sent with nil error", list[0])
	}
}

func TestListOrderAndFilters(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	later := mustEnqueue(t, s, "inst1", "c1", "b", now.Add(2*time.Hour), "", "")
	mustEnqueue(t, s, "inst1", "c1", "a", now.Add(time.Hour), "", "")
	mustEnqueue(t, s, "inst1", "c1", "c", now.Add(time.Hour), "promo", "lembrete")

	all, err := s.List("inst1", "c1", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("list = %d rows, want 3", len(all))
	}
	if all[len(all)-1].ID != later.ID {
		t.Errorf("last row = %d, want latest scheduled %d", all[len(all)-1].ID, later.ID)
	}
	if all[0].ScheduledAt.After(all[1].ScheduledAt) {
		t.Error("list not ordered by scheduled_at asc")
	}

	onlyTipo, err := s.List("inst1", "c1", "", "lembrete")
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyTipo) != 1 {
		t.Errorf("tipo filter = %d rows, want 1", len(onlyTipo))
	}
}

func TestInstancesWithPendingWork(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	mustEnqueue(t, s, "inst1", "c1", "a", now.Add(time.Hour), "", "")
	done := mustEnqueue(t, s, "inst2", "c2", "b", now.Add(-time.Minute), "", "")
	if err := s.UpdateStatus(done.ID, models.SCHEDULED_STATUS_SENT, ""); err != nil {
		t.Fatal(err)
	}

	instances, err := s.Instances()
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 || instances[0] != "inst1" {
		t.Errorf("instances = %v, want [inst1]", instances)
	}
}
