package engine

import "testing"

type fakeScheduleStore struct {
	failedReason string
	deletedTag   string
	deletedTipo  string
	n            int64
}

func (f *fakeScheduleStore) MarkPendingFailed(instance, conversation, reason string) (int64, error) {
	f.failedReason = reason
	return f.n, nil
}

func (f *fakeScheduleStore) DeleteByTag(instance, conversation, tag string) (int64, error) {
	f.deletedTag = tag
	return f.n, nil
}

func (f *fakeScheduleStore) DeleteByTipo(instance, conversation, tipo string) (int64, error) {
	f.deletedTipo = tipo
	return f.n, nil
}

func TestCancellerDelegation(t *testing.T) {
	st := &fakeScheduleStore{n: 2}
	c := NewCanceller(st)
	key := ConversationKey{Instance: "inst1", Conversation: "c1"}

	if n, err := c.ContactReplied(key); err != nil || n != 2 {
		t.Errorf("ContactReplied = (%d, %v), want (2, nil)", n, err)
	}
	if st.failedReason == "" {
		t.Error("ContactReplied did not pass a reason")
	}

	if _, err := c.CancelTag(key, "onboarding"); err != nil {
		t.Fatal(err)
	}
	if st.deletedTag != "onboarding" {
		t.Errorf("deletedTag = %q, want %q", st.deletedTag, "onboarding")
	}

	if _, err := c.CancelTipo(key, "followup"); err != nil {
		t.Fatal(err)
	}
	if st.deletedTipo != "followup" {
		t.Errorf("deletedTipo = %q, want %q", st.deletedTipo, "followup")
	}
}
