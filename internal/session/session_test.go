package session

import "testing"

func TestStartSessionRejectsDuplicateID(t *testing.T) {
	r := New()
	id := r.NextID()

	if !r.StartSession(id, "conn-1") {
		t.Fatal("first StartSession should succeed")
	}
	if r.StartSession(id, "conn-2") {
		t.Fatal("StartSession should fail for a duplicate id")
	}
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	r := New()
	id := r.NextID()
	r.StartSession(id, "conn-1")

	if !r.Login(id, "alice") {
		t.Fatal("Login should succeed")
	}
	if !r.IsAuthenticated(id) {
		t.Fatal("session should be authenticated after login")
	}

	if !r.Logout(id) {
		t.Fatal("Logout should succeed")
	}
	if r.IsAuthenticated(id) {
		t.Fatal("session should be unauthenticated after logout")
	}
	if _, ok := r.GetSessionID("alice"); ok {
		t.Fatal("username should be free after logout")
	}
}

func TestLoginConflict(t *testing.T) {
	r := New()
	id1 := r.NextID()
	id2 := r.NextID()
	r.StartSession(id1, "conn-1")
	r.StartSession(id2, "conn-2")

	if !r.Login(id1, "alice") {
		t.Fatal("first login should succeed")
	}
	if r.Login(id2, "alice") {
		t.Fatal("second login as the same username should fail")
	}
	if !r.IsAuthenticated(id1) {
		t.Fatal("first session should remain authenticated")
	}
}

func TestLoginFailsForUnknownSession(t *testing.T) {
	r := New()
	if r.Login(999, "alice") {
		t.Fatal("Login should fail for a session that was never started")
	}
}

func TestLoginRejectsEmptyUsername(t *testing.T) {
	r := New()
	id := r.NextID()
	r.StartSession(id, "conn-1")

	if r.Login(id, "") {
		t.Fatal("Login should reject an empty username")
	}
}

func TestLogoutFailsWhenNotLoggedIn(t *testing.T) {
	r := New()
	id := r.NextID()
	r.StartSession(id, "conn-1")

	if r.Logout(id) {
		t.Fatal("Logout should fail for an unauthenticated session")
	}
}

func TestEndSessionFreesUsername(t *testing.T) {
	r := New()
	id := r.NextID()
	r.StartSession(id, "conn-1")
	r.Login(id, "alice")

	if !r.EndSession(id) {
		t.Fatal("EndSession should succeed")
	}
	if _, ok := r.GetSessionID("alice"); ok {
		t.Fatal("username should be free after EndSession")
	}
	if _, ok := r.GetConnectionID(id); ok {
		t.Fatal("session should no longer exist after EndSession")
	}
}

func TestGetConnectionID(t *testing.T) {
	r := New()
	id := r.NextID()
	r.StartSession(id, "conn-xyz")

	conn, ok := r.GetConnectionID(id)
	if !ok || conn != "conn-xyz" {
		t.Errorf("GetConnectionID() = (%q, %v), want (conn-xyz, true)", conn, ok)
	}
}

func TestNextIDIsMonotonic(t *testing.T) {
	r := New()
	a := r.NextID()
	b := r.NextID()
	if b != a+1 {
		t.Errorf("NextID() should be monotonic: got %d then %d", a, b)
	}
}
