package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		action Action
		allow  bool
	}{
		{name: "subscriber read", role: RoleSubscriber, action: ActionRead, allow: true},
		{name: "subscriber write", role: RoleSubscriber, action: ActionWrite, allow: false},
		{name: "author write", role: RoleAuthor, action: ActionWrite, allow: true},
		{name: "author publish", role: RoleAuthor, action: ActionPublish, allow: false},
		{name: "author upload", role: RoleAuthor, action: ActionUpload, allow: true},
		{name: "editor publish", role: RoleEditor, action: ActionPublish, allow: true},
		{name: "editor manage", role: RoleEditor, action: ActionManage, allow: false},
		{name: "admin manage", role: RoleAdmin, action: ActionManage, allow: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.allow)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("editor"); got != RoleEditor {
		t.Fatalf("Normalize(editor) = %q", got)
	}
	if got := Normalize("superuser"); got != RoleSubscriber {
		t.Fatalf("unknown role should fall back to subscriber, got %q", got)
	}
	if got := Normalize(""); got != RoleSubscriber {
		t.Fatalf("empty role should fall back to subscriber, got %q", got)
	}
}
