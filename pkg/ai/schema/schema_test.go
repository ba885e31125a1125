package schema

import (
	"testing"
)

func TestMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]interface{}
		missing []string
	}{
		{
			name:    "add_todo without anything",
			tool:    "add_todo",
			args:    map[string]interface{}{},
			missing: []string{"title", "due_at"},
		},
		{
			name: "add_todo complete",
			tool: "add_todo",
			args: map[string]interface{}{"title": "buy milk", "due_at": "2026-09-02 09:00"},
		},
		{
			name:    "add_todo blank title still missing",
			tool:    "add_todo",
			args:    map[string]interface{}{"title": "  ", "due_at": "2026-09-02 09:00"},
			missing: []string{"title"},
		},
		{
			name:    "weekly schedule without day and time",
			tool:    "add_schedule",
			args:    map[string]interface{}{"title": "workorder check", "schedule_kind": "weekly"},
			missing: []string{"day_of_week", "time"},
		},
		{
			name: "weekly schedule complete",
			tool: "add_schedule",
			args: map[string]interface{}{
				"title": "workorder check", "schedule_kind": "weekly",
				"day_of_week": "tue", "time": "11:00",
			},
		},
		{
			name:    "daily schedule needs time",
			tool:    "add_schedule",
			args:    map[string]interface{}{"title": "standup", "schedule_kind": "daily"},
			missing: []string{"time"},
		},
		{
			name:    "interval schedule needs minutes",
			tool:    "add_schedule",
			args:    map[string]interface{}{"title": "poll", "schedule_kind": "interval"},
			missing: []string{"interval_minutes"},
		},
		{
			name: "query_todos has no requirements",
			tool: "query_todos",
			args: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := RequirementsFor(tt.tool)
			if !ok {
				t.Fatalf("unknown tool %q", tt.tool)
			}
			got := spec.MissingFields(tt.args)
			if len(got) != len(tt.missing) {
				t.Fatalf("missing = %v, want %v", got, tt.missing)
			}
			for i := range got {
				if got[i] != tt.missing[i] {
					t.Errorf("missing[%d] = %q, want %q", i, got[i], tt.missing[i])
				}
			}
		})
	}
}

func TestRequirementsForUnknownTool(t *testing.T) {
	if _, ok := RequirementsFor("drop_database"); ok {
		t.Fatal("unknown tool should not resolve")
	}
}

func TestResolveRepoPathPrecedence(t *testing.T) {
	d := NewDependencyResolver(map[string]string{"tag_check": "/configured/repo"})
	d.TagCheckEnv = "TEST_TAG_CHECK_REPO_PATH"

	// Argument wins over everything.
	if path, ok := d.ResolveRepoPath("tag_check", "/arg/repo"); !ok || path != "/arg/repo" {
		t.Errorf("arg precedence: got %q, %v", path, ok)
	}

	// Env wins over config.
	t.Setenv("TEST_TAG_CHECK_REPO_PATH", "/env/repo")
	if path, ok := d.ResolveRepoPath("tag_check", ""); !ok || path != "/env/repo" {
		t.Errorf("env precedence: got %q, %v", path, ok)
	}

	// Config is the last resort.
	t.Setenv("TEST_TAG_CHECK_REPO_PATH", "")
	if path, ok := d.ResolveRepoPath("tag_check", ""); !ok || path != "/configured/repo" {
		t.Errorf("config fallback: got %q, %v", path, ok)
	}
}

func TestCheckActionDependencies(t *testing.T) {
	d := NewDependencyResolver(nil)
	d.TagCheckEnv = "TEST_UNSET_TAG_PATH"
	d.WorkorderEnv = "TEST_UNSET_WO_PATH"

	if err := d.CheckActionDependencies("tag_check", "", ""); err == nil {
		t.Error("tag_check without any repo path should fail")
	}
	if err := d.CheckActionDependencies("shell", "", ""); err == nil {
		t.Error("shell without command should fail")
	}
	if err := d.CheckActionDependencies("shell", "", "make test"); err != nil {
		t.Errorf("shell with command should pass: %v", err)
	}
	if err := d.CheckActionDependencies("note", "", ""); err != nil {
		t.Errorf("note has no preconditions: %v", err)
	}
}
