package handlers_test

import (
	"testing"

	"argus-console/core/wire"
)

const importHeader = "username,display_name,email,mobile,qq,wechat,role,desc\n"

func TestImportAllRowsValid(t *testing.T) {
	env := newTestEnv(t)

	resp := env.upload(t, "users.csv", importHeader+
		"alice,Alice A.,alice@example.com,,,,ops,first batch\n"+
		"bob,Bob B.,,,,,auditor,\n")
	if resp.Code != wire.CodeOK {
		t.Fatalf("code %d message %q", resp.Code, resp.Message)
	}
	var data struct {
		Created int `json:"created"`
	}
	if err := resp.DecodeData(&data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Created != 2 {
		t.Fatalf("created = %d, want 2", data.Created)
	}

	result := env.listUsers(t, wire.GetUsersRequest{Filter: wire.UserFilter{Search: "alice"}})
	if result.Total != 1 {
		t.Fatal("imported user not listed")
	}
}

func TestImportPartialFailureReportsFileLines(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken", env.roleID["ops"])

	resp := env.upload(t, "users.csv", importHeader+
		"alice,,,,,,ops,\n"+ // line 2, fine
		"x,,,,,,ops,\n"+ // line 3, bad username
		"bob,,,,,,warlord,\n"+ // line 4, unknown role
		"alice,,,,,,ops,\n"+ // line 5, duplicate of line 2
		"taken,,,,,,ops,\n") // line 6, already in the database
	if resp.Code != wire.CodeFailed {
		t.Fatalf("code %d, want %d", resp.Code, wire.CodeFailed)
	}

	var diags []wire.ImportDiagnostic
	if err := resp.DecodeData(&diags); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	wantLines := []int{3, 4, 5, 6}
	if len(diags) != len(wantLines) {
		t.Fatalf("diagnostics = %v, want %d entries", diags, len(wantLines))
	}
	for i, want := range wantLines {
		if diags[i].Line != want {
			t.Errorf("diagnostic %d on line %d, want %d", i, diags[i].Line, want)
		}
		if diags[i].Error == "" {
			t.Errorf("diagnostic %d has no message", i)
		}
	}

	// the valid row on line 2 must have been imported anyway
	result := env.listUsers(t, wire.GetUsersRequest{Filter: wire.UserFilter{Search: "alice"}})
	if result.Total != 1 {
		t.Fatal("valid row was not imported alongside the failures")
	}
}

func TestImportRejectsWrongHeader(t *testing.T) {
	env := newTestEnv(t)

	resp := env.upload(t, "users.csv", "login,name\nalice,Alice\n")
	if resp.Code != wire.CodeFailed {
		t.Fatalf("code %d, want %d", resp.Code, wire.CodeFailed)
	}
	if len(resp.Data) != 0 {
		t.Fatalf("whole-file failures must not carry diagnostics, got %s", resp.Data)
	}
}

func TestImportRejectsEmptyFile(t *testing.T) {
	env := newTestEnv(t)

	resp := env.upload(t, "users.csv", importHeader)
	if resp.Code != wire.CodeFailed {
		t.Fatalf("code %d, want %d", resp.Code, wire.CodeFailed)
	}
}

func TestImportRequiresTheFileField(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/user/upload-import", nil)
	if resp.Code != wire.CodeInvalidParam {
		t.Fatalf("code %d, want %d", resp.Code, wire.CodeInvalidParam)
	}
}
