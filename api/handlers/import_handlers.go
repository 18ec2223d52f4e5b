package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"

	"argus-console/core/auth"
	"argus-console/core/rbac"
	"argus-console/core/store"
	"argus-console/core/utils"
	"argus-console/core/wire"
)

// importColumns is the expected CSV header. Role is matched by name against
// the role table; desc is free text.
var importColumns = []string{"username", "display_name", "email", "mobile", "qq", "wechat", "role", "desc"}

// UploadImport ingests a CSV of accounts. Valid rows are created even when
// other rows fail; failures come back as line-numbered diagnostics so the
// operator can fix the file and re-upload only what was rejected.
func (h *Handlers) UploadImport(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, rbac.PermUserManage) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Import.MaxUploadBytes)
	file, _, err := r.FormFile("csvfile")
	if err != nil {
		respondCode(w, wire.CodeInvalidParam, "missing csv upload")
		return
	}
	defer file.Close()

	batch := ""
	if id, err := uuid.NewV4(); err == nil {
		batch = id.String()
	}

	diags, created, err := h.importCSV(r, file)
	if err != nil {
		respondCode(w, wire.CodeFailed, err.Error())
		return
	}
	if len(diags) > 0 {
		h.audit(r, "user.import", fmt.Sprintf("batch=%s created=%d rejected=%d", batch, created, len(diags)))
		respond(w, wire.NewResponse(wire.CodeFailed, fmt.Sprintf("%d of %d rows rejected", len(diags), len(diags)+created), diags))
		return
	}
	h.audit(r, "user.import", fmt.Sprintf("batch=%s created=%d", batch, created))
	respondOK(w, map[string]int{"created": created})
}

// importCSV walks the file line by line. The returned error is reserved for
// problems with the file as a whole; row-level trouble lands in diagnostics
// with the physical line number (the header is line 1).
func (h *Handlers) importCSV(r *http.Request, file io.Reader) ([]wire.ImportDiagnostic, int, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("file is empty or not a csv")
	}
	if len(header) != len(importColumns) {
		return nil, 0, fmt.Errorf("header must be %q", strings.Join(importColumns, ","))
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), importColumns[i]) {
			return nil, 0, fmt.Errorf("header column %d must be %q", i+1, importColumns[i])
		}
	}

	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.logger.Errorf("list roles: %v", err)
		return nil, 0, fmt.Errorf("operation failed")
	}
	roleByName := make(map[string]int64, len(roles))
	for _, role := range roles {
		roleByName[strings.ToLower(role.Name)] = role.ID
	}

	var diags []wire.ImportDiagnostic
	seen := map[string]int{}
	created := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			diags = append(diags, wire.ImportDiagnostic{Line: line, Error: "malformed csv row"})
			continue
		}
		if fail := h.importRow(r, record, roleByName, seen, line); fail != "" {
			diags = append(diags, wire.ImportDiagnostic{Line: line, Error: fail})
			continue
		}
		created++
	}
	if created == 0 && len(diags) == 0 {
		return nil, 0, fmt.Errorf("file contains no user rows")
	}
	return diags, created, nil
}

// importRow validates and creates one account. A non-empty return is the
// operator-facing reason the row was rejected.
func (h *Handlers) importRow(r *http.Request, record []string, roleByName map[string]int64, seen map[string]int, line int) string {
	if len(record) != len(importColumns) {
		return fmt.Sprintf("expected %d fields, got %d", len(importColumns), len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	username, displayName, email := record[0], record[1], record[2]
	mobile, qq, wechat := record[3], record[4], record[5]
	roleName, desc := record[6], record[7]

	if err := utils.ValidateUsername(username); err != nil {
		return err.Error()
	}
	if email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			return err.Error()
		}
	}
	key := strings.ToLower(username)
	if first, dup := seen[key]; dup {
		return fmt.Sprintf("duplicate username, first used on line %d", first)
	}
	seen[key] = line

	roleID, ok := roleByName[strings.ToLower(roleName)]
	if !ok {
		return fmt.Sprintf("unknown role %q", roleName)
	}

	existing, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		h.logger.Errorf("find user %q: %v", username, err)
		return "operation failed"
	}
	if existing != nil {
		return fmt.Sprintf("user %q already exists", username)
	}

	initial, err := utils.RandPassword(initialPasswordLen)
	if err != nil {
		h.logger.Errorf("generate password: %v", err)
		return "operation failed"
	}
	hashed, err := auth.HashPassword(initial, h.cfg.PasswordPepper)
	if err != nil {
		h.logger.Errorf("hash password: %v", err)
		return "operation failed"
	}
	u := &store.User{
		Username:     username,
		DisplayName:  displayName,
		Email:        email,
		Mobile:       mobile,
		QQ:           qq,
		WeChat:       wechat,
		Desc:         desc,
		RoleID:       &roleID,
		State:        store.StateNormal,
		AuthType:     0,
		PasswordHash: hashed.Hash,
		PasswordSalt: hashed.Salt,
	}
	if _, err := h.users.Create(r.Context(), u); err != nil {
		h.logger.Errorf("create user %q: %v", username, err)
		return "operation failed"
	}
	return ""
}
