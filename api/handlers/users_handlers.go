package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"argus-console/core/auth"
	"argus-console/core/rbac"
	"argus-console/core/store"
	"argus-console/core/utils"
	"argus-console/core/wire"
)

const (
	defaultPerPage = 20
	maxPerPage     = 200

	initialPasswordLen = 12
)

func (h *Handlers) GetUsers(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, rbac.PermUserView) {
		return
	}
	var req wire.GetUsersRequest
	if err := decodeBody(r, &req); err != nil {
		respondCode(w, wire.CodeInvalidParam, "malformed request body")
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = defaultPerPage
	}
	if req.PerPage > maxPerPage {
		req.PerPage = maxPerPage
	}

	params := store.ListParams{
		Filter: store.UserFilter{
			Search: req.Filter.Search,
			RoleID: req.Filter.RoleID,
		},
		Offset: (req.Page - 1) * req.PerPage,
		Limit:  req.PerPage,
	}
	if req.Filter.State != nil {
		state := int(*req.Filter.State)
		params.Filter.State = &state
	}
	if req.Order != nil {
		params.OrderKey = req.Order.Key
		params.OrderAsc = req.Order.Asc
	}

	rows, total, err := h.users.ListPage(r.Context(), params)
	if err != nil {
		h.logger.Errorf("list users: %v", err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	result := wire.GetUsersResult{Total: total, Rows: make([]wire.User, 0, len(rows))}
	for i := range rows {
		result.Rows = append(result.Rows, toWireUser(&rows[i], false))
	}
	respondOK(w, result)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, rbac.PermUserView) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondCode(w, wire.CodeInvalidParam, "bad user id")
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("get user %d: %v", id, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	if u == nil {
		respondCode(w, wire.CodeNotFound, "")
		return
	}
	respondOK(w, toWireUser(u, true))
}

// validateUpdateUser applies the field rules shared by create and update.
func (h *Handlers) validateUpdateUser(r *http.Request, req *wire.UpdateUserRequest) (wire.Code, string) {
	if err := utils.ValidateUsername(req.Username); err != nil {
		return wire.CodeInvalidParam, err.Error()
	}
	if req.Email != "" {
		if err := utils.ValidateEmail(req.Email); err != nil {
			return wire.CodeInvalidParam, err.Error()
		}
	}
	authCfg := wire.AuthFromBitmask(req.AuthType)
	if authCfg.Bitmask() != req.AuthType {
		return wire.CodeInvalidParam, "unknown authentication method"
	}
	role, err := h.roles.FindByID(r.Context(), req.RoleID)
	if err != nil {
		h.logger.Errorf("lookup role %d: %v", req.RoleID, err)
		return wire.CodeFailed, ""
	}
	if role == nil {
		return wire.CodeInvalidParam, "unknown role"
	}
	return wire.CodeOK, ""
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, rbac.PermUserManage) {
		return
	}
	var req wire.UpdateUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondCode(w, wire.CodeInvalidParam, "malformed request body")
		return
	}
	if code, msg := h.validateUpdateUser(r, &req); code != wire.CodeOK {
		respondCode(w, code, msg)
		return
	}
	if req.ID == wire.CreateID {
		h.createUser(w, r, &req)
		return
	}
	h.updateUser(w, r, &req)
}

func (h *Handlers) createUser(w http.ResponseWriter, r *http.Request, req *wire.UpdateUserRequest) {
	existing, err := h.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		h.logger.Errorf("find user %q: %v", req.Username, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	if existing != nil {
		respondCode(w, wire.CodeExists, fmt.Sprintf("user %q already exists", req.Username))
		return
	}

	initial, err := utils.RandPassword(initialPasswordLen)
	if err != nil {
		h.logger.Errorf("generate password: %v", err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	hashed, err := auth.HashPassword(initial, h.cfg.PasswordPepper)
	if err != nil {
		h.logger.Errorf("hash password: %v", err)
		respondCode(w, wire.CodeFailed, "")
		return
	}

	roleID := req.RoleID
	u := &store.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		Mobile:       req.Mobile,
		QQ:           req.QQ,
		WeChat:       req.WeChat,
		Desc:         req.Desc,
		RoleID:       &roleID,
		State:        store.StateNormal,
		AuthType:     int(req.AuthType),
		PasswordHash: hashed.Hash,
		PasswordSalt: hashed.Salt,
	}
	id, err := h.users.Create(r.Context(), u)
	if err != nil {
		h.logger.Errorf("create user %q: %v", req.Username, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	h.audit(r, "user.create", fmt.Sprintf("username=%s id=%d", req.Username, id))
	respondOK(w, map[string]any{"id": id, "initial_password": initial})
}

func (h *Handlers) updateUser(w http.ResponseWriter, r *http.Request, req *wire.UpdateUserRequest) {
	u, err := h.users.Get(r.Context(), req.ID)
	if err != nil {
		h.logger.Errorf("get user %d: %v", req.ID, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	if u == nil {
		respondCode(w, wire.CodeNotFound, "")
		return
	}
	if other, err := h.users.FindByUsername(r.Context(), req.Username); err != nil {
		h.logger.Errorf("find user %q: %v", req.Username, err)
		respondCode(w, wire.CodeFailed, "")
		return
	} else if other != nil && other.ID != u.ID {
		respondCode(w, wire.CodeExists, fmt.Sprintf("user %q already exists", req.Username))
		return
	}

	roleID := req.RoleID
	u.Username = req.Username
	u.DisplayName = req.DisplayName
	u.Email = req.Email
	u.Mobile = req.Mobile
	u.QQ = req.QQ
	u.WeChat = req.WeChat
	u.Desc = req.Desc
	u.RoleID = &roleID
	u.AuthType = int(req.AuthType)

	if err := h.users.Update(r.Context(), u); err != nil {
		h.logger.Errorf("update user %d: %v", u.ID, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	h.audit(r, "user.update", fmt.Sprintf("username=%s id=%d", u.Username, u.ID))
	respondOK(w, nil)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (h *Handlers) UpdateUsers(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, rbac.PermUserManage) {
		return
	}
	var req wire.UpdateUsersRequest
	if err := decodeBody(r, &req); err != nil {
		respondCode(w, wire.CodeInvalidParam, "malformed request body")
		return
	}
	if len(req.Users) == 0 {
		respondCode(w, wire.CodeInvalidParam, "no users selected")
		return
	}
	ids := uniqueIDs(req.Users)
	for _, id := range ids {
		if id == AdminID {
			respondCode(w, wire.CodeForbidden, "the builtin administrator cannot be modified")
			return
		}
	}

	var err error
	switch req.Action {
	case wire.BulkLock:
		_, err = h.users.SetState(r.Context(), ids, store.StateLocked)
	case wire.BulkUnlock:
		_, err = h.users.SetState(r.Context(), ids, store.StateNormal)
	case wire.BulkRemove:
		_, err = h.users.Delete(r.Context(), ids)
	default:
		respondCode(w, wire.CodeInvalidParam, "unknown action")
		return
	}
	if err != nil {
		h.logger.Errorf("bulk %s: %v", req.Action, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	h.audit(r, "user."+string(req.Action), fmt.Sprintf("ids=%v", ids))
	respondOK(w, nil)
}

func (h *Handlers) SetRole(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, rbac.PermUserManage) {
		return
	}
	var req wire.SetRoleRequest
	if err := decodeBody(r, &req); err != nil {
		respondCode(w, wire.CodeInvalidParam, "malformed request body")
		return
	}
	if len(req.Users) == 0 {
		respondCode(w, wire.CodeInvalidParam, "no users selected")
		return
	}
	ids := uniqueIDs(req.Users)
	for _, id := range ids {
		if id == AdminID {
			respondCode(w, wire.CodeForbidden, "the builtin administrator cannot be modified")
			return
		}
	}
	role, err := h.roles.FindByID(r.Context(), req.RoleID)
	if err != nil {
		h.logger.Errorf("lookup role %d: %v", req.RoleID, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	if role == nil {
		respondCode(w, wire.CodeInvalidParam, "unknown role")
		return
	}
	if _, err := h.users.SetRole(r.Context(), ids, req.RoleID); err != nil {
		h.logger.Errorf("set role %d: %v", req.RoleID, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	h.audit(r, "user.set_role", fmt.Sprintf("role=%s ids=%v", role.Name, ids))
	respondOK(w, nil)
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, rbac.PermUserManage) {
		return
	}
	var req wire.ResetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondCode(w, wire.CodeInvalidParam, "malformed request body")
		return
	}
	u, err := h.users.Get(r.Context(), req.ID)
	if err != nil {
		h.logger.Errorf("get user %d: %v", req.ID, err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	if u == nil {
		respondCode(w, wire.CodeNotFound, "")
		return
	}

	switch req.Mode {
	case wire.ResetByEmail:
		if !h.mailer.Configured() {
			respondCode(w, wire.CodeMailDisabled, "")
			return
		}
		if u.Email == "" {
			respondCode(w, wire.CodeFailed, "account has no email address")
			return
		}
		temp, err := utils.RandPassword(initialPasswordLen)
		if err != nil {
			h.logger.Errorf("generate password: %v", err)
			respondCode(w, wire.CodeFailed, "")
			return
		}
		if err := h.storePassword(r, u.ID, temp); err != nil {
			respondCode(w, wire.CodeFailed, "")
			return
		}
		if err := h.mailer.SendPasswordReset(r.Context(), u.Email, u.Username, temp); err != nil {
			h.logger.Errorf("send reset mail to %s: %v", u.Email, err)
			respondCode(w, wire.CodeFailed, "could not deliver the reset email")
			return
		}
		h.audit(r, "user.reset_password", fmt.Sprintf("id=%d mode=email", u.ID))
		respondOK(w, nil)
	case wire.ResetDirect:
		if req.Password == "" {
			respondCode(w, wire.CodeInvalidParam, "password must not be empty")
			return
		}
		if err := h.storePassword(r, u.ID, req.Password); err != nil {
			respondCode(w, wire.CodeFailed, "")
			return
		}
		h.audit(r, "user.reset_password", fmt.Sprintf("id=%d mode=direct", u.ID))
		respondOK(w, nil)
	default:
		respondCode(w, wire.CodeInvalidParam, "unknown reset mode")
	}
}

func (h *Handlers) storePassword(r *http.Request, id int64, password string) error {
	hashed, err := auth.HashPassword(password, h.cfg.PasswordPepper)
	if err != nil {
		h.logger.Errorf("hash password: %v", err)
		return err
	}
	if err := h.users.UpdatePassword(r.Context(), id, hashed.Hash, hashed.Salt); err != nil {
		h.logger.Errorf("store password for %d: %v", id, err)
		return err
	}
	return nil
}

func (h *Handlers) GetRoleList(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, rbac.PermUserView) {
		return
	}
	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.logger.Errorf("list roles: %v", err)
		respondCode(w, wire.CodeFailed, "")
		return
	}
	out := make([]wire.Role, 0, len(roles))
	for _, role := range roles {
		out = append(out, wire.Role{ID: role.ID, Name: role.Name})
	}
	respondOK(w, out)
}
