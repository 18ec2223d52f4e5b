package handlers

import (
	"encoding/json"
	"net/http"

	"argus-console/config"
	"argus-console/core/auth"
	"argus-console/core/mail"
	"argus-console/core/rbac"
	"argus-console/core/store"
	"argus-console/core/utils"
	"argus-console/core/wire"
)

// AdminID is the builtin administrator account. It is seeded at first start
// and protected from bulk mutation and deletion.
const AdminID int64 = 1

type Deps struct {
	Config *config.AppConfig
	Users  store.UsersStore
	Roles  store.RolesStore
	Audits store.AuditStore
	Policy *rbac.Policy
	Mailer mail.Mailer
	Logger *utils.Logger
}

type Handlers struct {
	cfg    *config.AppConfig
	users  store.UsersStore
	roles  store.RolesStore
	audits store.AuditStore
	policy *rbac.Policy
	mailer mail.Mailer
	logger *utils.Logger
}

func New(d Deps) *Handlers {
	return &Handlers{
		cfg:    d.Config,
		users:  d.Users,
		roles:  d.Roles,
		audits: d.Audits,
		policy: d.Policy,
		mailer: d.Mailer,
		logger: d.Logger,
	}
}

// Every endpoint answers HTTP 200 with a result-code envelope; transport
// failures are the only thing signalled through the status line.
func respond(w http.ResponseWriter, resp wire.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func respondCode(w http.ResponseWriter, code wire.Code, message string) {
	respond(w, wire.NewResponse(code, message, nil))
}

func respondOK(w http.ResponseWriter, data any) {
	respond(w, wire.NewResponse(wire.CodeOK, "", data))
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

// allow enforces a permission for the request operator. It writes the
// forbidden envelope itself and reports whether the handler may proceed.
func (h *Handlers) allow(w http.ResponseWriter, r *http.Request, perm rbac.Permission) bool {
	op := auth.OperatorFromContext(r.Context())
	if op == nil || !h.policy.Allowed(op.Roles, perm) {
		respondCode(w, wire.CodeForbidden, "")
		return false
	}
	return true
}

func (h *Handlers) audit(r *http.Request, action, detail string) {
	actor := "operator"
	if op := auth.OperatorFromContext(r.Context()); op != nil {
		actor = op.Name
	}
	h.audits.Log(r.Context(), actor, action, detail)
}

func toWireUser(u *store.User, withDesc bool) wire.User {
	out := wire.User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Mobile:      u.Mobile,
		QQ:          u.QQ,
		WeChat:      u.WeChat,
		RoleID:      u.RoleID,
		State:       wire.UserState(u.State),
		AuthType:    uint16(u.AuthType),
	}
	if withDesc {
		desc := u.Desc
		out.Desc = &desc
	}
	return out
}
