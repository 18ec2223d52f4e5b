package appbootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"argus-console/api"
	"argus-console/config"
	"argus-console/core/auth"
	"argus-console/core/mail"
	"argus-console/core/maintenance"
	"argus-console/core/rbac"
	"argus-console/core/store"
	"argus-console/core/utils"
)

// builtinAdmin is seeded into a fresh database and is protected from bulk
// mutation by the handlers.
const builtinAdmin = "admin"

type runtimeComposition struct {
	server    *api.Server
	scheduler *maintenance.Scheduler
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*runtimeComposition, error) {
	users := store.NewUsersStore(db)
	roles := store.NewRolesStore(db)
	audits := store.NewAuditStore(db)

	policy, err := rbac.NewPolicy(rbac.DefaultRoles())
	if err != nil {
		return nil, err
	}
	mailer := mail.NewSMTPMailer(cfg.Mail, logger)

	server := api.NewServer(api.Deps{
		Config: cfg,
		Users:  users,
		Roles:  roles,
		Audits: audits,
		Policy: policy,
		Mailer: mailer,
		Logger: logger,
	})
	scheduler := maintenance.NewScheduler(cfg.Maintenance, users, audits, logger)

	return &runtimeComposition{server: server, scheduler: scheduler}, nil
}

// seed fills an empty database with the default roles and the builtin
// administrator. It is idempotent: existing rows are left alone.
func seed(ctx context.Context, cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) error {
	users := store.NewUsersStore(db)
	roles := store.NewRolesStore(db)

	var adminRoleID int64
	for _, role := range rbac.DefaultRoles() {
		existing, err := roles.FindByName(ctx, role.Name)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		}
		id := int64(0)
		if existing != nil {
			id = existing.ID
		} else {
			if id, err = roles.Create(ctx, role.Name); err != nil {
				return fmt.Errorf("seed role %s: %w", role.Name, err)
			}
		}
		if role.Name == builtinAdmin {
			adminRoleID = id
		}
	}

	existing, err := users.FindByUsername(ctx, builtinAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	initial, err := utils.RandPassword(16)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	hashed, err := auth.HashPassword(initial, cfg.PasswordPepper)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	id, err := users.Create(ctx, &store.User{
		Username:     builtinAdmin,
		DisplayName:  "Administrator",
		RoleID:       &adminRoleID,
		State:        store.StateNormal,
		PasswordHash: hashed.Hash,
		PasswordSalt: hashed.Salt,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Printf("seeded builtin administrator (id %d) with initial password %s", id, initial)
	return nil
}
