package fakeapi

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/trackadmin/internal/models"
)

type userRecord struct {
	models.User
	PasswordHash string
}

const selectUsers = `
	SELECT u.id, u.user_name, u.first_name, u.last_name, u.email, u.phone_number,
		u.gender, u.role_name, u.company_id, COALESCE(c.name, ''), u.is_active,
		u.password_hash, u.created_at
	FROM users u LEFT JOIN companies c ON c.id = u.company_id`

func scanUser(sc scanner) (*userRecord, error) {
	var u userRecord
	var created int64
	err := sc.Scan(&u.ID, &u.UserName, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber,
		&u.Gender, &u.RoleName, &u.CompanyID, &u.CompanyName, &u.IsActive,
		&u.PasswordHash, &created)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = timestamp(created)
	return &u, nil
}

func (s *store) listUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUsers+" ORDER BY u.rowid")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collect(rows, func(sc scanner) (models.User, error) {
		u, err := scanUser(sc)
		if err != nil {
			return models.User{}, err
		}
		return u.User, nil
	})
}

func userByID(ctx context.Context, q queryer, id string) (models.User, error) {
	u, err := one(q.QueryRowContext(ctx, selectUsers+" WHERE u.id = ?", id), scanUser)
	if err != nil {
		return models.User{}, err
	}
	return u.User, nil
}

func (s *store) userByID(ctx context.Context, id string) (models.User, error) {
	return userByID(ctx, s.db, id)
}

// userByLogin matches the user name or email, ignoring case.
func (s *store) userByLogin(ctx context.Context, login string) (*userRecord, error) {
	return one(s.db.QueryRowContext(ctx,
		selectUsers+" WHERE u.user_name = ? OR u.email = ? ORDER BY u.rowid LIMIT 1",
		login, login), scanUser)
}

func (s *store) createUser(ctx context.Context, d models.UserDraft, hash string) (models.User, error) {
	var out models.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		dup, err := exists(ctx, tx, "SELECT 1 FROM users WHERE email = ?", d.Email)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: email %s", errDuplicate, d.Email)
		}
		if d.RoleName != "" {
			err := mustExist(ctx, tx, "role "+d.RoleName, "SELECT 1 FROM roles WHERE name = ?", d.RoleName)
			if err != nil {
				return err
			}
		}

		id := uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, user_name, first_name, last_name, email, phone_number,
				gender, role_name, company_id, is_active, password_hash, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			id, d.UserName, d.FirstName, d.LastName, d.Email, d.PhoneNumber,
			d.Gender, d.RoleName, d.CompanyID, hash, s.stamp())
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		out, err = userByID(ctx, tx, id)
		return err
	})
	return out, err
}

// updateUser keeps the stored password when hash is empty.
func (s *store) updateUser(ctx context.Context, d models.UserDraft, hash string) (models.User, error) {
	var out models.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "", "SELECT 1 FROM users WHERE id = ?", d.ID); err != nil {
			return err
		}
		dup, err := exists(ctx, tx, "SELECT 1 FROM users WHERE email = ? AND id <> ?", d.Email, d.ID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: email %s", errDuplicate, d.Email)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users SET user_name = ?, first_name = ?, last_name = ?, email = ?,
				phone_number = ?, gender = ?, role_name = ?, company_id = ?
			WHERE id = ?`,
			d.UserName, d.FirstName, d.LastName, d.Email, d.PhoneNumber,
			d.Gender, d.RoleName, d.CompanyID, d.ID)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if hash != "" {
			_, err = tx.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, d.ID)
			if err != nil {
				return fmt.Errorf("update password: %w", err)
			}
		}
		out, err = userByID(ctx, tx, d.ID)
		return err
	})
	return out, err
}

func (s *store) toggleUser(ctx context.Context, id string) (models.User, error) {
	var out models.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := affected(tx.ExecContext(ctx, "UPDATE users SET is_active = NOT is_active WHERE id = ?", id))
		if err != nil {
			return err
		}
		out, err = userByID(ctx, tx, id)
		return err
	})
	return out, err
}

// Roles

const selectRoles = "SELECT id, name, description, created_at FROM roles"

func scanRole(sc scanner) (models.Role, error) {
	var r models.Role
	var created int64
	if err := sc.Scan(&r.ID, &r.Name, &r.Description, &created); err != nil {
		return models.Role{}, err
	}
	r.CreatedAt = timestamp(created)
	return r, nil
}

func (s *store) listRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx, selectRoles+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return collect(rows, scanRole)
}

func (s *store) createRole(ctx context.Context, d models.RoleDraft) (models.Role, error) {
	var out models.Role
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		dup, err := exists(ctx, tx, "SELECT 1 FROM roles WHERE name = ?", d.Name)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: role %s", errDuplicate, d.Name)
		}
		id := uuid.NewString()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO roles (id, name, description, created_at) VALUES (?, ?, ?, ?)",
			id, d.Name, d.Description, s.stamp())
		if err != nil {
			return fmt.Errorf("insert role: %w", err)
		}
		out, err = one(tx.QueryRowContext(ctx, selectRoles+" WHERE id = ?", id), scanRole)
		return err
	})
	return out, err
}

func (s *store) updateRole(ctx context.Context, d models.RoleDraft) (models.Role, error) {
	var out models.Role
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "", "SELECT 1 FROM roles WHERE id = ?", d.ID); err != nil {
			return err
		}
		dup, err := exists(ctx, tx, "SELECT 1 FROM roles WHERE name = ? AND id <> ?", d.Name, d.ID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: role %s", errDuplicate, d.Name)
		}
		_, err = tx.ExecContext(ctx, "UPDATE roles SET name = ?, description = ? WHERE id = ?",
			d.Name, d.Description, d.ID)
		if err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		out, err = one(tx.QueryRowContext(ctx, selectRoles+" WHERE id = ?", d.ID), scanRole)
		return err
	})
	return out, err
}

// Claims

// claimTables returns the subject table and its claim table.
func claimTables(userClaims bool) (subjects, claims string) {
	if userClaims {
		return "users", "user_claims"
	}
	return "roles", "role_claims"
}

// seedCatalog adds names to the claim catalog, keeping existing entries.
func (s *store) seedCatalog(ctx context.Context, names []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, n := range names {
			if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO claims (name) VALUES (?)", n); err != nil {
				return fmt.Errorf("insert claim %s: %w", n, err)
			}
		}
		return nil
	})
}

func (s *store) claimCatalog(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM claims ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return collect(rows, scanName)
}

func scanName(sc scanner) (string, error) {
	var n string
	err := sc.Scan(&n)
	return n, err
}

func (s *store) claims(ctx context.Context, userClaims bool, id string) ([]string, error) {
	subjects, table := claimTables(userClaims)
	if err := mustExist(ctx, s.db, "", "SELECT 1 FROM "+subjects+" WHERE id = ?", id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT claim FROM "+table+" WHERE subject_id = ? ORDER BY claim", id)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return collect(rows, scanName)
}

// assignClaims replaces the subject's set. Unknown names are rejected.
func (s *store) assignClaims(ctx context.Context, userClaims bool, id string, names []string) error {
	subjects, table := claimTables(userClaims)
	set := models.NewPermissionSet(names...)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "", "SELECT 1 FROM "+subjects+" WHERE id = ?", id); err != nil {
			return err
		}
		for _, n := range set.Names() {
			if err := mustExist(ctx, tx, "claim "+n, "SELECT 1 FROM claims WHERE name = ?", n); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE subject_id = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		for _, n := range set.Names() {
			_, err := tx.ExecContext(ctx, "INSERT INTO "+table+" (subject_id, claim) VALUES (?, ?)", id, n)
			if err != nil {
				return fmt.Errorf("insert %s: %w", table, err)
			}
		}
		return nil
	})
}
