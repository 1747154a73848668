package fakeapi

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/trackadmin/internal/models"
)

func ref(id, name string) *models.Ref {
	if id == "" {
		return nil
	}
	return &models.Ref{ID: id, Name: name}
}

// Companies

const selectCompanies = `
	SELECT id, code, name, name_prefix, description, email, phone_number,
		is_active, documents, created_at
	FROM companies`

func scanCompany(sc scanner) (models.Company, error) {
	var c models.Company
	var docs string
	var created int64
	err := sc.Scan(&c.ID, &c.Code, &c.Name, &c.NamePrefix, &c.Description, &c.Email,
		&c.PhoneNumber, &c.IsActive, &docs, &created)
	if err != nil {
		return models.Company{}, err
	}
	if c.Documents, err = decodeDocuments(docs); err != nil {
		return models.Company{}, err
	}
	c.CreatedAt = timestamp(created)
	return c, nil
}

func companyByID(ctx context.Context, q queryer, id string) (models.Company, error) {
	return one(q.QueryRowContext(ctx, selectCompanies+" WHERE id = ?", id), scanCompany)
}

func (s *store) listCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := s.db.QueryContext(ctx, selectCompanies+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return collect(rows, scanCompany)
}

func (s *store) companyByID(ctx context.Context, id string) (models.Company, error) {
	return companyByID(ctx, s.db, id)
}

func (s *store) createCompany(ctx context.Context, d models.CompanyDraft, actor string) (models.Company, error) {
	var out models.Company
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		dup, err := exists(ctx, tx, "SELECT 1 FROM companies WHERE name = ?", d.Name)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: company %s", errDuplicate, d.Name)
		}
		code, err := nextCode(ctx, tx, d.NamePrefix)
		if err != nil {
			return err
		}
		docs, err := encodeDocuments(d.Documents)
		if err != nil {
			return err
		}

		id := uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO companies (id, code, name, name_prefix, description, email,
				phone_number, is_active, documents, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			id, code, d.Name, d.NamePrefix, d.Description, d.Email, d.PhoneNumber, docs, s.stamp())
		if err != nil {
			return fmt.Errorf("insert company: %w", err)
		}
		if err := s.logActivity(ctx, tx, id, actor, "Company created"); err != nil {
			return err
		}
		out, err = companyByID(ctx, tx, id)
		return err
	})
	return out, err
}

func (s *store) updateCompany(ctx context.Context, d models.CompanyDraft, actor string) (models.Company, error) {
	var out models.Company
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "", "SELECT 1 FROM companies WHERE id = ?", d.ID); err != nil {
			return err
		}
		dup, err := exists(ctx, tx, "SELECT 1 FROM companies WHERE name = ? AND id <> ?", d.Name, d.ID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: company %s", errDuplicate, d.Name)
		}
		docs, err := encodeDocuments(d.Documents)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE companies SET name = ?, name_prefix = ?, description = ?, email = ?,
				phone_number = ?, documents = ?
			WHERE id = ?`,
			d.Name, d.NamePrefix, d.Description, d.Email, d.PhoneNumber, docs, d.ID)
		if err != nil {
			return fmt.Errorf("update company: %w", err)
		}
		if err := s.logActivity(ctx, tx, d.ID, actor, "Company updated"); err != nil {
			return err
		}
		out, err = companyByID(ctx, tx, d.ID)
		return err
	})
	return out, err
}

func (s *store) toggleCompany(ctx context.Context, id, actor string) (models.Company, error) {
	var out models.Company
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := affected(tx.ExecContext(ctx, "UPDATE companies SET is_active = NOT is_active WHERE id = ?", id))
		if err != nil {
			return err
		}
		if out, err = companyByID(ctx, tx, id); err != nil {
			return err
		}
		summary := "Company disabled"
		if out.IsActive {
			summary = "Company enabled"
		}
		return s.logActivity(ctx, tx, id, actor, summary)
	})
	return out, err
}

func (s *store) logActivity(ctx context.Context, tx *sql.Tx, companyID, actor, summary string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO company_activity (company_id, summary, actor, created_at) VALUES (?, ?, ?, ?)",
		companyID, summary, actor, s.stamp())
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *store) companyHistory(ctx context.Context, id string) ([]models.ActivityEntry, error) {
	if err := mustExist(ctx, s.db, "", "SELECT 1 FROM companies WHERE id = ?", id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT created_at, summary, actor FROM company_activity WHERE company_id = ? ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return collect(rows, func(sc scanner) (models.ActivityEntry, error) {
		var e models.ActivityEntry
		var created int64
		if err := sc.Scan(&created, &e.Summary, &e.User); err != nil {
			return models.ActivityEntry{}, err
		}
		e.CreatedAt = timestamp(created)
		return e, nil
	})
}

// Projects

const selectProjects = `
	SELECT p.id, p.code, p.name, p.description, p.status, p.company_id,
		COALESCE(c.name, ''), p.supervisor_id, p.documents, p.created_at
	FROM projects p LEFT JOIN companies c ON c.id = p.company_id`

func scanProject(sc scanner) (models.Project, error) {
	var p models.Project
	var status, companyName, docs string
	var created int64
	err := sc.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &status, &p.CompanyID,
		&companyName, &p.SupervisorID, &docs, &created)
	if err != nil {
		return models.Project{}, err
	}
	if p.Documents, err = decodeDocuments(docs); err != nil {
		return models.Project{}, err
	}
	p.Status = models.ProjectStatus(status)
	p.Company = ref(p.CompanyID, companyName)
	p.CreatedAt = timestamp(created)
	return p, nil
}

func projectByID(ctx context.Context, q queryer, id string) (models.Project, error) {
	return one(q.QueryRowContext(ctx, selectProjects+" WHERE p.id = ?", id), scanProject)
}

func (s *store) listProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, selectProjects+" ORDER BY p.rowid")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return collect(rows, scanProject)
}

func (s *store) projectByCode(ctx context.Context, code string) (models.Project, error) {
	return one(s.db.QueryRowContext(ctx, selectProjects+" WHERE p.code = ?", code), scanProject)
}

func (s *store) createProject(ctx context.Context, d models.ProjectDraft) (models.Project, error) {
	var out models.Project
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := mustExist(ctx, tx, "company "+d.CompanyID, "SELECT 1 FROM companies WHERE id = ?", d.CompanyID)
		if err != nil {
			return err
		}
		code, err := nextCode(ctx, tx, "PRJ")
		if err != nil {
			return err
		}
		docs, err := encodeDocuments(d.Documents)
		if err != nil {
			return err
		}

		id := uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO projects (id, code, name, description, status, company_id,
				supervisor_id, documents, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, code, d.Name, d.Description, string(d.Status), d.CompanyID,
			d.SupervisorID, docs, s.stamp())
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		out, err = projectByID(ctx, tx, id)
		return err
	})
	return out, err
}

// updateProject keeps the stored supervisor when the draft has none.
func (s *store) updateProject(ctx context.Context, d models.ProjectDraft) (models.Project, error) {
	var out models.Project
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "", "SELECT 1 FROM projects WHERE id = ?", d.ID); err != nil {
			return err
		}
		err := mustExist(ctx, tx, "company "+d.CompanyID, "SELECT 1 FROM companies WHERE id = ?", d.CompanyID)
		if err != nil {
			return err
		}
		docs, err := encodeDocuments(d.Documents)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE projects SET name = ?, description = ?, status = ?, company_id = ?,
				supervisor_id = CASE WHEN ? = '' THEN supervisor_id ELSE ? END,
				documents = ?
			WHERE id = ?`,
			d.Name, d.Description, string(d.Status), d.CompanyID,
			d.SupervisorID, d.SupervisorID, docs, d.ID)
		if err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		out, err = projectByID(ctx, tx, d.ID)
		return err
	})
	return out, err
}

func (s *store) closeProject(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx,
		"UPDATE projects SET status = ? WHERE id = ?", string(models.StatusDone), id))
}

// Phases

const selectPhases = `
	SELECT ph.id, ph.code, ph.name, ph.description, ph.status, ph.project_id,
		COALESCE(p.name, ''), COALESCE(c.id, ''), COALESCE(c.name, ''),
		ph.documents, ph.created_at
	FROM phases ph
	LEFT JOIN projects p ON p.id = ph.project_id
	LEFT JOIN companies c ON c.id = p.company_id`

func scanPhase(sc scanner) (models.Phase, error) {
	var ph models.Phase
	var status, projectName, companyID, companyName, docs string
	var created int64
	err := sc.Scan(&ph.ID, &ph.Code, &ph.Name, &ph.Description, &status, &ph.ProjectID,
		&projectName, &companyID, &companyName, &docs, &created)
	if err != nil {
		return models.Phase{}, err
	}
	if ph.Documents, err = decodeDocuments(docs); err != nil {
		return models.Phase{}, err
	}
	ph.Status = models.ProjectStatus(status)
	ph.Project = ref(ph.ProjectID, projectName)
	ph.Company = ref(companyID, companyName)
	ph.CreatedAt = timestamp(created)
	return ph, nil
}

func phaseByID(ctx context.Context, q queryer, id string) (models.Phase, error) {
	return one(q.QueryRowContext(ctx, selectPhases+" WHERE ph.id = ?", id), scanPhase)
}

func (s *store) listPhases(ctx context.Context) ([]models.Phase, error) {
	rows, err := s.db.QueryContext(ctx, selectPhases+" ORDER BY ph.rowid")
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	return collect(rows, scanPhase)
}

func (s *store) phaseByCode(ctx context.Context, code string) (models.Phase, error) {
	return one(s.db.QueryRowContext(ctx, selectPhases+" WHERE ph.code = ?", code), scanPhase)
}

func (s *store) createPhase(ctx context.Context, d models.PhaseDraft) (models.Phase, error) {
	var out models.Phase
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := mustExist(ctx, tx, "project "+d.ProjectID, "SELECT 1 FROM projects WHERE id = ?", d.ProjectID)
		if err != nil {
			return err
		}
		code, err := nextCode(ctx, tx, "PHS")
		if err != nil {
			return err
		}
		docs, err := encodeDocuments(d.Documents)
		if err != nil {
			return err
		}

		id := uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO phases (id, code, name, description, status, project_id, documents, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, code, d.Name, d.Description, string(d.Status), d.ProjectID, docs, s.stamp())
		if err != nil {
			return fmt.Errorf("insert phase: %w", err)
		}
		out, err = phaseByID(ctx, tx, id)
		return err
	})
	return out, err
}

func (s *store) updatePhase(ctx context.Context, d models.PhaseDraft) (models.Phase, error) {
	var out models.Phase
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "", "SELECT 1 FROM phases WHERE id = ?", d.ID); err != nil {
			return err
		}
		err := mustExist(ctx, tx, "project "+d.ProjectID, "SELECT 1 FROM projects WHERE id = ?", d.ProjectID)
		if err != nil {
			return err
		}
		docs, err := encodeDocuments(d.Documents)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE phases SET name = ?, description = ?, status = ?, project_id = ?, documents = ?
			WHERE id = ?`,
			d.Name, d.Description, string(d.Status), d.ProjectID, docs, d.ID)
		if err != nil {
			return fmt.Errorf("update phase: %w", err)
		}
		out, err = phaseByID(ctx, tx, d.ID)
		return err
	})
	return out, err
}

func (s *store) closePhase(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx,
		"UPDATE phases SET status = ? WHERE id = ?", string(models.StatusDone), id))
}

// Issues

const selectIssues = `
	SELECT i.id, i.code, i.name, i.description, i.severity, i.status, i.phase_id,
		COALESCE(ph.name, ''), i.documents, i.created_at
	FROM issues i LEFT JOIN phases ph ON ph.id = i.phase_id`

func scanIssue(sc scanner) (models.Issue, error) {
	var i models.Issue
	var severity, status, phaseName, docs string
	var created int64
	err := sc.Scan(&i.ID, &i.Code, &i.Name, &i.Description, &severity, &status, &i.PhaseID,
		&phaseName, &docs, &created)
	if err != nil {
		return models.Issue{}, err
	}
	if i.Documents, err = decodeDocuments(docs); err != nil {
		return models.Issue{}, err
	}
	i.Severity = models.Severity(severity)
	i.Status = models.IssueStatus(status)
	i.Phase = ref(i.PhaseID, phaseName)
	i.CreatedAt = timestamp(created)
	return i, nil
}

func issueByID(ctx context.Context, q queryer, id string) (models.Issue, error) {
	return one(q.QueryRowContext(ctx, selectIssues+" WHERE i.id = ?", id), scanIssue)
}

func (s *store) listIssues(ctx context.Context) ([]models.Issue, error) {
	rows, err := s.db.QueryContext(ctx, selectIssues+" ORDER BY i.rowid")
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return collect(rows, scanIssue)
}

func (s *store) issueByCode(ctx context.Context, code string) (models.Issue, error) {
	return one(s.db.QueryRowContext(ctx, selectIssues+" WHERE i.code = ?", code), scanIssue)
}

// createIssue opens the issue as unresolved.
func (s *store) createIssue(ctx context.Context, d models.IssueDraft) (models.Issue, error) {
	var out models.Issue
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := mustExist(ctx, tx, "phase "+d.PhaseID, "SELECT 1 FROM phases WHERE id = ?", d.PhaseID)
		if err != nil {
			return err
		}
		code, err := nextCode(ctx, tx, "ISS")
		if err != nil {
			return err
		}
		docs, err := encodeDocuments(d.Documents)
		if err != nil {
			return err
		}

		id := uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO issues (id, code, name, description, severity, status, phase_id,
				documents, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, code, d.Name, d.Description, string(d.Severity), string(models.IssueUnresolved),
			d.PhaseID, docs, s.stamp())
		if err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
		out, err = issueByID(ctx, tx, id)
		return err
	})
	return out, err
}

func (s *store) updateIssue(ctx context.Context, d models.IssueDraft) (models.Issue, error) {
	var out models.Issue
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "", "SELECT 1 FROM issues WHERE id = ?", d.ID); err != nil {
			return err
		}
		err := mustExist(ctx, tx, "phase "+d.PhaseID, "SELECT 1 FROM phases WHERE id = ?", d.PhaseID)
		if err != nil {
			return err
		}
		docs, err := encodeDocuments(d.Documents)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE issues SET name = ?, description = ?, severity = ?, phase_id = ?, documents = ?
			WHERE id = ?`,
			d.Name, d.Description, string(d.Severity), d.PhaseID, docs, d.ID)
		if err != nil {
			return fmt.Errorf("update issue: %w", err)
		}
		out, err = issueByID(ctx, tx, d.ID)
		return err
	})
	return out, err
}

func (s *store) closeIssue(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx,
		"UPDATE issues SET status = ? WHERE id = ?", string(models.IssueResolved), id))
}
