package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/good-yellow-bee/trackadmin/internal/models"
	"github.com/good-yellow-bee/trackadmin/internal/validation"
)

const maxUploadBytes = 10 << 20

type authorizeRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authorizeResponse struct {
	UserID    string  `json:"userId"`
	Token     string  `json:"token"`
	CompanyID *string `json:"companyId"`
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := decode(r, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	login := strings.ToLower(strings.TrimSpace(req.Username))
	if wait := s.lockout.locked(login); wait > 0 {
		Fail(w, http.StatusTooManyRequests, fmt.Sprintf("Account locked. Try again in %s.", wait.Round(time.Minute)))
		return
	}
	u, err := s.store.userByLogin(r.Context(), strings.TrimSpace(req.Username))
	if err != nil && !errors.Is(err, errNotFound) {
		s.writeResult(w, "", nil, err)
		return
	}
	if err != nil || !checkPassword(u.PasswordHash, req.Password) {
		if s.lockout.fail(login) {
			s.logger.Warn().Str("login", login).Msg("account locked after failed logins")
		}
		Fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.lockout.clear(login)
	if !u.IsActive {
		Fail(w, http.StatusUnauthorized, "Account is disabled")
		return
	}
	token, err := s.tokens.issue(u.ID, u.UserName, u.CompanyID)
	if err != nil {
		s.logger.Error().Err(err).Msg("issue token")
		Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	resp := authorizeResponse{UserID: u.ID, Token: token}
	if u.CompanyID != "" {
		cid := u.CompanyID
		resp.CompanyID = &cid
	}
	OK(w, "Login successful", resp)
}

func actor(r *http.Request) string {
	if c := claimsFrom(r.Context()); c != nil {
		return c.UserName
	}
	return ""
}

// writeResult maps store errors to backend responses.
func (s *Server) writeResult(w http.ResponseWriter, message string, data any, err error) {
	switch {
	case err == nil:
		OK(w, message, data)
	case errors.Is(err, errDuplicate):
		Rejected(w, strings.TrimPrefix(err.Error(), errDuplicate.Error()+": ")+" already exists")
	case errors.Is(err, errNotFound) && err != errNotFound:
		// A referenced record is missing.
		Fail(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), errNotFound.Error()+": ")+" not found")
	case errors.Is(err, errNotFound):
		Fail(w, http.StatusNotFound, "Record not found")
	default:
		s.logger.Error().Err(err).Msg("store")
		Fail(w, http.StatusInternalServerError, "internal server error")
	}
}

type normalizer[D any] interface {
	Normalize() D
}

// bind decodes, normalizes and validates a draft. It writes the response
// and returns false when the request is unusable.
func bind[D normalizer[D]](w http.ResponseWriter, r *http.Request, d *D, except ...string) bool {
	if err := decode(r, d); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	*d = (*d).Normalize()
	if err := validation.Struct(*d, except...); err != nil {
		Fail(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func param(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		Fail(w, http.StatusBadRequest, name+" is required")
		return "", false
	}
	return v, true
}

// Users

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.listUsers(r.Context())
	s.writeResult(w, "", users, err)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "Id")
	if !ok {
		return
	}
	u, err := s.store.userByID(r.Context(), id)
	s.writeResult(w, "", u, err)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var d models.UserDraft
	if !bind(w, r, &d) {
		return
	}
	hash, err := hashPassword(d.Password, s.config.BcryptCost)
	if err != nil {
		s.writeResult(w, "", nil, err)
		return
	}
	u, err := s.store.createUser(r.Context(), d, hash)
	s.writeResult(w, "User added successfully", u, err)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var d models.UserDraft
	if !bind(w, r, &d, "Password") {
		return
	}
	var hash string
	if d.Password != "" {
		var err error
		if hash, err = hashPassword(d.Password, s.config.BcryptCost); err != nil {
			s.writeResult(w, "", nil, err)
			return
		}
	}
	u, err := s.store.updateUser(r.Context(), d, hash)
	s.writeResult(w, "User updated successfully", u, err)
}

func (s *Server) toggleUser(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "userId")
	if !ok {
		return
	}
	u, err := s.store.toggleUser(r.Context(), id)
	msg := "User disabled successfully"
	if u.IsActive {
		msg = "User enabled successfully"
	}
	s.writeResult(w, msg, nil, err)
}

// Companies

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.listCompanies(r.Context())
	s.writeResult(w, "", companies, err)
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "CompanyId")
	if !ok {
		return
	}
	c, err := s.store.companyByID(r.Context(), id)
	s.writeResult(w, "", c, err)
}

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var d models.CompanyDraft
	if !bind(w, r, &d) {
		return
	}
	c, err := s.store.createCompany(r.Context(), d, actor(r))
	s.writeResult(w, "Company created successfully", c, err)
}

func (s *Server) updateCompany(w http.ResponseWriter, r *http.Request) {
	var d models.CompanyDraft
	if !bind(w, r, &d) {
		return
	}
	c, err := s.store.updateCompany(r.Context(), d, actor(r))
	s.writeResult(w, "Company updated successfully", c, err)
}

func (s *Server) toggleCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "CompanyId")
	if !ok {
		return
	}
	_, err := s.store.toggleCompany(r.Context(), id, actor(r))
	s.writeResult(w, "Company status updated", nil, err)
}

func (s *Server) companyHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "CompanyId")
	if !ok {
		return
	}
	h, err := s.store.companyHistory(r.Context(), id)
	s.writeResult(w, "", h, err)
}

// Projects

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.listProjects(r.Context())
	s.writeResult(w, "", projects, err)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	code, ok := param(w, r, "code")
	if !ok {
		return
	}
	p, err := s.store.projectByCode(r.Context(), code)
	s.writeResult(w, "", p, err)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var d models.ProjectDraft
	if !bind(w, r, &d) {
		return
	}
	p, err := s.store.createProject(r.Context(), d)
	s.writeResult(w, "Project created successfully", p, err)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var d models.ProjectDraft
	if !bind(w, r, &d, "SupervisorID") {
		return
	}
	p, err := s.store.updateProject(r.Context(), d)
	s.writeResult(w, "Project updated successfully", p, err)
}

func (s *Server) closeProject(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "ProjectId")
	if !ok {
		return
	}
	s.writeResult(w, "Project closed successfully", nil, s.store.closeProject(r.Context(), id))
}

// Phases

func (s *Server) listPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := s.store.listPhases(r.Context())
	s.writeResult(w, "", phases, err)
}

func (s *Server) getPhase(w http.ResponseWriter, r *http.Request) {
	code, ok := param(w, r, "code")
	if !ok {
		return
	}
	p, err := s.store.phaseByCode(r.Context(), code)
	s.writeResult(w, "", p, err)
}

func (s *Server) createPhase(w http.ResponseWriter, r *http.Request) {
	var d models.PhaseDraft
	if !bind(w, r, &d) {
		return
	}
	p, err := s.store.createPhase(r.Context(), d)
	s.writeResult(w, "Phase created successfully", p, err)
}

func (s *Server) updatePhase(w http.ResponseWriter, r *http.Request) {
	var d models.PhaseDraft
	if !bind(w, r, &d) {
		return
	}
	p, err := s.store.updatePhase(r.Context(), d)
	s.writeResult(w, "Phase updated successfully", p, err)
}

func (s *Server) closePhase(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "PhaseId")
	if !ok {
		return
	}
	s.writeResult(w, "Phase closed successfully", nil, s.store.closePhase(r.Context(), id))
}

// Issues

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := s.store.listIssues(r.Context())
	s.writeResult(w, "", issues, err)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	code, ok := param(w, r, "code")
	if !ok {
		return
	}
	i, err := s.store.issueByCode(r.Context(), code)
	s.writeResult(w, "", i, err)
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	var d models.IssueDraft
	if !bind(w, r, &d) {
		return
	}
	i, err := s.store.createIssue(r.Context(), d)
	s.writeResult(w, "Issue created successfully", i, err)
}

func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request) {
	var d models.IssueDraft
	if !bind(w, r, &d) {
		return
	}
	i, err := s.store.updateIssue(r.Context(), d)
	s.writeResult(w, "Issue updated successfully", i, err)
}

func (s *Server) closeIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "IssueId")
	if !ok {
		return
	}
	s.writeResult(w, "Issue closed successfully", nil, s.store.closeIssue(r.Context(), id))
}

// Roles

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.store.listRoles(r.Context())
	s.writeResult(w, "", roles, err)
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var d models.RoleDraft
	if !bind(w, r, &d) {
		return
	}
	role, err := s.store.createRole(r.Context(), d)
	s.writeResult(w, "Role created successfully", role, err)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var d models.RoleDraft
	if !bind(w, r, &d) {
		return
	}
	role, err := s.store.updateRole(r.Context(), d)
	s.writeResult(w, "Role updated successfully", role, err)
}

// Claims

type assignRequest struct {
	UserID string   `json:"userId"`
	RoleID string   `json:"roleId"`
	Claims []string `json:"claims"`
}

func (s *Server) listClaims(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.claimCatalog(r.Context())
	s.writeResult(w, "", names, err)
}

func (s *Server) getUserClaims(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "userId")
	if !ok {
		return
	}
	names, err := s.store.claims(r.Context(), true, id)
	s.writeResult(w, "", names, err)
}

func (s *Server) getRoleClaims(w http.ResponseWriter, r *http.Request) {
	id, ok := param(w, r, "roleId")
	if !ok {
		return
	}
	names, err := s.store.claims(r.Context(), false, id)
	s.writeResult(w, "", names, err)
}

func (s *Server) addUserClaims(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decode(r, &req); err != nil || req.UserID == "" {
		Fail(w, http.StatusBadRequest, "userId is required")
		return
	}
	s.writeResult(w, "Claims assigned successfully", nil, s.store.assignClaims(r.Context(), true, req.UserID, req.Claims))
}

func (s *Server) addRoleClaims(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decode(r, &req); err != nil || req.RoleID == "" {
		Fail(w, http.StatusBadRequest, "roleId is required")
		return
	}
	s.writeResult(w, "Claims assigned successfully", nil, s.store.assignClaims(r.Context(), false, req.RoleID, req.Claims))
}

// Documents

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Fail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	id := r.FormValue("Id")
	if id == "" || r.FormValue("UserId") == "" {
		Fail(w, http.StatusBadRequest, "Id and UserId are required")
		return
	}
	f, hdr, err := r.FormFile("File")
	if err != nil {
		Fail(w, http.StatusBadRequest, "File is required")
		return
	}
	f.Close()
	err = s.store.addDocument(r.Context(), id, hdr.Filename, r.FormValue("UserId"))
	s.writeResult(w, "Document uploaded", models.Document{ID: id}, err)
}
