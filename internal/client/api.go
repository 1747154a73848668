package client

import "github.com/good-yellow-bee/trackadmin/internal/models"

// Backend routes per entity type.
var (
	UserEndpoints = Endpoints{
		Entity: "Users", List: "ViewAll",
		ByID: "ViewById", ByIDParam: "Id",
		Create: "Create", Update: "Update",
		Toggle: "Status/Toggle", ToggleParam: "userId",
	}
	CompanyEndpoints = Endpoints{
		Entity: "Company", List: "ViewAll",
		ByID: "ViewById", ByIDParam: "CompanyId",
		Create: "Create", Update: "Update",
		Toggle: "Status/Toggle", ToggleParam: "CompanyId",
		History: "History", HistParam: "CompanyId",
	}
	ProjectEndpoints = Endpoints{
		Entity: "Projects", List: "ViewAll",
		ByCode: "GetByCode", ByCodeParam: "code",
		Create: "Create", Update: "Update",
		Toggle: "Close", ToggleParam: "ProjectId",
	}
	PhaseEndpoints = Endpoints{
		Entity: "Phases", List: "ViewAll",
		ByCode: "GetByCode", ByCodeParam: "code",
		Create: "Create", Update: "Update",
		Toggle: "Close", ToggleParam: "PhaseId",
	}
	IssueEndpoints = Endpoints{
		Entity: "Issues", List: "ViewAll",
		ByCode: "GetByCode", ByCodeParam: "code",
		Create: "Create", Update: "Update",
		Toggle: "Close", ToggleParam: "IssueId",
	}
	RoleEndpoints = Endpoints{
		Entity: "Roles", List: "List",
		Create: "Create", Update: "Update",
	}
)

// API groups the per-entity resources of one backend.
type API struct {
	Client    *Client
	Users     *Resource[models.User]
	Companies *Resource[models.Company]
	Projects  *Resource[models.Project]
	Phases    *Resource[models.Phase]
	Issues    *Resource[models.Issue]
	Roles     *Resource[models.Role]
	Claims    *Claims
	Documents *Documents
	Auth      *Auth
}

// NewAPI binds every resource to c.
func NewAPI(c *Client) *API {
	return &API{
		Client:    c,
		Users:     NewResource[models.User](c, UserEndpoints),
		Companies: NewResource[models.Company](c, CompanyEndpoints),
		Projects:  NewResource[models.Project](c, ProjectEndpoints),
		Phases:    NewResource[models.Phase](c, PhaseEndpoints),
		Issues:    NewResource[models.Issue](c, IssueEndpoints),
		Roles:     NewResource[models.Role](c, RoleEndpoints),
		Claims:    NewClaims(c),
		Documents: NewDocuments(c),
		Auth:      NewAuth(c),
	}
}
