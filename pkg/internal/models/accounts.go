package models

const (
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
	RoleJudge       = "judge"
)

// Account is the local mirror of an identity issued by the external auth
// service. The auth service owns credentials; we only keep what the live
// topics need to resolve an author into display fields.
type Account struct {
	BaseModel

	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a Account) IsOrganizer() bool {
	return a.Role == RoleOrganizer
}
