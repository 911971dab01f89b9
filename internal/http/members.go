package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/membership"
)

type MembersController struct {
	members *membership.Service
}

func NewMembersController(members *membership.Service) *MembersController {
	return &MembersController{members: members}
}

func (mc *MembersController) CreateMember(c *gin.Context) {
	var input membership.MemberInput
	if !bindJSON(c, &input) {
		return
	}

	member, err := mc.members.Add(c.Request.Context(), auth.GetPrincipal(c), input)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	respondCreated(c, member)
}

func (mc *MembersController) ListMembers(c *gin.Context) {
	page, pageSize := parsePage(c)

	result, err := mc.members.List(c.Request.Context(), auth.GetPrincipal(c), page, pageSize)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: result.Members, Meta: result.Meta})
}

func (mc *MembersController) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := mc.members.Get(c.Request.Context(), auth.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.JSON(http.StatusOK, member)
}

// GetHistory handles GET /api/members/:id/history
func (mc *MembersController) GetHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	records, err := mc.members.History(c.Request.Context(), auth.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (mc *MembersController) DeleteMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := mc.members.Delete(c.Request.Context(), auth.GetPrincipal(c), id); err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	c.Status(http.StatusNoContent)
}
