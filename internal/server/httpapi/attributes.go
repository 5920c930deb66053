package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/gin-gonic/gin"
)

// parseAssignedOnly accepts anything strconv.ParseBool does plus integers,
// where any non-zero value means true. Absent means false.
func parseAssignedOnly(v string) (bool, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, true
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b, true
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n != 0, true
	}
	return false, false
}

func (s *HTTPServer) listAttributes(svc AttributeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assigned, ok := parseAssignedOnly(c.Query("assigned_only"))
		if !ok {
			c.JSON(http.StatusBadRequest, fieldErrors{"assigned_only": {"Must be a valid boolean."}})
			return
		}

		list, err := svc.List(c.Request.Context(), currentUser(c).ID, models.AttributeFilter{AssignedOnly: assigned})
		if err != nil {
			s.writeError(c, err)
			return
		}

		out := make([]attributeResponse, len(list))
		for i, a := range list {
			out[i] = attributeResponse{ID: a.ID, Name: a.Name}
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *HTTPServer) createAttribute(svc AttributeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req attributeRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, bindErrors(err))
			return
		}

		a, err := svc.Create(c.Request.Context(), currentUser(c).ID, req.Name)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, attributeResponse{ID: a.ID, Name: a.Name})
	}
}
