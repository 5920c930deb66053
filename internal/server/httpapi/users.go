package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrors(err))
		return
	}

	user, err := s.users.CreateUser(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			c.JSON(http.StatusBadRequest, fieldErrors{"email": {msgEmailTaken}})
			return
		}
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (s *HTTPServer) createToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrors(err))
		return
	}

	pair, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *HTTPServer) refreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrors(err))
		return
	}

	pair, err := s.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *HTTPServer) getMe(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(currentUser(c)))
}

// updateMe handles PUT (partial == false, email and password required) and
// PATCH.
func (s *HTTPServer) updateMe(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateUserRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, bindErrors(err))
			return
		}
		if !partial {
			missing := fieldErrors{}
			if req.Email == nil {
				missing.add("email", msgRequired)
			}
			if req.Password == nil {
				missing.add("password", msgRequired)
			}
			if len(missing) > 0 {
				c.JSON(http.StatusBadRequest, missing)
				return
			}
		}

		user, err := s.users.UpdateProfile(c.Request.Context(), currentUser(c).ID, services.ProfileUpdate{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
		})
		if err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				c.JSON(http.StatusBadRequest, fieldErrors{"email": {msgEmailTaken}})
				return
			}
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserResponse(user))
	}
}
