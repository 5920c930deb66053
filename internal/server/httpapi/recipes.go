package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/gin-gonic/gin"
)

// MaxImageSize caps uploaded recipe images.
const MaxImageSize = 10 << 20

// parseIDs parses a comma separated id list such as "1,2,3".
func parseIDs(v string) ([]int64, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// recipeID reads the :id path parameter. A malformed id cannot name any
// recipe, so it is answered like a missing one.
func recipeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": msgNotFound})
		return 0, false
	}
	return id, true
}

func (s *HTTPServer) listRecipes(c *gin.Context) {
	var filter models.RecipeFilter
	var err error

	if filter.TagIDs, err = parseIDs(c.Query("tags")); err != nil {
		c.JSON(http.StatusBadRequest, fieldErrors{"tags": {"Enter a comma separated list of ids."}})
		return
	}
	if filter.IngredientIDs, err = parseIDs(c.Query("ingredients")); err != nil {
		c.JSON(http.StatusBadRequest, fieldErrors{"ingredients": {"Enter a comma separated list of ids."}})
		return
	}

	list, err := s.recipes.List(c.Request.Context(), currentUser(c).ID, filter)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]recipeResponse, len(list))
	for i, r := range list {
		out[i] = newRecipeResponse(r)
	}
	c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) createRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrors(err))
		return
	}
	if missing := req.missing(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, missing)
		return
	}

	recipe := &models.Recipe{
		UserID:      currentUser(c).ID,
		Title:       *req.Title,
		TimeMinutes: *req.TimeMinutes,
		Price:       *req.Price,
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	if req.Tags != nil {
		recipe.TagIDs = *req.Tags
	}
	if req.Ingredients != nil {
		recipe.IngredientIDs = *req.Ingredients
	}

	d, err := s.recipes.Create(c.Request.Context(), recipe)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeResponse(&d.Recipe))
}

func (s *HTTPServer) getRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	d, err := s.recipes.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRecipeDetailResponse(d))
}

// updateRecipe handles PUT (partial == false, required fields enforced) and
// PATCH.
func (s *HTTPServer) updateRecipe(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := recipeID(c)
		if !ok {
			return
		}

		var req recipeRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, bindErrors(err))
			return
		}
		if !partial {
			if missing := req.missing(); len(missing) > 0 {
				c.JSON(http.StatusBadRequest, missing)
				return
			}
		}

		d, err := s.recipes.Update(c.Request.Context(), currentUser(c).ID, id, req.patch())
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newRecipeResponse(&d.Recipe))
	}
}

func (s *HTTPServer) deleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := s.recipes.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) uploadImage(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, fieldErrors{"image": {"No file was submitted."}})
		return
	}
	if fh.Size > MaxImageSize {
		c.JSON(http.StatusBadRequest, fieldErrors{"image": {"File is too large."}})
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize))
	if err != nil {
		s.writeError(c, err)
		return
	}

	d, err := s.recipes.UploadImage(c.Request.Context(), currentUser(c).ID, id, data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipeImageResponse{ID: d.ID, Image: imageURL(d)})
}
