package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"institute-reviews/cmd/api/auth"
	"institute-reviews/cmd/api/dto"
	"institute-reviews/cmd/api/services"
)

// ListReviewsHandler godoc
// @Summary      List reviews
// @Description  List reviews of a course or blog, newest first, with author, replier and subject projections. Omitting subject_id lists every subject of the type and requires an admin token.
// @Tags         reviews
// @Param        subject_type  query  string  true   "COURSE or BLOG"
// @Param        subject_id    query  string  false  "Subject ObjectID"
// @Param        page          query  int     false  "Page number (1-based)"
// @Param        page_size     query  int     false  "Page size (<=100)"
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.PaginationReviewDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      403  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/reviews [get]
func ListReviewsHandler(svc *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.ListReviewsInput
		in.SubjectType = c.Query("subject_type")
		in.SubjectID = c.Query("subject_id")
		var err error
		if in.Page, err = queryInt(c, "page", 1); err != nil {
			respondError(c, err)
			return
		}
		if in.PageSize, err = queryInt(c, "page_size", services.DefaultPageSize); err != nil {
			respondError(c, err)
			return
		}

		if in.SubjectID == "" {
			principal, ok := auth.PrincipalFrom(c)
			if !ok {
				auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
				return
			}
			if !principal.IsAdmin() {
				auth.AbortWithForbidden(c)
				return
			}
		}

		page, err := svc.List(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", services.ErrInvalidArgument, name)
	}
	return v, nil
}

// GetReviewHandler godoc
// @Summary      Get review by id
// @Tags         reviews
// @Param        id   path   string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.ReviewDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/reviews/{id} [get]
func GetReviewHandler(svc *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rv, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rv)
	}
}

// ReviewSummaryHandler godoc
// @Summary      Rating summary
// @Description  Average rating and per-star percentages of one subject. Percentages are rounded per star.
// @Tags         reviews
// @Param        subject_type  query  string  true  "COURSE or BLOG"
// @Param        subject_id    query  string  true  "Subject ObjectID"
// @Produce      json
// @Success      200  {object}  dto.ReviewSummaryDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/reviews/summary [get]
func ReviewSummaryHandler(svc *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svc.Summary(c.Request.Context(), c.Query("subject_type"), c.Query("subject_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

// CreateReviewHandler godoc
// @Summary      Create or replace my review
// @Description  Stores the caller's review of a subject. An earlier review by the same caller for the same subject is replaced, dropping its reactions and reply.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateReviewRequestDTO  true  "Review"
// @Success      201  {object}  dto.ReviewDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Failure      429  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/reviews [post]
func CreateReviewHandler(svc *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
			return
		}
		var body dto.CreateReviewRequestDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request_body"})
			return
		}

		rv, err := svc.CreateOrReplace(c.Request.Context(), services.CreateReviewInput{
			UserID:      principal.UserID,
			SubjectType: body.SubjectType,
			SubjectID:   body.SubjectID,
			Rating:      body.Rating,
			Message:     body.Message,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rv)
	}
}

// ReplyReviewHandler godoc
// @Summary      Reply to a review
// @Description  Admin only. Sets the reply message and reply timestamp.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "ObjectID"
// @Param        body  body  dto.ReplyReviewRequestDTO  true  "Reply"
// @Success      200  {object}  dto.ReviewDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      403  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/reviews/{id}/reply [put]
func ReplyReviewHandler(svc *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
			return
		}
		var body dto.ReplyReviewRequestDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request_body"})
			return
		}

		rv, err := svc.Reply(c.Request.Context(), c.Param("id"), principal.UserID, body.Message)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rv)
	}
}

// ReactReviewHandler godoc
// @Summary      Like or dislike a review
// @Description  Toggles the caller's reaction. Repeating the same reaction removes it; switching removes the opposite one.
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id        path  string  true  "ObjectID"
// @Param        reaction  path  string  true  "like or dislike"
// @Success      200  {object}  dto.ReviewDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Failure      429  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/reviews/{id}/{reaction} [put]
func ReactReviewHandler(svc *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
			return
		}
		rv, err := svc.React(c.Request.Context(), c.Param("id"), principal.UserID, c.Param("reaction"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rv)
	}
}

// DeleteReviewHandler godoc
// @Summary      Delete a review
// @Description  The author or an admin may delete a review.
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ObjectID"
// @Success      200  {object}  dto.MessageResponseDTO
// @Failure      403  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /api/v1/reviews/{id} [delete]
func DeleteReviewHandler(svc *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
			return
		}
		if err := svc.Delete(c.Request.Context(), c.Param("id"), principal.UserID, principal.IsAdmin()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "review deleted"})
	}
}
