package controllers

import (
	"errors"
	"net/http"

	"research-registry-api/models"
	"research-registry-api/services"

	"github.com/gin-gonic/gin"
)

const maxAdHocPapers = 500

type AdHocImportRequest struct {
	Papers []services.AdHocPaper `json:"papers" binding:"required"`
}

func ListPapers(c *gin.Context) {
	papers, err := services.NewPaperService(nil).List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load papers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": papers, "total": len(papers)})
}

func CreatePaper(c *gin.Context) {
	var paper models.Paper
	if err := c.ShouldBindJSON(&paper); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := services.NewPaperService(nil).Create(c.Request.Context(), &paper); err != nil {
		writePaperError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paper)
}

// ListMyPapers returns papers linked to the caller's faculty profile
func ListMyPapers(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	papers, err := services.NewPaperService(nil).ListForFaculty(c.Request.Context(), faculty.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load papers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": papers, "total": len(papers)})
}

// CreateMyPaper creates a paper and links the caller as a pending author
func CreateMyPaper(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	var paper models.Paper
	if err := c.ShouldBindJSON(&paper); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := services.NewPaperService(nil).CreateForFaculty(c.Request.Context(), faculty.ID, &paper); err != nil {
		writePaperError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paper)
}

// ImportMyPapers attaches already-extracted {title, doi} records to the caller
func ImportMyPapers(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	var req AdHocImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Papers) > maxAdHocPapers {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many papers in one request"})
		return
	}

	results, err := services.NewPaperService(nil).ImportForFaculty(c.Request.Context(), faculty.ID, req.Papers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import papers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Papers processed",
		"papers_found": len(results),
		"papers":       results,
	})
}

// ListMyAuthorships returns the caller's authorship claims with review status
func ListMyAuthorships(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	rows, err := services.NewAuthorshipService(nil).ListForFaculty(c.Request.Context(), faculty.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load authorships"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": len(rows)})
}

func ApproveAuthorship(c *gin.Context) {
	decideAuthorship(c, models.AuthorshipStatusApproved)
}

func RejectAuthorship(c *gin.Context) {
	decideAuthorship(c, models.AuthorshipStatusRejected)
}

func decideAuthorship(c *gin.Context, status string) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := services.NewAuthorshipService(nil).Decide(c.Request.Context(), id, status)
	if errors.Is(err, services.ErrAuthorshipNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Authorship not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update authorship"})
		return
	}
	c.JSON(http.StatusOK, row)
}

func writePaperError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPaperDOIRequired), errors.Is(err, services.ErrPaperTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateDOI):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save paper"})
	}
}
