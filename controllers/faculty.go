package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"research-registry-api/middleware"
	"research-registry-api/models"
	"research-registry-api/services"

	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 5 * 1024 * 1024

var photoStorage *services.PhotoStorage

// SetPhotoStorage wires the uploader used by UploadFacultyPhoto.
func SetPhotoStorage(storage *services.PhotoStorage) {
	photoStorage = storage
}

// ListFaculty returns approved, visible faculty, optionally fuzzy-filtered by ?q=
func ListFaculty(c *gin.Context) {
	faculty, err := services.NewFacultyService(nil).ListPublic(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load faculty"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": faculty, "total": len(faculty)})
}

// GetMyFaculty returns the caller's faculty profile
func GetMyFaculty(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, faculty)
}

// UploadFacultyPhoto stores a multipart "photo" in object storage and saves its URL
func UploadFacultyPhoto(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	if photoStorage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo storage is not configured"})
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo uploaded"})
		return
	}
	defer file.Close()

	if header.Size > maxPhotoSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo exceeds 5MB"})
		return
	}

	url, err := photoStorage.Upload(c.Request.Context(), faculty.FacultyID, header.Header.Get("Content-Type"), file, header.Size)
	if errors.Is(err, services.ErrUnsupportedPhotoType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store photo"})
		return
	}

	if err := services.NewFacultyService(nil).UpdatePhotoURL(c.Request.Context(), faculty.ID, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo updated", "photo": url})
}

// ApproveFaculty marks a faculty profile as approved (admin)
func ApproveFaculty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	faculty, err := services.NewFacultyService(nil).Approve(c.Request.Context(), id)
	if errors.Is(err, services.ErrFacultyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Faculty not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve faculty"})
		return
	}
	c.JSON(http.StatusOK, faculty)
}

// currentFaculty writes the error response itself when it returns false.
func currentFaculty(c *gin.Context) (*models.Faculty, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	faculty, err := services.NewFacultyService(nil).GetByUserID(c.Request.Context(), userID)
	if errors.Is(err, services.ErrFacultyProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No faculty profile for this account"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load faculty profile"})
		return nil, false
	}
	return faculty, true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
