package controllers

import (
	"errors"
	"net/http"

	"research-registry-api/models"
	"research-registry-api/services"

	"github.com/gin-gonic/gin"
)

type ProjectRequest struct {
	models.Project
	FacultyIDs []uint `json:"faculty_ids"`
}

type PatentRequest struct {
	models.Patent
	FacultyIDs []uint `json:"faculty_ids"`
}

func ListProjects(c *gin.Context) {
	projects, err := services.NewProjectService(nil).List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects, "total": len(projects)})
}

func CreateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := services.NewProjectService(nil).Create(c.Request.Context(), &req.Project, req.FacultyIDs...); err != nil {
		writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req.Project)
}

func ListMyProjects(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	projects, err := services.NewProjectService(nil).ListForFaculty(c.Request.Context(), faculty.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects, "total": len(projects)})
}

func CreateMyProject(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	var project models.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := services.NewProjectService(nil).Create(c.Request.Context(), &project, faculty.ID); err != nil {
		writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func ListPatents(c *gin.Context) {
	patents, err := services.NewPatentService(nil).List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load patents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": patents, "total": len(patents)})
}

func CreatePatent(c *gin.Context) {
	var req PatentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := services.NewPatentService(nil).Create(c.Request.Context(), &req.Patent, req.FacultyIDs...); err != nil {
		writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req.Patent)
}

func ListMyPatents(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	patents, err := services.NewPatentService(nil).ListForFaculty(c.Request.Context(), faculty.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load patents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": patents, "total": len(patents)})
}

func CreateMyPatent(c *gin.Context) {
	faculty, ok := currentFaculty(c)
	if !ok {
		return
	}
	var patent models.Patent
	if err := c.ShouldBindJSON(&patent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := services.NewPatentService(nil).Create(c.Request.Context(), &patent, faculty.ID); err != nil {
		writeRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, patent)
}

func writeRecordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectTitleRequired), errors.Is(err, services.ErrPatentFieldsRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicatePatentNumber):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrFacultyNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown faculty id"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save record"})
	}
}
