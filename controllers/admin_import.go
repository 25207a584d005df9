package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"research-registry-api/config"
	"research-registry-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	datasetUploadDir     = "uploads/dataset_imports"
	maxDatasetUploadSize = 200 * 1024 * 1024
)

var newDatasetImportRunner = func() services.DatasetImportRunner {
	return services.NewDatasetImportJobService(nil)
}

type DatasetImportRequest struct {
	FacultyPath string `json:"faculty_path" form:"faculty_path"`
	PapersPath  string `json:"papers_path" form:"papers_path"`
	DryRun      bool   `json:"dry_run" form:"dry_run"`
	Reset       bool   `json:"reset" form:"reset"`
	Max         int    `json:"max" form:"max"`
}

// AdminRunDatasetImport runs the bulk importer against server-side paths or
// two uploaded JSON files ("faculty" and "papers" multipart fields).
func AdminRunDatasetImport(c *gin.Context) {
	var req DatasetImportRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		dir, facultyPath, papersPath, err := saveDatasetUploads(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer os.RemoveAll(dir)
		req.FacultyPath, req.PapersPath = facultyPath, papersPath
	}

	if req.FacultyPath == "" || req.PapersPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "faculty and papers files are required"})
		return
	}

	outcome, err := newDatasetImportRunner().Run(c.Request.Context(), &services.DatasetImportInput{
		FacultyPath:   req.FacultyPath,
		PapersPath:    req.PapersPath,
		DryRun:        req.DryRun,
		Reset:         req.Reset,
		Max:           req.Max,
		LockName:      services.DefaultDatasetImportLockName,
		TriggerSource: "admin_api",
		RecordRun:     !req.DryRun,
	})
	switch {
	case errors.Is(err, services.ErrInvalidDataset):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrDatasetImportAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "A dataset import is already running"})
		return
	case err != nil:
		config.Logger.Error("admin dataset import failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Dataset import failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dry_run": outcome.DryRun(),
		"outcome": outcome.Kind,
		"run_id":  outcome.RunID,
		"summary": outcome.Summary,
		"message": outcome.Summary.String(),
	})
}

// AdminListDatasetImports returns the latest import runs
func AdminListDatasetImports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := services.NewDatasetImportRunService(nil).List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load import runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs, "total": len(runs)})
}

func saveDatasetUploads(c *gin.Context) (dir, facultyPath, papersPath string, err error) {
	dir = filepath.Join(datasetUploadDir, uuid.NewString())
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", "", "", errors.New("cannot create upload directory")
	}
	paths := make(map[string]string, 2)
	for _, field := range []string{"faculty", "papers"} {
		header, ferr := c.FormFile(field)
		if ferr != nil {
			os.RemoveAll(dir)
			return "", "", "", errors.New(field + " file is required")
		}
		if header.Size > maxDatasetUploadSize {
			os.RemoveAll(dir)
			return "", "", "", errors.New(field + " file exceeds 200MB")
		}
		dst := filepath.Join(dir, field+".json")
		if serr := c.SaveUploadedFile(header, dst); serr != nil {
			os.RemoveAll(dir)
			return "", "", "", errors.New("cannot save " + field + " file")
		}
		paths[field] = dst
	}
	return dir, paths["faculty"], paths["papers"], nil
}
