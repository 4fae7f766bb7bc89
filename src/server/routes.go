package server

import (
	"net/http"

	"market-collector/src/models"
	"market-collector/src/orchestrator"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	active := 0
	if s.tasks != nil {
		for _, t := range s.tasks.List() {
			if !t.Status.Terminal() {
				active++
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"connections":  s.connectionCount(),
		"active_tasks": active,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getProviders(c *gin.Context) {
	names := []string{}
	if s.providers != nil {
		names = s.providers.ListSources()
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "providers": names})
}

// -----------------------------------------------------------------------------

func (s *APIServer) listCollections(c *gin.Context) {
	list := s.orch.ListSupportedCollections()
	c.JSON(http.StatusOK, gin.H{"success": true, "collections": list, "total": len(list)})
}

// -----------------------------------------------------------------------------

// knownCollection answers 404 and returns false for unregistered names.
func (s *APIServer) knownCollection(c *gin.Context) (models.MCollectionDescriptor, bool) {
	name := c.Param("name")
	desc, ok := s.orch.GetCollectionConfig(name)
	if !ok {
		fail(c, http.StatusNotFound, "unknown collection: "+name)
	}
	return desc, ok
}

func (s *APIServer) getCollectionConfig(c *gin.Context) {
	desc, ok := s.knownCollection(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": desc})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getCollectionStats(c *gin.Context) {
	if _, ok := s.knownCollection(c); !ok {
		return
	}
	stats := s.orch.GetCollectionStats(c.Request.Context(), c.Param("name"))
	status := http.StatusOK
	if !stats.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, stats)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getCollectionData(c *gin.Context) {
	if _, ok := s.knownCollection(c); !ok {
		return
	}
	q, err := parsePageQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	page := s.orch.GetCollectionData(c.Request.Context(), c.Param("name"), q.Page, q.PageSize, q.SortField, q.Descending)
	status := http.StatusOK
	if !page.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, page)
}

// -----------------------------------------------------------------------------

// refreshCollection starts a background update and answers with its task id.
func (s *APIServer) refreshCollection(c *gin.Context) {
	if _, ok := s.knownCollection(c); !ok {
		return
	}

	var req models.MRefreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	if req.Mode == "" {
		req.Mode = c.DefaultQuery("mode", string(models.ModeSingle))
	}
	mode, err := orchestrator.ParseMode(req.Mode)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.orch.RefreshAsync(c.Request.Context(), s.tasks, c.Param("name"), mode, models.MParams(req.Params))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": task.ID,
		"message": "update task created",
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) clearCollection(c *gin.Context) {
	if _, ok := s.knownCollection(c); !ok {
		return
	}
	res := s.orch.ClearCollection(c.Request.Context(), c.Param("name"))
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, res)
}

// -----------------------------------------------------------------------------

func (s *APIServer) listTasks(c *gin.Context) {
	list := s.tasks.List()
	if status := c.Query("status"); status != "" {
		filtered := list[:0]
		for _, t := range list {
			if string(t.Status) == status {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tasks": list, "total": len(list)})
}

func (s *APIServer) getTask(c *gin.Context) {
	task, ok := s.tasks.Get(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "task not found: "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *APIServer) deleteTask(c *gin.Context) {
	if !s.tasks.Delete(c.Param("id")) {
		fail(c, http.StatusNotFound, "task not found: "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "task deleted"})
}
